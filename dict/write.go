package dict

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mewkiz/pkg/jsonutil"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mewspring/brcov/proginfo"
)

// Report formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrFormat is returned for unknown report formats.
var ErrFormat = errors.New("unknown report format")

// WriteText writes the human-readable dictionary listing of the given source
// file to w; one "label: file, origin, target" line per coverage label.
func (d Dictionary) WriteText(w io.Writer, srcPath string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Branch Dictionary for: %s\n", srcPath)
	fmt.Fprintf(bw, "-----------------------%s\n", strings.Repeat("-", len(srcPath)))
	for _, l := range d.Labels() {
		fmt.Fprintf(bw, "%s: %s, %d, %d\n", l.Label, srcPath, l.Origin, l.Target)
	}
	return errors.WithStack(bw.Flush())
}

// WriteFile writes the dictionary listing of the given source file to path.
func (d Dictionary) WriteFile(path, srcPath string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = errors.WithStack(e)
		}
	}()
	return d.WriteText(f, srcPath)
}

// WriteReport writes the report to path in the given format.
func WriteReport(path, format string, report *proginfo.Report) error {
	switch format {
	case FormatJSON:
		return errors.WithStack(jsonutil.WriteFile(path, report))
	case FormatYAML:
		buf, err := yaml.Marshal(report)
		if err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(os.WriteFile(path, buf, 0644))
	default:
		return errors.Wrapf(ErrFormat, "%q", format)
	}
}

// Table renders the given coverage labels of a source file as a table.
func Table(srcPath string, labels []proginfo.BranchLabel) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(srcPath)
	tbl.AppendHeader(table.Row{"Label", "Origin", "Target"})
	for _, l := range labels {
		tbl.AppendRow(table.Row{l.Label, l.Origin, l.Target})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d labels", len(labels))})
	return tbl.Render()
}
