// The brviz tool visualizes brcov reports.
//
// Usage:
//
//	brviz dot <report.json|report.yaml>...
//	brviz table <report.json|report.yaml>...
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mewkiz/pkg/jsonutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mewspring/brcov/dict"
	"github.com/mewspring/brcov/proginfo"
)

var (
	// dbg is a logger with the "brviz:" prefix which logs debug messages to
	// standard error.
	dbg = log.New(os.Stderr, term.MagentaBold("brviz:")+" ", 0)
	// warn is a logger with the "brviz:" prefix which logs warning messages to
	// standard error.
	warn = log.New(os.Stderr, term.RedBold("brviz:")+" ", 0)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		warn.Printf("%+v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "brviz",
		Short:         "Visualize brcov reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	dotCmd := &cobra.Command{
		Use:   "dot <report>...",
		Short: "Write the branch graph of each report as a Graphviz DOT file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, reportPath := range args {
				if err := visualize(reportPath); err != nil {
					return err
				}
			}
			return nil
		},
	}
	tableCmd := &cobra.Command{
		Use:   "table <report>...",
		Short: "Print the branch dictionary of each report as a table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, reportPath := range args {
				report, err := parseReport(reportPath)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dict.Table(report.File, report.Labels))
			}
			return nil
		},
	}
	root.AddCommand(dotCmd, tableCmd)
	return root
}

// parseReport parses the given JSON or YAML report, as determined by its file
// extension.
func parseReport(reportPath string) (*proginfo.Report, error) {
	report := &proginfo.Report{}
	dbg.Printf("parsing %q", reportPath)
	switch filepath.Ext(reportPath) {
	case ".yaml", ".yml":
		buf, err := os.ReadFile(reportPath)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err := yaml.Unmarshal(buf, report); err != nil {
			return nil, errors.Wrapf(err, "unable to parse %q", reportPath)
		}
	default:
		if err := jsonutil.ParseFile(reportPath, report); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return report, nil
}

func visualize(reportPath string) error {
	report, err := parseReport(reportPath)
	if err != nil {
		return err
	}
	graph := genBranchGraph(report)
	dotPath := pathutil.TrimExt(reportPath) + ".dot"
	dbg.Printf("creating %q", dotPath)
	if err := os.WriteFile(dotPath, []byte(graph), 0644); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// genBranchGraph returns a digraph with an edge from each branch origin line
// to each of its target lines, labelled with the coverage label.
func genBranchGraph(report *proginfo.Report) string {
	buf := &strings.Builder{}
	buf.WriteString("digraph {\n")
	if report.File != "" {
		fmt.Fprintf(buf, "\tlabel=%q\n", pathutil.FileName(report.File))
	}
	var edges []Edge
	seen := make(map[Edge]bool)
	for _, l := range report.Labels {
		edge := Edge{
			From:  fmt.Sprintf("line %d", l.Origin),
			To:    fmt.Sprintf("line %d", l.Target),
			Label: l.Label,
			from:  l.Origin,
			to:    l.Target,
		}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	for _, edge := range edges {
		fmt.Fprintf(buf, "\t%q -> %q [label=%q]\n", edge.From, edge.To, edge.Label)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// Edge is a labelled edge from a branch origin to a target.
type Edge struct {
	From  string
	To    string
	Label string
	// Line numbers.
	from, to int
}
