// Package dict assigns coverage labels to the (branch origin, target) pairs of
// discovered branch points.
package dict

import (
	"fmt"
	"sort"

	"github.com/mewspring/brcov/proginfo"
)

// LabelPrefix is the prefix of coverage labels.
const LabelPrefix = "br_"

// Dictionary maps from branch origin line to target line to coverage label.
type Dictionary map[int]map[int]string

// Build assigns coverage labels to the targets of the given branch points, in
// order of branches and then of target discovery. Labels are numbered from 1
// with a single counter shared by all branches.
//
// Branch points sharing an origin line (e.g. the then and else blocks of an if
// statement) are merged into one entry; a target already labelled for that
// origin keeps its label.
func Build(branches []*proginfo.BranchPoint) Dictionary {
	d := make(Dictionary)
	n := 0
	for _, bp := range branches {
		targets, ok := d[bp.OriginLine]
		if !ok {
			targets = make(map[int]string)
			d[bp.OriginLine] = targets
		}
		for _, target := range bp.Targets {
			if _, ok := targets[target]; ok {
				continue
			}
			n++
			targets[target] = fmt.Sprintf("%s%d", LabelPrefix, n)
		}
	}
	return d
}

// IsOrigin reports whether line is a branch origin.
func (d Dictionary) IsOrigin(line int) bool {
	_, ok := d[line]
	return ok
}

// Label returns the coverage label of the given target of the branch at
// origin.
func (d Dictionary) Label(origin, target int) (string, bool) {
	label, ok := d[origin][target]
	return label, ok
}

// Origins returns the branch origin lines in ascending order.
func (d Dictionary) Origins() []int {
	origins := make([]int, 0, len(d))
	for origin := range d {
		origins = append(origins, origin)
	}
	sort.Ints(origins)
	return origins
}

// Len returns the number of coverage labels.
func (d Dictionary) Len() int {
	n := 0
	for _, targets := range d {
		n += len(targets)
	}
	return n
}

// Labels returns the coverage labels grouped by ascending branch origin, with
// target lines in ascending order within a branch.
func (d Dictionary) Labels() []proginfo.BranchLabel {
	var labels []proginfo.BranchLabel
	for _, origin := range d.Origins() {
		targets := make([]int, 0, len(d[origin]))
		for target := range d[origin] {
			targets = append(targets, target)
		}
		sort.Ints(targets)
		for _, target := range targets {
			labels = append(labels, proginfo.BranchLabel{
				Label:  d[origin][target],
				Origin: origin,
				Target: target,
			})
		}
	}
	return labels
}
