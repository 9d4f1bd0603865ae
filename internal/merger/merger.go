// Package merger reassembles statements the bank split across multiple PDF
// files before they reach the parser. Grouping is filename based: files that
// share a base name and differ only in a numeric part suffix belong to one
// statement and are merged in part order.
package merger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// partSuffixPattern matches "<base>_part2.pdf", "<base>-2.pdf" and
// "<base> (2).pdf" style split-file names.
var partSuffixPattern = regexp.MustCompile(`(?i)^(.*?)(?:[_-]part[_-]?(\d+)|[_-](\d+)|\s\((\d+)\))\.pdf$`)

// Group is one statement's ordered list of physical files.
type Group struct {
	Base  string
	Paths []string
}

type part struct {
	path string
	nr   int
}

// GroupSplitFiles buckets the input paths into per-statement groups. Files
// without a recognized part suffix form single-file groups under their own
// name. Group order follows the first appearance of each base name; parts
// within a group sort by part number.
func GroupSplitFiles(paths []string) []Group {
	partsByBase := make(map[string][]part)
	var order []string

	for _, p := range paths {
		name := filepath.Base(p)
		base := strings.TrimSuffix(name, filepath.Ext(name))
		nr := 0
		if m := partSuffixPattern.FindStringSubmatch(name); m != nil {
			base = m[1]
			for _, g := range m[2:] {
				if g != "" {
					nr, _ = strconv.Atoi(g)
					break
				}
			}
		}
		if _, seen := partsByBase[base]; !seen {
			order = append(order, base)
		}
		partsByBase[base] = append(partsByBase[base], part{path: p, nr: nr})
	}

	groups := make([]Group, 0, len(order))
	for _, base := range order {
		parts := partsByBase[base]
		sort.SliceStable(parts, func(a, b int) bool { return parts[a].nr < parts[b].nr })
		g := Group{Base: base}
		for _, p := range parts {
			g.Paths = append(g.Paths, p.path)
		}
		groups = append(groups, g)
	}
	return groups
}

// Merge combines a group's files into one PDF. Single-file groups are
// returned as-is; multi-file groups are merged into a temp file the caller
// owns and must remove.
func Merge(g Group) (path string, cleanup func(), err error) {
	if len(g.Paths) == 0 {
		return "", nil, fmt.Errorf("empty file group %q", g.Base)
	}
	if len(g.Paths) == 1 {
		return g.Paths[0], func() {}, nil
	}

	out, err := os.CreateTemp("", "statement-merged-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create merge target: %w", err)
	}
	outPath := out.Name()
	out.Close()

	if err := api.MergeCreateFile(g.Paths, outPath, false, nil); err != nil {
		os.Remove(outPath)
		return "", nil, fmt.Errorf("failed to merge %q parts: %w", g.Base, err)
	}
	return outPath, func() { os.Remove(outPath) }, nil
}
