package parser

import (
	"strings"

	"github.com/dgallion1/mdnotion/internal/doctree"
)

// CellPolicy controls how empty table cells are treated.
type CellPolicy string

const (
	// CellsPreserve keeps empty cells in their column; only the edge pipes
	// are stripped before splitting.
	CellsPreserve CellPolicy = "preserve"
	// CellsCompact drops every empty cell, so empty values shift left.
	CellsCompact CellPolicy = "compact"
)

// isTableStart reports whether lines[i] opens a pipe table: it starts with a
// pipe and the following line is a separator row.
func isTableStart(lines []string, i int) bool {
	if !strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
		return false
	}
	return i+1 < len(lines) && isSeparatorRow(lines[i+1])
}

// isSeparatorRow matches rows like "| --- | :-: |": pipes at both ends and
// nothing but pipes, hyphens, colons and whitespace in between.
func isSeparatorRow(line string) bool {
	s := strings.TrimSpace(line)
	if len(s) < 3 || s[0] != '|' || s[len(s)-1] != '|' {
		return false
	}
	for _, r := range s {
		switch r {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// parseTable collects the contiguous pipe lines starting at start and builds
// a table block. It declines (ok=false) when fewer than two lines were
// collected or the header has no cells. consumed counts every collected line,
// the discarded separator included.
func parseTable(lines []string, start int, policy CellPolicy) (block doctree.Block, consumed int, ok bool) {
	end := start
	for end < len(lines) && strings.Contains(lines[end], "|") {
		end++
	}
	tableLines := lines[start:end]
	if len(tableLines) < 2 {
		return doctree.Block{}, 0, false
	}

	headerCells := splitCells(tableLines[0], policy)
	if len(headerCells) == 0 {
		return doctree.Block{}, 0, false
	}

	header := formatCells(headerCells)
	// tableLines[1] is the separator; alignment hints are not carried.
	rows := make([]doctree.Row, 0, len(tableLines)-2)
	for _, line := range tableLines[2:] {
		rows = append(rows, formatCells(splitCells(line, policy)))
	}

	return doctree.NewTable(header, rows), len(tableLines), true
}

func splitCells(line string, policy CellPolicy) []string {
	if policy == CellsCompact {
		var cells []string
		for _, c := range strings.Split(line, "|") {
			c = strings.TrimSpace(c)
			if c != "" {
				cells = append(cells, c)
			}
		}
		return cells
	}

	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	cells := make([]string, len(parts))
	for i, c := range parts {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func formatCells(cells []string) doctree.Row {
	row := make(doctree.Row, len(cells))
	for i, c := range cells {
		row[i] = doctree.Cell(FormatInline(c))
	}
	return row
}
