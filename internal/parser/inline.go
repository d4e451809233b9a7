package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/mdnotion/internal/doctree"
)

// inlineMarker is one delimiter pair recognized by FormatInline.
type inlineMarker struct {
	delim string
	style doctree.Style
}

// inlineMarkers is ordered by precedence: when several markers open at the
// same position, the first one that closes wins.
var inlineMarkers = []inlineMarker{
	{delim: "**", style: doctree.Style{Bold: true}},
	{delim: "*", style: doctree.Style{Italic: true}},
	{delim: "`", style: doctree.Style{Code: true}},
	{delim: "~~", style: doctree.Style{Strikethrough: true}},
}

// FormatInline splits a line into styled runs. Matching is left to right,
// shortest span, and never nested: markers inside a matched span stay literal.
// A line without any complete marker pair comes back as one plain run.
func FormatInline(line string) []doctree.TextRun {
	var runs []doctree.TextRun
	plainStart := 0

	for pos := 0; pos < len(line); {
		style, content, end, ok := matchInline(line, pos)
		if !ok {
			pos++
			continue
		}
		if pos > plainStart {
			runs = append(runs, doctree.TextRun{Content: line[plainStart:pos]})
		}
		runs = append(runs, doctree.TextRun{Content: content, Style: style})
		pos = end
		plainStart = end
	}

	if len(runs) == 0 {
		return []doctree.TextRun{{Content: line}}
	}
	if plainStart < len(line) {
		runs = append(runs, doctree.TextRun{Content: line[plainStart:]})
	}
	return runs
}

// matchInline tries every marker at pos in precedence order. The span between
// the delimiters must hold at least one character and no line break.
func matchInline(line string, pos int) (doctree.Style, string, int, bool) {
	rest := line[pos:]
	for _, m := range inlineMarkers {
		if !strings.HasPrefix(rest, m.delim) {
			continue
		}
		open := pos + len(m.delim)
		if open >= len(line) {
			continue
		}
		_, size := utf8.DecodeRuneInString(line[open:])
		idx := strings.Index(line[open+size:], m.delim)
		if idx < 0 {
			continue
		}
		closeAt := open + size + idx
		content := line[open:closeAt]
		if strings.ContainsAny(content, "\r\n") {
			continue
		}
		return m.style, content, closeAt + len(m.delim), true
	}
	return doctree.Style{}, "", 0, false
}
