package parser

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dgallion1/mdnotion/internal/doctree"
)

// FencePolicy decides what happens to a code fence still open at end of input.
type FencePolicy string

const (
	// FenceDrop discards the buffered lines and records a document warning.
	FenceDrop FencePolicy = "drop"
	// FenceFlush emits the buffered lines as a code block.
	FenceFlush FencePolicy = "flush"
	// FenceError fails the parse with *UnterminatedFenceError.
	FenceError FencePolicy = "error"
)

// Options tunes the parsers. Fence and Cells apply to markdown input.
type Options struct {
	Fence FencePolicy
	Cells CellPolicy

	// PdftotextFallback lets the PDF parser shell out to pdftotext when the
	// built-in extractor fails.
	PdftotextFallback bool
}

// DefaultOptions drops unterminated fences, preserves empty table cells and
// allows the pdftotext fallback.
func DefaultOptions() Options {
	return Options{Fence: FenceDrop, Cells: CellsPreserve, PdftotextFallback: true}
}

func (o Options) withDefaults() Options {
	if o.Fence == "" {
		o.Fence = FenceDrop
	}
	if o.Cells == "" {
		o.Cells = CellsPreserve
	}
	return o
}

// ParseFencePolicy validates a policy name.
func ParseFencePolicy(s string) (FencePolicy, error) {
	switch p := FencePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FenceDrop, FenceFlush, FenceError:
		return p, nil
	case "":
		return FenceDrop, nil
	}
	return "", fmt.Errorf("unknown fence policy %q (want drop, flush or error)", s)
}

// ParseCellPolicy validates a policy name.
func ParseCellPolicy(s string) (CellPolicy, error) {
	switch p := CellPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case CellsPreserve, CellsCompact:
		return p, nil
	case "":
		return CellsPreserve, nil
	}
	return "", fmt.Errorf("unknown empty-cell policy %q (want preserve or compact)", s)
}

// UnterminatedFenceError reports a code fence that was never closed.
type UnterminatedFenceError struct {
	Line     int // 1-based line of the opening fence
	Language string
}

func (e *UnterminatedFenceError) Error() string {
	return fmt.Sprintf("unterminated code fence opened at line %d (%s)", e.Line, e.Language)
}

// MarkdownParser converts markdown into flat Notion-style blocks.
type MarkdownParser struct {
	Options Options
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc, err := ParseMarkdown(string(src), p.Options)
	if err != nil {
		return nil, err
	}
	if doc.Title == "" {
		doc.Title = ExtractTitle(src)
	}
	if doc.Title == "" {
		doc.Title = titleFromFilename(filename)
	}
	return doc, nil
}

// scanState is the per-call parse state. Nothing outlives one ParseMarkdown call.
type scanState struct {
	lines []string
	i     int
	opts  Options

	titleSeen bool
	title     string

	inFence   bool
	fenceLine int
	fenceLang string
	fenceBuf  []string

	blocks []doctree.Block
}

func (s *scanState) emit(b doctree.Block) {
	s.blocks = append(s.blocks, b)
}

// lineRule handles one line when it applies. It returns the number of lines
// consumed (at least one) or 0 when the rule does not match.
type lineRule struct {
	name  string
	apply func(s *scanState, line string) int
}

// lineRules are evaluated in order; the first rule that consumes wins.
var lineRules = []lineRule{
	{"title", ruleTitle},
	{"fence", ruleFenceDelimiter},
	{"fence-body", ruleFenceBody},
	{"table", ruleTable},
	{"heading", ruleHeading},
	{"divider", ruleDivider},
	{"bullet", ruleBullet},
	{"numbered", ruleNumbered},
	{"paragraph", ruleParagraph},
	{"blank", ruleBlank},
}

// ParseMarkdown runs the block parser over a whole document.
func ParseMarkdown(src string, opts Options) (*doctree.Document, error) {
	s := &scanState{
		lines: splitLines(src),
		opts:  opts.withDefaults(),
	}

	for s.i < len(s.lines) {
		s.i += s.step(s.lines[s.i])
	}

	doc := &doctree.Document{Title: s.title, Blocks: s.blocks}
	if s.inFence {
		switch s.opts.Fence {
		case FenceFlush:
			doc.Blocks = append(doc.Blocks, doctree.CodeBlock(s.fenceLang, strings.Join(s.fenceBuf, "\n")))
		case FenceError:
			return nil, &UnterminatedFenceError{Line: s.fenceLine, Language: s.fenceLang}
		default:
			doc.Warnings = append(doc.Warnings, fmt.Sprintf(
				"unterminated code fence at line %d: dropped %d line(s)", s.fenceLine, len(s.fenceBuf)))
		}
	}
	if doc.Blocks == nil {
		doc.Blocks = []doctree.Block{}
	}
	return doc, nil
}

func (s *scanState) step(line string) int {
	for _, rule := range lineRules {
		if n := rule.apply(s, line); n > 0 {
			return n
		}
	}
	return 1
}

// splitLines splits src into lines without their terminators. A final
// newline ends the last line rather than starting an empty one.
func splitLines(src string) []string {
	lines := strings.Split(strings.TrimSuffix(src, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func ruleTitle(s *scanState, line string) int {
	if s.titleSeen || s.inFence || !strings.HasPrefix(line, "# ") {
		return 0
	}
	s.titleSeen = true
	s.title = strings.TrimSpace(line[2:])
	return 1
}

func ruleFenceDelimiter(s *scanState, line string) int {
	if !strings.HasPrefix(line, "```") {
		return 0
	}
	if s.inFence {
		s.emit(doctree.CodeBlock(s.fenceLang, strings.Join(s.fenceBuf, "\n")))
		s.inFence = false
		s.fenceBuf = nil
		return 1
	}
	s.inFence = true
	s.fenceLine = s.i + 1
	s.fenceLang = strings.TrimSpace(line[3:])
	if s.fenceLang == "" {
		s.fenceLang = doctree.PlainTextLanguage
	}
	s.fenceBuf = []string{}
	return 1
}

func ruleFenceBody(s *scanState, line string) int {
	if !s.inFence {
		return 0
	}
	s.fenceBuf = append(s.fenceBuf, line)
	return 1
}

func ruleTable(s *scanState, line string) int {
	if !isTableStart(s.lines, s.i) {
		return 0
	}
	block, consumed, ok := parseTable(s.lines, s.i, s.opts.Cells)
	if !ok {
		return 0
	}
	s.emit(block)
	return consumed
}

var headingPrefixes = []struct {
	prefix string
	level  int
}{
	{"# ", 1},
	{"## ", 2},
	{"### ", 3},
}

func ruleHeading(s *scanState, line string) int {
	for _, h := range headingPrefixes {
		if strings.HasPrefix(line, h.prefix) {
			s.emit(doctree.Heading(h.level, FormatInline(line[len(h.prefix):])))
			return 1
		}
	}
	return 0
}

func ruleDivider(s *scanState, line string) int {
	if strings.TrimSpace(line) != "---" {
		return 0
	}
	s.emit(doctree.Divider())
	return 1
}

func ruleBullet(s *scanState, line string) int {
	rest, ok := cutListMarker(line, func(m string) bool { return m == "-" || m == "*" })
	if !ok {
		return 0
	}
	s.emit(doctree.BulletItem(FormatInline(rest)))
	return 1
}

func ruleNumbered(s *scanState, line string) int {
	rest, ok := cutListMarker(line, isOrdinal)
	if !ok {
		return 0
	}
	s.emit(doctree.NumberedItem(FormatInline(rest)))
	return 1
}

func ruleParagraph(s *scanState, line string) int {
	if strings.TrimSpace(line) == "" {
		return 0
	}
	s.emit(doctree.Paragraph(FormatInline(line)))
	return 1
}

func ruleBlank(*scanState, string) int {
	return 1
}

// cutListMarker strips leading whitespace, a marker accepted by valid, and the
// whitespace run after it. At least one whitespace character must follow the marker.
func cutListMarker(line string, valid func(marker string) bool) (string, bool) {
	body := strings.TrimLeftFunc(line, unicode.IsSpace)
	markerEnd := strings.IndexFunc(body, unicode.IsSpace)
	if markerEnd <= 0 || !valid(body[:markerEnd]) {
		return "", false
	}
	return strings.TrimLeftFunc(body[markerEnd:], unicode.IsSpace), true
}

// isOrdinal matches "12." style list markers.
func isOrdinal(marker string) bool {
	digits := strings.TrimSuffix(marker, ".")
	if digits == marker || digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
