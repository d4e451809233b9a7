package doctree

import "strings"

// Kind identifies the variant of a Block. Values match the Notion block type names.
type Kind string

const (
	KindHeading1     Kind = "heading_1"
	KindHeading2     Kind = "heading_2"
	KindHeading3     Kind = "heading_3"
	KindParagraph    Kind = "paragraph"
	KindBulletItem   Kind = "bulleted_list_item"
	KindNumberedItem Kind = "numbered_list_item"
	KindDivider      Kind = "divider"
	KindCode         Kind = "code"
	KindTable        Kind = "table"
)

// PlainTextLanguage is the code language used when a fence names none.
const PlainTextLanguage = "plain text"

// Style is a set of independent inline formatting flags.
type Style struct {
	Bold          bool `json:"bold,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Code          bool `json:"code,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
}

// IsPlain reports whether no flag is set.
func (s Style) IsPlain() bool {
	return s == Style{}
}

// TextRun is a span of text sharing one Style.
type TextRun struct {
	Content string `json:"content"`
	Style   Style  `json:"style"`
}

// Cell is one table cell.
type Cell []TextRun

// Row is one table row. Row 0 of a Table is the header.
type Row []Cell

// Table is the payload of a KindTable block.
type Table struct {
	Width int   `json:"width"`
	Rows  []Row `json:"rows"`
}

// Block is a single flat document block. Which fields are populated depends on Kind:
// headings, paragraphs and list items use Runs; code blocks use Language and Code;
// tables use Table; dividers carry nothing.
type Block struct {
	Kind     Kind      `json:"kind"`
	Runs     []TextRun `json:"rich_text,omitempty"`
	Language string    `json:"language,omitempty"`
	Code     string    `json:"code,omitempty"`
	Table    *Table    `json:"table,omitempty"`
}

// Document is the parsed form of one input file.
type Document struct {
	Title    string   `json:"title"`
	Blocks   []Block  `json:"blocks"`
	Warnings []string `json:"warnings,omitempty"`
}

// Chunk is an ordered slice of a Document's blocks, sent to the API as one request.
type Chunk struct {
	Index  int     `json:"index"`
	Blocks []Block `json:"blocks"`
}

// Heading returns a heading block. Levels outside 1-3 are clamped.
func Heading(level int, runs []TextRun) Block {
	kind := KindHeading1
	switch {
	case level == 2:
		kind = KindHeading2
	case level >= 3:
		kind = KindHeading3
	}
	return Block{Kind: kind, Runs: runs}
}

func Paragraph(runs []TextRun) Block {
	return Block{Kind: KindParagraph, Runs: runs}
}

func BulletItem(runs []TextRun) Block {
	return Block{Kind: KindBulletItem, Runs: runs}
}

func NumberedItem(runs []TextRun) Block {
	return Block{Kind: KindNumberedItem, Runs: runs}
}

func Divider() Block {
	return Block{Kind: KindDivider}
}

// CodeBlock returns a code block. An empty language becomes PlainTextLanguage.
func CodeBlock(language, content string) Block {
	if strings.TrimSpace(language) == "" {
		language = PlainTextLanguage
	}
	return Block{Kind: KindCode, Language: language, Code: content}
}

// NewTable builds a table block whose width is the header length. Every data row
// is right-padded with empty cells or truncated so it has exactly width cells.
func NewTable(header Row, rows []Row) Block {
	width := len(header)
	out := make([]Row, 0, len(rows)+1)
	out = append(out, header)
	for _, r := range rows {
		fitted := make(Row, width)
		copy(fitted, r)
		for i := len(r); i < width; i++ {
			fitted[i] = Cell{{Content: ""}}
		}
		out = append(out, fitted)
	}
	return Block{Kind: KindTable, Table: &Table{Width: width, Rows: out}}
}

// HasText reports whether the block kind carries inline runs.
func (b Block) HasText() bool {
	switch b.Kind {
	case KindHeading1, KindHeading2, KindHeading3, KindParagraph, KindBulletItem, KindNumberedItem:
		return true
	}
	return false
}

// PlainText concatenates run contents, dropping all styling.
func PlainText(runs []TextRun) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Content)
	}
	return sb.String()
}
