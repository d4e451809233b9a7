package notion

import (
	"encoding/json"

	"github.com/dgallion1/mdnotion/internal/doctree"
)

// MaxTextLength is the most characters one rich text object may hold.
const MaxTextLength = 2000

// RichText is a Notion rich text object of type "text".
type RichText struct {
	Type        string         `json:"type"`
	Text        TextContent    `json:"text"`
	Annotations *doctree.Style `json:"annotations,omitempty"`
}

type TextContent struct {
	Content string `json:"content"`
}

// Block is a Notion block object. It marshals as
// {"object":"block","type":T,T:Payload}.
type Block struct {
	Type    string
	Payload any
}

func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"object": "block",
		"type":   b.Type,
		b.Type:   b.Payload,
	})
}

type textPayload struct {
	RichText []RichText `json:"rich_text"`
}

type codePayload struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

type tablePayload struct {
	TableWidth      int     `json:"table_width"`
	HasColumnHeader bool    `json:"has_column_header"`
	HasRowHeader    bool    `json:"has_row_header"`
	Children        []Block `json:"children"`
}

type tableRowPayload struct {
	Cells [][]RichText `json:"cells"`
}

// EncodeBlocks converts document blocks into Notion block objects.
func EncodeBlocks(blocks []doctree.Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, EncodeBlock(b))
	}
	return out
}

// EncodeBlock converts one document block.
func EncodeBlock(b doctree.Block) Block {
	switch b.Kind {
	case doctree.KindDivider:
		return Block{Type: string(b.Kind), Payload: struct{}{}}
	case doctree.KindCode:
		return Block{Type: string(b.Kind), Payload: codePayload{
			RichText: EncodeRuns([]doctree.TextRun{{Content: b.Code}}),
			Language: NormalizeLanguage(b.Language),
		}}
	case doctree.KindTable:
		return encodeTable(b.Table)
	default:
		return Block{Type: string(b.Kind), Payload: textPayload{RichText: EncodeRuns(b.Runs)}}
	}
}

func encodeTable(t *doctree.Table) Block {
	p := tablePayload{HasColumnHeader: true}
	if t != nil {
		p.TableWidth = t.Width
		p.Children = make([]Block, 0, len(t.Rows))
		for _, row := range t.Rows {
			cells := make([][]RichText, 0, len(row))
			for _, cell := range row {
				cells = append(cells, EncodeRuns(cell))
			}
			p.Children = append(p.Children, Block{Type: "table_row", Payload: tableRowPayload{Cells: cells}})
		}
	}
	return Block{Type: string(doctree.KindTable), Payload: p}
}

// EncodeRuns converts runs into rich text. Annotations are attached only to
// styled runs; content longer than MaxTextLength is split across objects
// that share the run's style.
func EncodeRuns(runs []doctree.TextRun) []RichText {
	out := make([]RichText, 0, len(runs))
	for _, r := range runs {
		var ann *doctree.Style
		if !r.Style.IsPlain() {
			style := r.Style
			ann = &style
		}
		for _, part := range splitText(r.Content, MaxTextLength) {
			out = append(out, RichText{Type: "text", Text: TextContent{Content: part}, Annotations: ann})
		}
	}
	return out
}

// splitText cuts s into pieces of at most max characters without splitting a rune.
// The empty string yields a single empty piece.
func splitText(s string, max int) []string {
	runes := []rune(s)
	if len(runes) <= max {
		return []string{s}
	}
	var parts []string
	for len(runes) > 0 {
		n := min(max, len(runes))
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}
