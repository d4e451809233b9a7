package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/mdnotion/internal/doctree"
)

// TextParser handles plain text files. Each blank-line separated paragraph
// becomes one unformatted paragraph block; markup is not interpreted.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &doctree.Document{
		Title:  titleFromFilename(filename),
		Blocks: paragraphBlocks(string(src)),
	}, nil
}

// paragraphBlocks splits text on blank or whitespace-only lines. Lines inside
// a paragraph keep their line breaks.
func paragraphBlocks(text string) []doctree.Block {
	blocks := []doctree.Block{}
	var para []string
	flush := func() {
		if s := strings.TrimSpace(strings.Join(para, "\n")); s != "" {
			blocks = append(blocks, doctree.Paragraph([]doctree.TextRun{{Content: s}}))
		}
		para = para[:0]
	}
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		para = append(para, strings.TrimRight(line, " \t"))
	}
	flush()
	return blocks
}
