package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/mdnotion/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Heading styles map to heading blocks,
// list styles to list items, everything else to paragraphs.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "mdnotion-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	d, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &doctree.Document{
		Title:  titleFromFilename(filename),
		Blocks: []doctree.Block{},
	}

	titled := false
	for _, item := range d.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		runs := []doctree.TextRun{{Content: text}}

		style := docxStyle(para)
		if level := docxHeadingLevel(style); level > 0 {
			if level == 1 && !titled {
				// The first Heading 1 names the page, like "# " in markdown.
				doc.Title = text
				titled = true
				continue
			}
			doc.Blocks = append(doc.Blocks, doctree.Heading(level, runs))
			continue
		}

		switch {
		case strings.EqualFold(style, "Title"):
			doc.Title = text
			titled = true
		case strings.Contains(strings.ToLower(style), "listnumber"), strings.Contains(strings.ToLower(style), "list number"):
			doc.Blocks = append(doc.Blocks, doctree.NumberedItem(runs))
		case strings.Contains(strings.ToLower(style), "list"):
			doc.Blocks = append(doc.Blocks, doctree.BulletItem(runs))
		default:
			doc.Blocks = append(doc.Blocks, doctree.Paragraph(runs))
		}
	}

	return doc, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func docxHeadingLevel(style string) int {
	s := strings.ReplaceAll(strings.ToLower(style), " ", "")
	switch s {
	case "heading1":
		return 1
	case "heading2":
		return 2
	case "heading3", "heading4", "heading5", "heading6":
		return 3
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
