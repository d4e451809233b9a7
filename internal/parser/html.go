package parser

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dgallion1/mdnotion/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files, mapping block elements onto the flat block
// model and inline emphasis tags onto run styles.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &doctree.Document{
		Title:  titleFromFilename(filename),
		Blocks: []doctree.Block{},
	}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if runs := inlineRuns(n); len(runs) > 0 {
					doc.Blocks = append(doc.Blocks, doctree.Heading(level, runs))
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "p", "blockquote":
				if runs := inlineRuns(n); len(runs) > 0 {
					doc.Blocks = append(doc.Blocks, doctree.Paragraph(runs))
				}
				return
			case "ul", "ol":
				doc.Blocks = append(doc.Blocks, listBlocks(n)...)
				return
			case "pre":
				doc.Blocks = append(doc.Blocks, doctree.CodeBlock(codeLanguage(n), strings.TrimSuffix(textContent(n), "\n")))
				return
			case "hr":
				doc.Blocks = append(doc.Blocks, doctree.Divider())
				return
			case "table":
				if b, ok := tableBlock(n); ok {
					doc.Blocks = append(doc.Blocks, b)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findBody(root)
	if body != nil {
		walk(body)
	} else {
		walk(root)
	}

	return doc, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3", "h4", "h5", "h6":
		return 3
	}
	return 0
}

// listBlocks flattens a list into items; nested lists follow their parent item.
func listBlocks(list *html.Node) []doctree.Block {
	var out []doctree.Block
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		if runs := inlineRuns(li); len(runs) > 0 {
			if list.Data == "ol" {
				out = append(out, doctree.NumberedItem(runs))
			} else {
				out = append(out, doctree.BulletItem(runs))
			}
		}
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				out = append(out, listBlocks(c)...)
			}
		}
	}
	return out
}

func tableBlock(table *html.Node) (doctree.Block, bool) {
	var rows []doctree.Row
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead", "tbody", "tfoot":
				collect(c)
			case "tr":
				var row doctree.Row
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						runs := inlineRuns(cell)
						if len(runs) == 0 {
							runs = []doctree.TextRun{{Content: ""}}
						}
						row = append(row, doctree.Cell(runs))
					}
				}
				rows = append(rows, row)
			}
		}
	}
	collect(table)

	if len(rows) == 0 || len(rows[0]) == 0 {
		return doctree.Block{}, false
	}
	return doctree.NewTable(rows[0], rows[1:]), true
}

func codeLanguage(pre *html.Node) string {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "code" {
			continue
		}
		for _, a := range c.Attr {
			if a.Key != "class" {
				continue
			}
			for _, cls := range strings.Fields(a.Val) {
				if lang, ok := strings.CutPrefix(cls, "language-"); ok {
					return lang
				}
			}
		}
	}
	return doctree.PlainTextLanguage
}

// inlineRuns collects the styled text under n. Nested lists are skipped; they
// are emitted as their own blocks.
func inlineRuns(n *html.Node) []doctree.TextRun {
	var runs []doctree.TextRun
	var visit func(*html.Node, doctree.Style)
	visit = func(n *html.Node, style doctree.Style) {
		switch n.Type {
		case html.TextNode:
			if t := collapseSpace(n.Data); t != "" {
				runs = appendRun(runs, doctree.TextRun{Content: t, Style: style})
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "ul", "ol", "script", "style":
				return
			case "br":
				runs = appendRun(runs, doctree.TextRun{Content: "\n", Style: style})
				return
			case "strong", "b":
				style.Bold = true
			case "em", "i":
				style.Italic = true
			case "code", "kbd", "samp":
				style.Code = true
			case "s", "del", "strike":
				style.Strikethrough = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, style)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c, doctree.Style{})
	}
	return trimRuns(runs)
}

// appendRun merges r into the previous run when the styles match.
func appendRun(runs []doctree.TextRun, r doctree.TextRun) []doctree.TextRun {
	if n := len(runs); n > 0 && runs[n-1].Style == r.Style {
		runs[n-1].Content += r.Content
		return runs
	}
	return append(runs, r)
}

func trimRuns(runs []doctree.TextRun) []doctree.TextRun {
	for len(runs) > 0 {
		runs[0].Content = strings.TrimLeftFunc(runs[0].Content, unicode.IsSpace)
		if runs[0].Content != "" {
			break
		}
		runs = runs[1:]
	}
	for len(runs) > 0 {
		last := len(runs) - 1
		runs[last].Content = strings.TrimRightFunc(runs[last].Content, unicode.IsSpace)
		if runs[last].Content != "" {
			break
		}
		runs = runs[:last]
	}
	return runs
}

// collapseSpace folds every whitespace run into one space, keeping a single
// space at either edge so adjacent inline elements stay separated.
func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
