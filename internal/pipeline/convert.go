package pipeline

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/mdnotion/internal/chunker"
	"github.com/dgallion1/mdnotion/internal/doctree"
	"github.com/dgallion1/mdnotion/internal/parser"
)

// Conversion is a parsed document together with its upload plan.
type Conversion struct {
	Document *doctree.Document
	Chunks   []doctree.Chunk
}

// Convert parses data with the parser chosen by filename and chunks the result.
func Convert(filename string, data []byte, opts parser.Options, chunkCfg chunker.Config) (*Conversion, error) {
	p, err := parser.ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if doc.Title == "" {
		doc.Title = "Untitled"
	}
	return &Conversion{
		Document: doc,
		Chunks:   chunker.ChunkDocument(doc, chunkCfg),
	}, nil
}
