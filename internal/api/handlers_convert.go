package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/mdnotion/internal/chunker"
	"github.com/dgallion1/mdnotion/internal/doctree"
	"github.com/dgallion1/mdnotion/internal/notion"
	"github.com/dgallion1/mdnotion/internal/parser"
	"github.com/dgallion1/mdnotion/internal/pipeline"
)

type convertedChunk struct {
	Index    int             `json:"index"`
	Size     int             `json:"size"`
	Bytes    int             `json:"estimated_bytes"`
	Blocks   []doctree.Block `json:"blocks,omitempty"`
	Children []notion.Block  `json:"children,omitempty"`
}

// handleConvert parses a document and returns its blocks and chunk layout
// without touching Notion. The document is either a multipart "file" field
// or the raw request body named by the "filename" query parameter.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	format := r.URL.Query().Get("format")
	if format != "" && format != "blocks" && format != "notion" {
		jsonError(w, fmt.Sprintf("unknown format %q (want blocks or notion)", format), http.StatusBadRequest)
		return
	}

	filename, data, err := s.readDocument(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	conv, err := pipeline.Convert(filename, data, s.orchestrator.ParserOptions(), s.orchestrator.ChunkConfig())
	if err != nil {
		var fenceErr *parser.UnterminatedFenceError
		if errors.As(err, &fenceErr) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	chunks := make([]convertedChunk, 0, len(conv.Chunks))
	for _, c := range conv.Chunks {
		out := convertedChunk{
			Index: c.Index,
			Size:  len(c.Blocks),
			Bytes: chunker.EstimateTotal(c.Blocks),
		}
		if format == "notion" {
			out.Children = notion.EncodeBlocks(c.Blocks)
		} else {
			out.Blocks = c.Blocks
		}
		chunks = append(chunks, out)
	}

	doc := conv.Document
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename":     filename,
		"title":        doc.Title,
		"total_blocks": len(doc.Blocks),
		"warnings":     nonNil(doc.Warnings),
		"chunks":       chunks,
	})
}

func (s *Server) readDocument(r *http.Request) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return "", nil, fmt.Errorf("invalid multipart form: %w", err)
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("file is required: %w", err)
		}
		defer file.Close()
		data, err := readLimited(file, s.cfg.MaxUploadBytes)
		return sanitizeFilename(header.Filename), data, err
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "document.md"
	}
	data, err := readLimited(r.Body, s.cfg.MaxUploadBytes)
	return sanitizeFilename(filename), data, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
