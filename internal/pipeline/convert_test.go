package pipeline

import (
	"testing"

	"github.com/dgallion1/mdnotion/internal/chunker"
	"github.com/dgallion1/mdnotion/internal/parser"
)

func TestConvert_Markdown(t *testing.T) {
	conv, err := Convert("doc.md", paragraphs(250), parser.DefaultOptions(), chunker.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Document.Title != "Report" {
		t.Errorf("expected title %q, got %q", "Report", conv.Document.Title)
	}
	sizes := chunker.Sizes(conv.Chunks)
	if len(sizes) != 3 || sizes[0] != 100 || sizes[1] != 100 || sizes[2] != 50 {
		t.Errorf("expected chunk sizes [100 100 50], got %v", sizes)
	}
}

func TestConvert_UntitledFallback(t *testing.T) {
	conv, err := Convert(".md", []byte("body"), parser.DefaultOptions(), chunker.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Document.Title != "Untitled" {
		t.Errorf("expected %q, got %q", "Untitled", conv.Document.Title)
	}
}

func TestConvert_Errors(t *testing.T) {
	if _, err := Convert("a.png", nil, parser.DefaultOptions(), chunker.DefaultConfig()); err == nil {
		t.Error("expected error for unsupported extension")
	}
	opts := parser.Options{Fence: parser.FenceError}
	if _, err := Convert("a.md", []byte("```\ncode"), opts, chunker.DefaultConfig()); err == nil {
		t.Error("expected error for unterminated fence")
	}
}
