package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/mdnotion/internal/chunker"
	"github.com/dgallion1/mdnotion/internal/notion"
	"github.com/dgallion1/mdnotion/internal/parser"
)

func newTestWorker(pages PageService, defaultParent string, maxBlocks int) *Worker {
	return NewWorker(pages, fastSender(), discardLogger(), parser.DefaultOptions(),
		chunker.Config{MaxBlocks: maxBlocks}, defaultParent)
}

func paragraphs(n int) []byte {
	var sb strings.Builder
	sb.WriteString("# Report\n")
	for i := range n {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	return []byte(sb.String())
}

func TestWorker_Completed(t *testing.T) {
	pages := &fakePages{}
	w := newTestWorker(pages, "parent-1", 2)
	job := NewJob("report.md", paragraphs(5), "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted || snap.Phase != "done" {
		t.Fatalf("expected completed job, got %q/%q errors=%v", snap.Status, snap.Phase, snap.Progress.Errors)
	}
	if len(pages.created) != 1 || pages.created[0] != (createCall{"parent-1", "Report"}) {
		t.Errorf("unexpected create calls: %+v", pages.created)
	}
	if snap.Title != "Report" {
		t.Errorf("expected title %q, got %q", "Report", snap.Title)
	}
	if snap.PageID != "page-1" || snap.PageURL == "" {
		t.Errorf("expected page recorded, got %q %q", snap.PageID, snap.PageURL)
	}
	if len(pages.appended) != 3 {
		t.Fatalf("expected 3 append calls, got %d", len(pages.appended))
	}
	p := snap.Progress
	if p.TotalBlocks != 5 || p.TotalChunks != 3 || p.ChunksSent != 3 || p.BlocksSent != 5 {
		t.Errorf("unexpected progress: %+v", p)
	}
	if job.FileData() != nil {
		t.Error("expected file data released after parsing")
	}
	if pages.searches != 0 {
		t.Errorf("expected no search with a configured parent, got %d", pages.searches)
	}
}

func TestWorker_TitleOverride(t *testing.T) {
	pages := &fakePages{}
	w := newTestWorker(pages, "parent-1", 100)
	job := NewJob("report.md", paragraphs(1), "explicit", "Custom")

	w.Process(context.Background(), job)

	if len(pages.created) != 1 || pages.created[0] != (createCall{"explicit", "Custom"}) {
		t.Errorf("unexpected create calls: %+v", pages.created)
	}
}

func TestWorker_ParentFromSearch(t *testing.T) {
	pages := &fakePages{searchResult: []notion.Page{{ID: "found", Title: "Inbox"}, {ID: "other"}}}
	w := newTestWorker(pages, "", 100)
	job := NewJob("notes.txt", []byte("hello"), "", "")

	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusCompleted {
		t.Fatalf("expected completed job, got %+v", job.Snapshot())
	}
	if pages.created[0].parentID != "found" {
		t.Errorf("expected first search result as parent, got %q", pages.created[0].parentID)
	}
}

func TestWorker_NoParent(t *testing.T) {
	pages := &fakePages{}
	w := newTestWorker(pages, "", 100)
	job := NewJob("notes.md", []byte("hello"), "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "creating_page" {
		t.Fatalf("expected failure while creating page, got %q/%q", snap.Status, snap.Phase)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "Connect to") {
		t.Errorf("expected sharing instructions in error, got %v", snap.Progress.Errors)
	}
	if len(pages.created) != 0 {
		t.Error("expected no page to be created")
	}
}

func TestWorker_UnsupportedFile(t *testing.T) {
	pages := &fakePages{}
	w := newTestWorker(pages, "parent", 100)
	job := NewJob("image.png", []byte{0x89}, "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parsing" {
		t.Errorf("expected parse failure, got %q/%q", snap.Status, snap.Phase)
	}
	if len(pages.created) != 0 {
		t.Error("expected no page to be created")
	}
}

func TestWorker_CreatePageFails(t *testing.T) {
	pages := &fakePages{createErr: &notion.APIError{StatusCode: 404, Code: "object_not_found", Message: "missing"}}
	w := newTestWorker(pages, "parent", 100)
	job := NewJob("a.md", []byte("text"), "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed job, got %q", snap.Status)
	}
	if snap.PageID != "" {
		t.Errorf("expected no page id, got %q", snap.PageID)
	}
}

func TestWorker_PartialUpload(t *testing.T) {
	pages := &fakePages{appendErrs: []error{nil, errors.New("bad block")}}
	w := newTestWorker(pages, "parent", 2)
	job := NewJob("report.md", paragraphs(6), "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial job, got %q", snap.Status)
	}
	if snap.PageID == "" {
		t.Error("expected page id to be kept for partial upload")
	}
	if snap.Progress.ChunksSent != 1 || snap.Progress.BlocksSent != 2 {
		t.Errorf("unexpected progress: %+v", snap.Progress)
	}
	if len(pages.appended) != 1 {
		t.Errorf("expected no appends after the failed chunk, got %d", len(pages.appended))
	}
}

func TestWorker_RecordsWarnings(t *testing.T) {
	pages := &fakePages{}
	w := newTestWorker(pages, "parent", 100)
	job := NewJob("a.md", []byte("text\n```go\nx := 1\n"), "", "")

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed job, got %q", snap.Status)
	}
	if len(snap.Progress.Warnings) != 1 {
		t.Errorf("expected unterminated fence warning, got %v", snap.Progress.Warnings)
	}
}
