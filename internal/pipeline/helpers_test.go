package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/mdnotion/internal/doctree"
	"github.com/dgallion1/mdnotion/internal/notion"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastSender returns a Sender with no pacing and no retry wait.
func fastSender() *Sender {
	s := NewSender(0, discardLogger())
	s.delay = func(error, int) time.Duration { return 0 }
	return s
}

func makeChunks(sizes ...int) []doctree.Chunk {
	var chunks []doctree.Chunk
	for i, n := range sizes {
		blocks := make([]doctree.Block, n)
		for j := range blocks {
			blocks[j] = doctree.Paragraph([]doctree.TextRun{{Content: fmt.Sprintf("c%d-b%d", i, j)}})
		}
		chunks = append(chunks, doctree.Chunk{Index: i, Blocks: blocks})
	}
	return chunks
}

// fakePages is an in-memory PageService.
type fakePages struct {
	mu sync.Mutex

	searchResult []notion.Page
	searchErr    error
	createErr    error
	// appendErrs are returned by successive AppendBlocks calls; nil entries succeed.
	appendErrs []error

	created  []createCall
	appended [][]doctree.Block
	searches int
}

type createCall struct {
	parentID, title string
}

func (f *fakePages) Search(ctx context.Context, pageSize int) ([]notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	return f.searchResult, f.searchErr
}

func (f *fakePages) CreatePage(ctx context.Context, parentID, title string) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, createCall{parentID, title})
	return &notion.Page{ID: "page-1", URL: "https://www.notion.so/page-1", Title: title}, nil
}

func (f *fakePages) AppendBlocks(ctx context.Context, pageID string, blocks []doctree.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.appendErrs) > 0 {
		err := f.appendErrs[0]
		f.appendErrs = f.appendErrs[1:]
		if err != nil {
			return err
		}
	}
	f.appended = append(f.appended, blocks)
	return nil
}

var errBadRequest = errors.New("validation failed")

func rateLimited() error {
	return &notion.RetryableError{StatusCode: 429, Message: "slow down"}
}
