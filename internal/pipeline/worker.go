package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/mdnotion/internal/chunker"
	"github.com/dgallion1/mdnotion/internal/doctree"
	"github.com/dgallion1/mdnotion/internal/notion"
	"github.com/dgallion1/mdnotion/internal/parser"
)

// PageService is the part of the Notion API the upload pipeline needs.
type PageService interface {
	Searcher
	CreatePage(ctx context.Context, parentID, title string) (*notion.Page, error)
	AppendBlocks(ctx context.Context, pageID string, blocks []doctree.Block) error
}

// Worker processes a single upload job.
type Worker struct {
	pages         PageService
	sender        *Sender
	log           *slog.Logger
	parseOpts     parser.Options
	chunkCfg      chunker.Config
	defaultParent string
}

func NewWorker(pages PageService, sender *Sender, log *slog.Logger, parseOpts parser.Options, chunkCfg chunker.Config, defaultParent string) *Worker {
	return &Worker{
		pages:         pages,
		sender:        sender,
		log:           log,
		parseOpts:     parseOpts,
		chunkCfg:      chunkCfg,
		defaultParent: defaultParent,
	}
}

// Process runs the full upload pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	conv, err := Convert(job.Filename, job.FileData(), w.parseOpts, w.chunkCfg)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.releaseFileData()

	doc := conv.Document
	for _, warning := range doc.Warnings {
		log.Warn("parse warning", "warning", warning)
		job.AddWarning(warning)
	}
	title := doc.Title
	if job.Title != "" {
		title = job.Title
	}
	job.SetTitle(title)

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	job.SetPlan(len(doc.Blocks), len(conv.Chunks))
	log.Info("chunked document", "blocks", len(doc.Blocks), "chunks", len(conv.Chunks), "sizes", chunker.Sizes(conv.Chunks))

	// Phase 3: Create the page
	job.SetStatus(StatusCreatingPage, "creating_page")
	parentID, candidates, err := ResolveParent(ctx, job.ParentID, w.defaultParent, w.pages)
	if err != nil {
		log.Error("no parent page", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "creating_page")
		return
	}
	if len(candidates) > 0 {
		log.Info("using first accessible page as parent", "parent_id", parentID, "title", candidates[0].Title)
	}

	page, err := w.pages.CreatePage(ctx, parentID, title)
	if err != nil {
		log.Error("create page failed", "parent_id", parentID, "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "creating_page")
		return
	}
	job.SetPage(page.ID, page.URL)
	log.Info("page created", "page_id", page.ID, "url", page.URL)

	// Phase 4: Append chunks in order
	job.SetStatus(StatusUploading, "uploading")
	sent, err := w.sender.Send(ctx, conv.Chunks, func(ctx context.Context, c doctree.Chunk) error {
		if err := w.pages.AppendBlocks(ctx, page.ID, c.Blocks); err != nil {
			return err
		}
		job.RecordChunkSent(len(c.Blocks))
		return nil
	})
	if err != nil {
		// The page exists but holds only the chunks before the failure.
		log.Error("upload failed", "chunks_sent", sent, "chunks_total", len(conv.Chunks), "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusPartial, "uploading")
		return
	}

	log.Info("upload complete", "chunks", sent, "url", page.URL)
	job.SetStatus(StatusCompleted, "done")
}
