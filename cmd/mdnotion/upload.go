package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgallion1/mdnotion/internal/doctree"
	"github.com/dgallion1/mdnotion/internal/notion"
	"github.com/dgallion1/mdnotion/internal/pipeline"
	"github.com/spf13/cobra"
)

func newUploadCmd(opts *globalOptions) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "upload <file> [parent-page-id]",
		Short: "Upload a document as a new Notion page",
		Long: `Convert a document and upload it as a new child page.

The parent page is the argument if given, else NOTION_PARENT_PAGE_ID, else the
first page shared with the integration.

Examples:
  mdnotion upload notes.md
  mdnotion upload notes.md 1f2e3d4c5b6a79881f2e3d4c5b6a7988
  mdnotion upload report.csv --title "Q3 numbers"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			parseOpts, err := cfg.ParserOptions()
			if err != nil {
				return err
			}
			log := opts.logger(cmd.ErrOrStderr())
			stderr := cmd.ErrOrStderr()

			path := args[0]
			var parentArg string
			if len(args) == 2 {
				parentArg = args[1]
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			conv, err := pipeline.Convert(path, data, parseOpts, pipeline.ChunkConfig(cfg))
			if err != nil {
				return err
			}
			doc := conv.Document
			for _, w := range doc.Warnings {
				fmt.Fprintln(stderr, "warning:", w)
			}
			pageTitle := doc.Title
			if title != "" {
				pageTitle = title
			}
			fmt.Fprintf(stderr, "Parsed %q: %d blocks in %d chunk(s)\n", pageTitle, len(doc.Blocks), len(conv.Chunks))

			client := notion.NewClient(cfg.NotionBaseURL, cfg.NotionAPIKey, cfg.NotionVersion)
			defer client.Close()

			ctx := cmd.Context()
			parentID, candidates, err := pipeline.ResolveParent(ctx, parentArg, cfg.ParentPageID, client)
			if err != nil {
				return err
			}
			if len(candidates) > 0 {
				fmt.Fprintln(stderr, "No parent given; pages shared with this integration:")
				for _, p := range candidates {
					fmt.Fprintf(stderr, "  %s  %s\n", p.ID, p.Title)
				}
				fmt.Fprintf(stderr, "Using %q as the parent page\n", candidates[0].Title)
			}

			page, err := client.CreatePage(ctx, parentID, pageTitle)
			if err != nil {
				return err
			}
			fmt.Fprintf(stderr, "Created page %s\n", page.ID)

			sender := pipeline.NewSender(cfg.ChunkDelay, log)
			sent, err := sender.Send(ctx, conv.Chunks, func(ctx context.Context, c doctree.Chunk) error {
				if err := client.AppendBlocks(ctx, page.ID, c.Blocks); err != nil {
					return err
				}
				fmt.Fprintf(stderr, "Uploaded chunk %d/%d (%d blocks)\n", c.Index+1, len(conv.Chunks), len(c.Blocks))
				return nil
			})
			if err != nil {
				fmt.Fprintf(stderr, "Upload stopped after %d of %d chunk(s); the page is incomplete: %s\n",
					sent, len(conv.Chunks), page.URL)
				var apiErr *notion.APIError
				if errors.As(err, &apiErr) && apiErr.Code == "validation_error" {
					fmt.Fprintln(stderr, "Notion rejected a block; run `mdnotion convert --format notion` to inspect the payload.")
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), page.URL)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Page title (default: first heading or file name)")
	return cmd
}
