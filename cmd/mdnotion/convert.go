package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgallion1/mdnotion/internal/chunker"
	"github.com/dgallion1/mdnotion/internal/doctree"
	"github.com/dgallion1/mdnotion/internal/notion"
	"github.com/dgallion1/mdnotion/internal/pipeline"
	"github.com/spf13/cobra"
)

type convertOutput struct {
	Title    string          `json:"title"`
	Warnings []string        `json:"warnings,omitempty"`
	Chunks   []convertedPart `json:"chunks"`
}

type convertedPart struct {
	Index    int             `json:"index"`
	Blocks   []doctree.Block `json:"blocks,omitempty"`
	Children []notion.Block  `json:"children,omitempty"`
}

func newConvertCmd(opts *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Print the blocks a document converts to, without uploading",
		Long: `Parse a document and print its title and blocks as JSON, grouped into
the chunks an upload would send.

Examples:
  mdnotion convert notes.md                  # parsed blocks
  mdnotion convert notes.md --format notion  # Notion API request bodies`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "blocks" && format != "notion" {
				return fmt.Errorf("invalid --format %q (want blocks or notion)", format)
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			parseOpts, err := cfg.ParserOptions()
			if err != nil {
				return err
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			conv, err := pipeline.Convert(path, data, parseOpts, pipeline.ChunkConfig(cfg))
			if err != nil {
				return err
			}

			out := convertOutput{
				Title:    conv.Document.Title,
				Warnings: conv.Document.Warnings,
				Chunks:   make([]convertedPart, 0, len(conv.Chunks)),
			}
			for _, c := range conv.Chunks {
				part := convertedPart{Index: c.Index}
				if format == "notion" {
					part.Children = notion.EncodeBlocks(c.Blocks)
				} else {
					part.Blocks = c.Blocks
				}
				out.Chunks = append(out.Chunks, part)
			}

			log := opts.logger(cmd.ErrOrStderr())
			log.Debug("converted", "file", path, "blocks", len(conv.Document.Blocks),
				"chunks", chunker.Sizes(conv.Chunks), "estimated_bytes", chunker.EstimateTotal(conv.Document.Blocks))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&format, "format", "blocks", "Output format: blocks or notion")
	return cmd
}
