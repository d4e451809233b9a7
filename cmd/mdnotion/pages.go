package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dgallion1/mdnotion/internal/notion"
	"github.com/spf13/cobra"
)

func newPagesCmd(opts *globalOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List pages the integration can use as a parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 || limit > 100 {
				return fmt.Errorf("--limit must be between 1 and 100")
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			client := notion.NewClient(cfg.NotionBaseURL, cfg.NotionAPIKey, cfg.NotionVersion)
			defer client.Close()

			pages, err := client.Search(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(pages)
			}
			if len(pages) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No pages are shared with this integration.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tURL")
			for _, p := range pages {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Title, p.URL)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum pages to list (1-100)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
