package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/mdnotion/internal/config"
	"github.com/spf13/cobra"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	fence      string
	emptyCells string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "mdnotion",
		Short: "Convert markdown and other documents into Notion pages",
		Long: `mdnotion parses a document into Notion blocks, splits them into
requests of at most 100 blocks, and appends them to a new Notion page.

Supported inputs: .md .markdown .txt .csv .html .htm .docx .pdf

The Notion integration token is read from NOTION_API_KEY or from
~/.config/notion/api_key. Settings may also live in
$XDG_CONFIG_HOME/mdnotion/config.toml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/mdnotion/config.toml)")
	flags.StringVar(&opts.fence, "fence", "", "Unterminated code fence handling: drop, flush, or error")
	flags.StringVar(&opts.emptyCells, "empty-cells", "", "Empty table cell handling: preserve or compact")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newUploadCmd(opts),
		newConvertCmd(opts),
		newPagesCmd(opts),
	)
	return root
}

// load reads the configuration and applies flag overrides.
func (o *globalOptions) load() (config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("MDNOTION_CONFIG")
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return cfg, err
	}
	if o.fence != "" {
		cfg.FencePolicy = o.fence
	}
	if o.emptyCells != "" {
		cfg.EmptyCells = o.emptyCells
	}
	return cfg, nil
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
