package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/mdnotion/internal/parser"
	"github.com/pelletier/go-toml/v2"
)

// maxChunkBlocks is the Notion limit on children per append request.
const maxChunkBlocks = 100

type Config struct {
	Port string

	// Notion connection
	NotionAPIKey     string
	NotionAPIKeyFile string
	NotionBaseURL    string
	NotionVersion    string
	ParentPageID     string

	// Auth
	ServerAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Chunking
	ChunkMaxBlocks int
	ChunkMaxBytes  int
	ChunkDelay     time.Duration

	// Markdown parsing
	FencePolicy string
	EmptyCells  string

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Source is the config file that was read, empty when none was found.
	Source string
}

// fileConfig mirrors the TOML file. Pointer fields distinguish unset keys
// from zero values.
type fileConfig struct {
	Port             *string `toml:"port"`
	NotionAPIKey     *string `toml:"notion_api_key"`
	NotionAPIKeyFile *string `toml:"notion_api_key_file"`
	NotionBaseURL    *string `toml:"notion_base_url"`
	NotionVersion    *string `toml:"notion_version"`
	ParentPageID     *string `toml:"parent_page_id"`
	ServerAPIKey     *string `toml:"server_api_key"`
	WorkerCount      *int    `toml:"worker_count"`
	MaxQueueSize     *int    `toml:"max_queue_size"`
	MaxUploadBytes   *int64  `toml:"max_upload_bytes"`
	ChunkMaxBlocks   *int    `toml:"chunk_max_blocks"`
	ChunkMaxBytes    *int    `toml:"chunk_max_bytes"`
	ChunkDelay       *string `toml:"chunk_delay"`
	FencePolicy      *string `toml:"fence_policy"`
	EmptyCells       *string `toml:"empty_cells"`
	JobTTL           *string `toml:"job_ttl"`
	PDFFallback      *bool   `toml:"pdf_fallback_pdftotext"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port: "8090",

		NotionAPIKeyFile: "~/.config/notion/api_key",
		NotionBaseURL:    "https://api.notion.com/v1",
		NotionVersion:    "2025-09-03",

		WorkerCount:  2,
		MaxQueueSize: 100,

		MaxUploadBytes: 10485760, // 10MB

		ChunkMaxBlocks: maxChunkBlocks,
		ChunkDelay:     350 * time.Millisecond,

		FencePolicy: string(parser.FenceDrop),
		EmptyCells:  string(parser.CellsPreserve),

		JobTTL: 1 * time.Hour,

		PDFFallbackPdftotext: true,
	}
}

// Load builds the configuration from defaults, then the TOML file at
// $MDNOTION_CONFIG (or the XDG config path), then environment variables.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("MDNOTION_CONFIG"))
}

// LoadFrom is Load with an explicit config file path. The file must exist
// when path is set; an empty path falls back to the XDG config path.
func LoadFrom(configPath string) (Config, error) {
	cfg := Defaults()

	path, err := ExpandPath(configPath)
	if err != nil {
		return cfg, err
	}
	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}
	if err := cfg.applyFile(path, explicit); err != nil {
		return cfg, err
	}

	cfg.Port = envOr("PORT", cfg.Port)

	cfg.NotionAPIKey = envOr("NOTION_API_KEY", cfg.NotionAPIKey)
	cfg.NotionAPIKeyFile = envOr("NOTION_API_KEY_FILE", cfg.NotionAPIKeyFile)
	cfg.NotionBaseURL = envOr("NOTION_BASE_URL", cfg.NotionBaseURL)
	cfg.NotionVersion = envOr("NOTION_VERSION", cfg.NotionVersion)
	cfg.ParentPageID = envOr("NOTION_PARENT_PAGE_ID", cfg.ParentPageID)

	cfg.ServerAPIKey = envOr("MDNOTION_API_KEY", cfg.ServerAPIKey)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.ChunkMaxBlocks = envInt("CHUNK_MAX_BLOCKS", cfg.ChunkMaxBlocks)
	cfg.ChunkMaxBytes = envInt("CHUNK_MAX_BYTES", cfg.ChunkMaxBytes)
	cfg.ChunkDelay = envDuration("CHUNK_DELAY", cfg.ChunkDelay)

	cfg.FencePolicy = envOr("FENCE_POLICY", cfg.FencePolicy)
	cfg.EmptyCells = envOr("EMPTY_CELLS", cfg.EmptyCells)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	if cfg.NotionAPIKey == "" && cfg.NotionAPIKeyFile != "" {
		key, err := readKeyFile(cfg.NotionAPIKeyFile)
		if err != nil {
			return cfg, err
		}
		cfg.NotionAPIKey = key
	}

	def := Defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.ChunkMaxBlocks <= 0 {
		cfg.ChunkMaxBlocks = def.ChunkMaxBlocks
	}
	if cfg.ChunkMaxBytes < 0 {
		cfg.ChunkMaxBytes = 0
	}
	if cfg.ChunkDelay < 0 {
		cfg.ChunkDelay = def.ChunkDelay
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}

	return cfg, nil
}

func (c *Config) applyFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.Source = path

	setString(&c.Port, f.Port)
	setString(&c.NotionAPIKey, f.NotionAPIKey)
	setString(&c.NotionAPIKeyFile, f.NotionAPIKeyFile)
	setString(&c.NotionBaseURL, f.NotionBaseURL)
	setString(&c.NotionVersion, f.NotionVersion)
	setString(&c.ParentPageID, f.ParentPageID)
	setString(&c.ServerAPIKey, f.ServerAPIKey)
	setString(&c.FencePolicy, f.FencePolicy)
	setString(&c.EmptyCells, f.EmptyCells)

	if f.WorkerCount != nil {
		c.WorkerCount = *f.WorkerCount
	}
	if f.MaxQueueSize != nil {
		c.MaxQueueSize = *f.MaxQueueSize
	}
	if f.MaxUploadBytes != nil {
		c.MaxUploadBytes = *f.MaxUploadBytes
	}
	if f.ChunkMaxBlocks != nil {
		c.ChunkMaxBlocks = *f.ChunkMaxBlocks
	}
	if f.ChunkMaxBytes != nil {
		c.ChunkMaxBytes = *f.ChunkMaxBytes
	}
	if f.PDFFallback != nil {
		c.PDFFallbackPdftotext = *f.PDFFallback
	}

	if f.ChunkDelay != nil {
		d, err := time.ParseDuration(*f.ChunkDelay)
		if err != nil {
			return fmt.Errorf("config %s: chunk_delay: %w", path, err)
		}
		c.ChunkDelay = d
	}
	if f.JobTTL != nil {
		d, err := time.ParseDuration(*f.JobTTL)
		if err != nil {
			return fmt.Errorf("config %s: job_ttl: %w", path, err)
		}
		c.JobTTL = d
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// readKeyFile reads an API key from path. A missing file is not an error;
// Validate reports the absent key instead.
func readKeyFile(path string) (string, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read notion api key: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Validate checks the settings every entry point needs.
func (c Config) Validate() error {
	if c.NotionAPIKey == "" {
		return fmt.Errorf("NOTION_API_KEY is required (or put the key in %s)", c.NotionAPIKeyFile)
	}
	if c.ChunkMaxBlocks > maxChunkBlocks {
		return fmt.Errorf("CHUNK_MAX_BLOCKS must be at most %d, got %d", maxChunkBlocks, c.ChunkMaxBlocks)
	}
	if _, err := c.ParserOptions(); err != nil {
		return err
	}
	return nil
}

// ValidateServer additionally requires the key that protects the HTTP API.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ServerAPIKey == "" {
		return fmt.Errorf("MDNOTION_API_KEY is required")
	}
	return nil
}

// ParserOptions converts the markdown policy names into parser options.
func (c Config) ParserOptions() (parser.Options, error) {
	fence, err := parser.ParseFencePolicy(c.FencePolicy)
	if err != nil {
		return parser.Options{}, fmt.Errorf("FENCE_POLICY: %w", err)
	}
	cells, err := parser.ParseCellPolicy(c.EmptyCells)
	if err != nil {
		return parser.Options{}, fmt.Errorf("EMPTY_CELLS: %w", err)
	}
	return parser.Options{Fence: fence, Cells: cells, PdftotextFallback: c.PDFFallbackPdftotext}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
