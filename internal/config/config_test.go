package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/mdnotion/internal/parser"
)

// isolate points every lookup at an empty temp directory and clears the
// variables Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "cfg"))
	for _, k := range []string{
		"MDNOTION_CONFIG", "PORT", "NOTION_API_KEY", "NOTION_API_KEY_FILE", "NOTION_BASE_URL",
		"NOTION_VERSION", "NOTION_PARENT_PAGE_ID", "MDNOTION_API_KEY", "WORKER_COUNT",
		"MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "CHUNK_MAX_BLOCKS", "CHUNK_MAX_BYTES",
		"CHUNK_DELAY", "FENCE_POLICY", "EMPTY_CELLS", "JOB_TTL", "PDF_FALLBACK_PDFTOTEXT",
	} {
		t.Setenv(k, "")
	}
	return tmp
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.ChunkMaxBlocks != 100 {
		t.Errorf("expected 100 blocks per chunk, got %d", cfg.ChunkMaxBlocks)
	}
	if cfg.ChunkDelay != 350*time.Millisecond {
		t.Errorf("expected 350ms chunk delay, got %s", cfg.ChunkDelay)
	}
	if cfg.NotionVersion != "2025-09-03" {
		t.Errorf("expected default Notion version, got %q", cfg.NotionVersion)
	}
	if cfg.Source != "" {
		t.Errorf("expected no config source, got %q", cfg.Source)
	}
	if cfg.NotionAPIKey != "" {
		t.Errorf("expected no api key, got %q", cfg.NotionAPIKey)
	}
}

func TestLoad_KeyFromFile(t *testing.T) {
	tmp := isolate(t)
	writeFile(t, filepath.Join(tmp, ".config", "notion", "api_key"), "  secret_abc\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.NotionAPIKey != "secret_abc" {
		t.Errorf("expected key read from default key file, got %q", cfg.NotionAPIKey)
	}
}

func TestLoad_EnvKeyWinsOverKeyFile(t *testing.T) {
	tmp := isolate(t)
	writeFile(t, filepath.Join(tmp, ".config", "notion", "api_key"), "from_file")
	t.Setenv("NOTION_API_KEY", "from_env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.NotionAPIKey != "from_env" {
		t.Errorf("expected env key, got %q", cfg.NotionAPIKey)
	}
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)
	writeFile(t, ConfigPath(), `
port = "9000"
worker_count = 5
chunk_delay = "1s"
fence_policy = "flush"
parent_page_id = "from-file"
`)
	t.Setenv("WORKER_COUNT", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source != ConfigPath() {
		t.Errorf("expected source %q, got %q", ConfigPath(), cfg.Source)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected file port 9000, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 7 {
		t.Errorf("expected env worker count 7, got %d", cfg.WorkerCount)
	}
	if cfg.ChunkDelay != time.Second {
		t.Errorf("expected file chunk delay 1s, got %s", cfg.ChunkDelay)
	}
	if cfg.FencePolicy != "flush" {
		t.Errorf("expected fence policy flush, got %q", cfg.FencePolicy)
	}
	if cfg.ParentPageID != "from-file" {
		t.Errorf("expected parent from file, got %q", cfg.ParentPageID)
	}
}

func TestLoad_ExplicitConfigMustExist(t *testing.T) {
	tmp := isolate(t)
	t.Setenv("MDNOTION_CONFIG", filepath.Join(tmp, "missing.toml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadFrom_ExplicitPath(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "custom.toml")
	writeFile(t, path, "parent_page_id = \"custom\"\nchunk_max_blocks = 40\n")
	// The XDG file is ignored when a path is given.
	writeFile(t, ConfigPath(), "parent_page_id = \"xdg\"\n")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.ParentPageID != "custom" || cfg.ChunkMaxBlocks != 40 {
		t.Errorf("expected values from custom file, got %q/%d", cfg.ParentPageID, cfg.ChunkMaxBlocks)
	}
	if cfg.Source != path {
		t.Errorf("expected source %q, got %q", path, cfg.Source)
	}
	if got := os.Getenv("MDNOTION_CONFIG"); got != "" {
		t.Errorf("expected MDNOTION_CONFIG untouched, got %q", got)
	}

	if _, err := LoadFrom(filepath.Join(tmp, "missing.toml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoad_BadFile(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "bad.toml")
	t.Setenv("MDNOTION_CONFIG", path)

	writeFile(t, path, "port = [")
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed TOML")
	}

	writeFile(t, path, `chunk_delay = "soon"`)
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "chunk_delay") {
		t.Errorf("expected chunk_delay error, got %v", err)
	}
}

func TestLoad_ClampsInvalidNumbers(t *testing.T) {
	isolate(t)
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("CHUNK_MAX_BLOCKS", "-1")
	t.Setenv("CHUNK_MAX_BYTES", "-5")
	t.Setenv("JOB_TTL", "garbage")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected default worker count, got %d", cfg.WorkerCount)
	}
	if cfg.ChunkMaxBlocks != 100 {
		t.Errorf("expected default chunk size, got %d", cfg.ChunkMaxBlocks)
	}
	if cfg.ChunkMaxBytes != 0 {
		t.Errorf("expected byte cap disabled, got %d", cfg.ChunkMaxBytes)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected default TTL, got %s", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without api key")
	}

	cfg.NotionAPIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := cfg.ValidateServer(); err == nil {
		t.Error("expected server validation to require MDNOTION_API_KEY")
	}

	cfg.ServerAPIKey = "s"
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.ChunkMaxBlocks = 101
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for chunk size above the API limit")
	}

	cfg.ChunkMaxBlocks = 100
	cfg.EmptyCells = "squash"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown empty-cell policy")
	}
}

func TestParserOptions(t *testing.T) {
	cfg := Defaults()
	cfg.FencePolicy = "error"
	cfg.EmptyCells = "compact"

	opts, err := cfg.ParserOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Fence != parser.FenceError || opts.Cells != parser.CellsCompact {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestExpandPath_Tilde(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath() error: %v", err)
	}
	want := filepath.Join(tmp, "a", "b")
	if got != want {
		t.Fatalf("ExpandPath()=%q, want %q", got, want)
	}

	if got, _ := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("expected absolute path unchanged, got %q", got)
	}
}
