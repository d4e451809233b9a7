package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/mdnotion/internal/doctree"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2025-09-03"

	// MaxChildren is the most blocks one append request may carry.
	MaxChildren = 100
)

// Client talks to the Notion REST API.
type Client struct {
	baseURL    string
	apiKey     string
	version    string
	httpClient *http.Client

	// Stats records the latency of every API call.
	Stats *CallStats
}

func NewClient(baseURL, apiKey, version string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		version: version,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		Stats: NewCallStats(time.Hour),
	}
}

// Version returns the Notion-Version header value sent with every request.
func (c *Client) Version() string {
	return c.version
}

// Page is the subset of a Notion page the uploader cares about.
type Page struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type pageParent struct {
	PageID string `json:"page_id"`
}

type createPageRequest struct {
	Parent     pageParent `json:"parent"`
	Properties struct {
		Title struct {
			Title []RichText `json:"title"`
		} `json:"title"`
	} `json:"properties"`
}

// CreatePage creates an empty child page under parentID.
func (c *Client) CreatePage(ctx context.Context, parentID, title string) (*Page, error) {
	var req createPageRequest
	req.Parent.PageID = NormalizeID(parentID)
	req.Properties.Title.Title = EncodeRuns([]doctree.TextRun{{Content: title}})

	var page Page
	if err := c.do(ctx, "create_page", http.MethodPost, "/pages", req, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	page.Title = title
	return &page, nil
}

// AppendBlocks appends blocks to the end of a page or block.
func (c *Client) AppendBlocks(ctx context.Context, pageID string, blocks []doctree.Block) error {
	if len(blocks) > MaxChildren {
		return fmt.Errorf("append blocks: %d blocks exceeds the limit of %d", len(blocks), MaxChildren)
	}
	body := map[string]any{"children": EncodeBlocks(blocks)}
	if err := c.do(ctx, "append_blocks", http.MethodPatch, "/blocks/"+NormalizeID(pageID)+"/children", body, nil); err != nil {
		return fmt.Errorf("append blocks: %w", err)
	}
	return nil
}

type plainText struct {
	PlainText string `json:"plain_text"`
}

type searchResult struct {
	Object     string `json:"object"`
	ID         string `json:"id"`
	URL        string `json:"url"`
	Properties map[string]struct {
		Type  string      `json:"type"`
		Title []plainText `json:"title"`
	} `json:"properties"`
	Title []plainText `json:"title"`
}

func (r searchResult) title() string {
	if p, ok := r.Properties["title"]; ok && len(p.Title) > 0 {
		return p.Title[0].PlainText
	}
	if len(r.Title) > 0 {
		return r.Title[0].PlainText
	}
	// Database rows name their title property freely.
	for _, p := range r.Properties {
		if p.Type == "title" && len(p.Title) > 0 {
			return p.Title[0].PlainText
		}
	}
	return "Untitled"
}

// Search lists up to pageSize objects shared with the integration.
func (c *Client) Search(ctx context.Context, pageSize int) ([]Page, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	var resp struct {
		Results []searchResult `json:"results"`
	}
	if err := c.do(ctx, "search", http.MethodPost, "/search", map[string]any{"page_size": pageSize}, &resp); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	pages := make([]Page, 0, len(resp.Results))
	for _, r := range resp.Results {
		pages = append(pages, Page{ID: r.ID, URL: r.URL, Title: r.title()})
	}
	return pages, nil
}

// do sends one API request and records its latency under op. in is
// JSON-encoded when non-nil; out receives the decoded response body when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Notion-Version", c.version)
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.Stats.Record(op, time.Since(start).Milliseconds(), true)
		return fmt.Errorf("notion api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	c.Stats.Record(op, time.Since(start).Milliseconds(), err != nil || resp.StatusCode >= 400)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// NormalizeID strips the dashes from a page or block id, accepting both the
// dashed UUID form and the compact form found in page URLs.
func NormalizeID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
