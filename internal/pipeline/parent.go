package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/mdnotion/internal/notion"
)

// ErrNoParent means no parent page was given and the integration cannot see any page.
var ErrNoParent = errors.New("no parent page available: open a page in Notion, choose \"Connect to\" " +
	"from the ... menu, pick this integration, then retry or pass a parent page id")

// Searcher lists pages visible to the integration.
type Searcher interface {
	Search(ctx context.Context, pageSize int) ([]notion.Page, error)
}

// ResolveParent picks the parent page for a new page: the explicit id, else
// the configured default, else the first page the integration can see. The
// search candidates are returned so callers can show them.
func ResolveParent(ctx context.Context, explicit, configured string, s Searcher) (string, []notion.Page, error) {
	if explicit != "" {
		return explicit, nil, nil
	}
	if configured != "" {
		return configured, nil, nil
	}
	pages, err := s.Search(ctx, 10)
	if err != nil {
		return "", nil, fmt.Errorf("find parent page: %w", err)
	}
	if len(pages) == 0 {
		return "", nil, ErrNoParent
	}
	return pages[0].ID, pages, nil
}
