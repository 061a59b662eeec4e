package sources

import (
	"context"
	"fmt"

	"github.com/Sriram-PR/fast-sitemap/pkg/config"
)

// StaticSource serves pages listed directly in the configuration
type StaticSource struct {
	pageSource
	pages []Page
}

// NewStatic resolves every configured location against domain up front
func NewStatic(name, domain string, pages []config.StaticPage) (*StaticSource, error) {
	resolved := make([]Page, 0, len(pages))
	for i, p := range pages {
		path, err := toSitePath(domain, p.Loc)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		resolved = append(resolved, Page{Path: path, LastMod: p.LastMod})
	}
	return &StaticSource{pageSource: pageSource{name: name}, pages: resolved}, nil
}

// Items implements sitemap.OffsetPagedSource
func (s *StaticSource) Items(_ context.Context, offset, limit int) ([]Page, error) {
	return window(s.pages, offset, limit), nil
}

// Len reports the number of configured pages
func (s *StaticSource) Len() int { return len(s.pages) }
