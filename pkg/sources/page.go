package sources

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sriram-PR/fast-sitemap/pkg/parse"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// Page is one URL produced by the built-in source adapters
type Page struct {
	Path    string // Site-relative, appended verbatim to the domain
	LastMod string // "" when unknown
}

// pageSource supplies the identity half of sitemap.Source[Page]
type pageSource struct {
	name string
}

func (s pageSource) Name() string { return s.name }
func (s pageSource) URL(p Page) string { return p.Path }
func (s pageSource) LastModified(p Page) string { return p.LastMod }

// toSitePath turns a configured or stored location into a site-relative path.
// Absolute URLs must point at domain; relative ones get a leading slash.
func toSitePath(domain, loc string) (string, error) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return "", fmt.Errorf("%w: empty URL", utils.ErrParsing)
	}
	if strings.Contains(loc, "://") {
		path, ok := parse.SitePath(domain, loc)
		if !ok {
			return "", fmt.Errorf("%w: URL %q is not on domain %s", utils.ErrParsing, loc, domain)
		}
		return path, nil
	}
	if !strings.HasPrefix(loc, "/") {
		loc = "/" + loc
	}
	return loc, nil
}

// formatLastmod renders a scanned database value as a lastmod string
func formatLastmod(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case []byte:
		return strings.TrimSpace(string(t))
	case string:
		return strings.TrimSpace(t)
	default:
		return fmt.Sprint(t)
	}
}

// window returns the [offset, offset+limit) slice of items, empty past the end
func window[T any](items []T, offset, limit int) []T {
	if offset < 0 || limit <= 0 || offset >= len(items) {
		return nil
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
