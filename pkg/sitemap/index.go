package sitemap

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/models"
	"github.com/Sriram-PR/fast-sitemap/pkg/output"
	"github.com/Sriram-PR/fast-sitemap/pkg/parse"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// IndexResult describes the outcome of CreateIndex
type IndexResult struct {
	Path         string // Logical path of the index file
	URL          string // Public URL of the index, as sent to search engines
	Hash         string // SHA-256 of the new logical content
	PreviousHash string // SHA-256 of the prior index, "" when none existed
	Changed      bool
	Pinged       bool
	Entries      int
}

type datedEntry struct {
	entry  models.IndexEntry
	date   time.Time
	parsed bool
}

// IndexPath returns the logical path of the index file
func (g *Generator) IndexPath() string {
	return filepath.Join(g.opts.OutputPath, g.opts.IndexName+".xml")
}

// IndexURL returns the public URL of the index file
func (g *Generator) IndexURL() string {
	u := g.opts.Domain + "/" + g.opts.IndexName + ".xml"
	if g.opts.Compress {
		u += output.GzipSuffix
	}
	return u
}

// CreateIndex sorts entries newest first, writes the index and, when its
// logical content differs from the previous run, notifies search engines.
func (g *Generator) CreateIndex(ctx context.Context, entries []models.IndexEntry) (*IndexResult, error) {
	log := g.log.WithField("component", "index")
	indexPath := g.IndexPath()

	previous, err := output.LogicalHash(indexPath)
	if err != nil {
		return nil, err
	}

	sorted := sortEntries(entries, log)

	var doc []byte
	switch g.opts.IndexStyle {
	case StyleURLSet:
		doc, err = g.renderFlatIndex(sorted)
	default:
		doc, err = g.renderSitemapIndex(sorted)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encode XML index: %w", utils.ErrParsing, err)
	}

	logical, err := g.writer.Write(indexPath, doc, g.opts.Compress)
	if err != nil {
		return nil, err
	}

	result := &IndexResult{
		Path:         logical,
		URL:          g.IndexURL(),
		Hash:         utils.CalculateBytesSHA256(doc),
		PreviousHash: previous,
		Entries:      len(sorted),
	}
	result.Changed = result.Hash != result.PreviousHash

	switch {
	case !result.Changed:
		log.Infof("Index %s unchanged (%d entries)", filepath.Base(logical), result.Entries)
	case g.opts.Ping && g.notifier != nil:
		log.Infof("Index %s changed (%d entries), notifying search engines", filepath.Base(logical), result.Entries)
		g.notifier.Notify(ctx, result.URL)
		result.Pinged = true
	default:
		log.Infof("Index %s changed (%d entries), ping disabled", filepath.Base(logical), result.Entries)
	}

	return result, nil
}

// sortEntries orders entries by date descending, keeping input order among
// equal dates. Entries with blank or unparsable dates go last.
func sortEntries(entries []models.IndexEntry, log *logrus.Entry) []datedEntry {
	out := make([]datedEntry, len(entries))
	for i, e := range entries {
		out[i] = datedEntry{entry: e}
		if strings.TrimSpace(e.Date) == "" {
			continue
		}
		t, err := parse.ParseLastmod(e.Date)
		if err != nil {
			log.WithField("file", filepath.Base(e.FilePath)).Warnf("Omitting lastmod from index: %v", err)
			continue
		}
		out[i].date = t
		out[i].parsed = true
	}

	slices.SortStableFunc(out, func(a, b datedEntry) int {
		switch {
		case a.parsed && b.parsed:
			return b.date.Compare(a.date)
		case a.parsed:
			return -1
		case b.parsed:
			return 1
		}
		return 0
	})
	return out
}

func (g *Generator) entryLoc(e models.IndexEntry) string {
	loc := g.opts.Domain + "/" + e.FileName()
	if g.opts.Compress {
		loc += output.GzipSuffix
	}
	return loc
}

func (g *Generator) renderSitemapIndex(sorted []datedEntry) ([]byte, error) {
	idx := parse.NewSitemapIndex(g.opts.IncludeSchemaLocation)
	idx.Sitemaps = make([]parse.XMLSitemap, len(sorted))
	for i, d := range sorted {
		sm := parse.XMLSitemap{Loc: g.entryLoc(d.entry)}
		if d.parsed {
			sm.LastMod = d.date.Format(parse.DateTimeLayout)
		}
		idx.Sitemaps[i] = sm
	}
	return parse.MarshalDocument(idx)
}

func (g *Generator) renderFlatIndex(sorted []datedEntry) ([]byte, error) {
	set := parse.NewURLSet(g.opts.IncludeSchemaLocation)
	set.URLs = make([]parse.XMLURL, len(sorted))

	var priorities []string
	if g.opts.IndexIncludePriority {
		priorities = Priorities(len(sorted))
	}
	for i, d := range sorted {
		u := parse.XMLURL{Loc: g.entryLoc(d.entry)}
		if d.parsed {
			u.LastMod = d.date.Format(parse.DateLayout)
		}
		if priorities != nil {
			u.Priority = priorities[i]
		}
		set.URLs[i] = u
	}
	return parse.MarshalDocument(set)
}
