package sitemap

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/models"
	"github.com/Sriram-PR/fast-sitemap/pkg/output"
	"github.com/Sriram-PR/fast-sitemap/pkg/parse"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// IndexStyle selects the root element of the index document
type IndexStyle string

const (
	StyleSitemapIndex IndexStyle = "sitemapindex"
	StyleURLSet       IndexStyle = "urlset"
)

// Options configures a Generator
type Options struct {
	Domain                string // No trailing slash
	OutputPath            string
	IndexName             string // Index filename stem
	MaxURLsPerFile        int
	Compress              bool
	IncludePriority       bool // <priority> in sitemap files
	IndexIncludePriority  bool // <priority> in a urlset-style index
	IncludeSchemaLocation bool
	IndexStyle            IndexStyle
	Ping                  bool
}

// Notifier is told the public index URL whenever the index content changes.
// Implementations log and swallow their own failures.
type Notifier interface {
	Notify(ctx context.Context, indexURL string)
}

// Generator writes sitemap files for sources and assembles the index.
// A Generator holds no per-run state; entries flow from Generate to CreateIndex.
// Runs against the same output path must not overlap.
type Generator struct {
	opts     Options
	writer   *output.FileWriter
	notifier Notifier
	log      *logrus.Entry
}

// NewGenerator creates a Generator. notifier may be nil, which disables pings.
func NewGenerator(opts Options, writer *output.FileWriter, notifier Notifier, log *logrus.Entry) *Generator {
	if opts.MaxURLsPerFile <= 0 || opts.MaxURLsPerFile > parse.MaxURLsPerFile {
		opts.MaxURLsPerFile = parse.MaxURLsPerFile
	}
	if opts.IndexName == "" {
		opts.IndexName = "sitemap"
	}
	if opts.IndexStyle == "" {
		opts.IndexStyle = StyleSitemapIndex
	}
	return &Generator{
		opts:     opts,
		writer:   writer,
		notifier: notifier,
		log:      log.WithField("component", "generator"),
	}
}

// Options returns the effective options
func (g *Generator) Options() Options {
	return g.opts
}

// WithSourceOverrides returns a copy of g using a different per-file limit and
// priority setting. A limit <= 0 keeps the current one.
func (g *Generator) WithSourceOverrides(maxURLsPerFile int, includePriority bool) *Generator {
	clone := *g
	if maxURLsPerFile > 0 && maxURLsPerFile <= parse.MaxURLsPerFile {
		clone.opts.MaxURLsPerFile = maxURLsPerFile
	}
	clone.opts.IncludePriority = includePriority
	return &clone
}

// Generate writes every sitemap file for job and returns one index entry per file.
// On failure the entries for files already written are returned with the error;
// those files are left in place.
func (g *Generator) Generate(ctx context.Context, job Job) ([]models.IndexEntry, error) {
	return job.run(ctx, g)
}

// SitemapFileName returns the file name for the seq-th file of a source:
// "<stem>.xml" for 0, "<stem>-<seq>.xml" afterwards.
func SitemapFileName(sourceName string, seq int) string {
	stem := utils.SanitizeFilename(sourceName)
	if seq == 0 {
		return stem + ".xml"
	}
	return fmt.Sprintf("%s-%d.xml", stem, seq)
}

func generate[T any](ctx context.Context, g *Generator, src Source[T], next batchFunc[T]) ([]models.IndexEntry, error) {
	log := g.log.WithField("source", src.Name())
	start := time.Now()
	var entries []models.IndexEntry
	total := 0

	for seq := 0; ; seq++ {
		items, err := next(ctx)
		if err != nil {
			log.Errorf("Source failed after %d file(s): %v", len(entries), err)
			return entries, err
		}
		if len(items) == 0 {
			break
		}

		doc, err := renderURLSet(items, src, g.opts.Domain, g.opts.IncludePriority, g.opts.IncludeSchemaLocation)
		if err != nil {
			return entries, err
		}

		path := filepath.Join(g.opts.OutputPath, SitemapFileName(src.Name(), seq))
		logical, err := g.writer.Write(path, doc, g.opts.Compress)
		if err != nil {
			log.Errorf("Failed to write sitemap file %d: %v", seq, err)
			return entries, err
		}

		entries = append(entries, models.IndexEntry{
			SourceName: src.Name(),
			Date:       src.LastModified(items[0]),
			FilePath:   logical,
			URLCount:   len(items),
		})
		total += len(items)
		log.Debugf("Wrote %s with %d URLs", filepath.Base(logical), len(items))
	}

	log.Infof("Generated %d sitemap file(s) with %d URLs in %v", len(entries), total, time.Since(start).Round(time.Millisecond))
	return entries, nil
}
