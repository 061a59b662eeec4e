package sitemap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/fast-sitemap/pkg/models"
	"github.com/Sriram-PR/fast-sitemap/pkg/output"
)

func entriesFor(dir string, dates ...string) []models.IndexEntry {
	entries := make([]models.IndexEntry, len(dates))
	for i, d := range dates {
		entries[i] = models.IndexEntry{
			SourceName: "src",
			Date:       d,
			FilePath:   filepath.Join(dir, SitemapFileName("src", i)),
			URLCount:   1,
		}
	}
	return entries
}

func TestCreateIndex_SortsNewestFirstWithBadDatesLast(t *testing.T) {
	gen, _ := newTestGenerator(t, func(o *Options) { o.Compress = false })
	dir := gen.Options().OutputPath

	entries := entriesFor(dir, "not a date", "2024-01-02", "", "2024-03-01T10:00:00+02:00", "2024-01-02")
	res, err := gen.CreateIndex(context.Background(), entries)
	require.NoError(t, err)

	idx := readSitemapIndex(t, res.Path)
	require.Len(t, idx.Sitemaps, 5)

	var locs, lastmods []string
	for _, sm := range idx.Sitemaps {
		locs = append(locs, strings.TrimPrefix(sm.Loc, "https://example.com/"))
		lastmods = append(lastmods, sm.LastMod)
	}
	assert.Equal(t, []string{"src-3.xml", "src-1.xml", "src-4.xml", "src.xml", "src-2.xml"}, locs)
	assert.Equal(t, []string{"2024-03-01T10:00:00+02:00", "2024-01-02T00:00:00+00:00", "2024-01-02T00:00:00+00:00", "", ""}, lastmods)
}

func TestCreateIndex_FlatURLSetStyle(t *testing.T) {
	gen, _ := newTestGenerator(t, func(o *Options) { o.IndexStyle = StyleURLSet })
	dir := gen.Options().OutputPath

	res, err := gen.CreateIndex(context.Background(), entriesFor(dir, "2024-01-01 08:00:00", "2024-02-01", "bogus"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sitemap.xml"), res.Path)
	assert.FileExists(t, res.Path+output.GzipSuffix)

	set := readURLSet(t, res.Path)
	require.Len(t, set.URLs, 3)
	assert.Equal(t, "https://example.com/src-1.xml.gz", set.URLs[0].Loc)
	assert.Equal(t, "2024-02-01", set.URLs[0].LastMod)
	assert.Equal(t, "1", set.URLs[0].Priority)
	assert.Equal(t, "https://example.com/src.xml.gz", set.URLs[1].Loc)
	assert.Equal(t, "2024-01-01", set.URLs[1].LastMod)
	assert.Equal(t, "0.66667", set.URLs[1].Priority)
	assert.Equal(t, "", set.URLs[2].LastMod)
	assert.Equal(t, "0.33333", set.URLs[2].Priority)
}

func TestCreateIndex_FlatStyleWithoutPriority(t *testing.T) {
	gen, _ := newTestGenerator(t, func(o *Options) {
		o.IndexStyle = StyleURLSet
		o.IndexIncludePriority = false
	})
	res, err := gen.CreateIndex(context.Background(), entriesFor(gen.Options().OutputPath, "2024-01-01"))
	require.NoError(t, err)

	data, err := output.ReadLogical(res.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<priority>")
}

func TestCreateIndex_IdempotentNoSecondPing(t *testing.T) {
	gen, notifier := newTestGenerator(t, nil)
	src := func() Job {
		return FromPaged[page](&sliceSource{name: "products", items: makePages(5)})
	}

	entries, err := gen.Generate(context.Background(), src())
	require.NoError(t, err)
	first, err := gen.CreateIndex(context.Background(), entries)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.True(t, first.Pinged)
	assert.Equal(t, "", first.PreviousHash)
	firstBytes, err := os.ReadFile(first.Path + output.GzipSuffix)
	require.NoError(t, err)

	entries, err = gen.Generate(context.Background(), src())
	require.NoError(t, err)
	second, err := gen.CreateIndex(context.Background(), entries)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.False(t, second.Pinged)
	assert.Equal(t, first.Hash, second.PreviousHash)
	secondBytes, err := os.ReadFile(second.Path + output.GzipSuffix)
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes)
	assert.Equal(t, 1, notifier.count())
}

func TestCreateIndex_ChangeTriggersPing(t *testing.T) {
	gen, notifier := newTestGenerator(t, nil)
	dir := gen.Options().OutputPath

	_, err := gen.CreateIndex(context.Background(), entriesFor(dir, "2024-01-01"))
	require.NoError(t, err)
	res, err := gen.CreateIndex(context.Background(), entriesFor(dir, "2024-01-05"))
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.True(t, res.Pinged)
	assert.Equal(t, []string{"https://example.com/sitemap.xml.gz", "https://example.com/sitemap.xml.gz"}, notifier.urls)
}

func TestCreateIndex_PingDisabled(t *testing.T) {
	gen, notifier := newTestGenerator(t, func(o *Options) { o.Ping = false })

	res, err := gen.CreateIndex(context.Background(), entriesFor(gen.Options().OutputPath, "2024-01-01"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Pinged)
	assert.Zero(t, notifier.count())
}

func TestCreateIndex_NilNotifier(t *testing.T) {
	log := discardLogger()
	gen := NewGenerator(defaultOptions(t.TempDir()), output.NewFileWriter(log), nil, log)

	res, err := gen.CreateIndex(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.Pinged)
}

func TestCreateIndex_PreviousHashReadsCompressedIndex(t *testing.T) {
	gen, _ := newTestGenerator(t, nil)
	dir := gen.Options().OutputPath

	first, err := gen.CreateIndex(context.Background(), entriesFor(dir, "2024-01-01"))
	require.NoError(t, err)
	assert.NoFileExists(t, first.Path, "only the .gz variant is written")

	second, err := gen.CreateIndex(context.Background(), entriesFor(dir, "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, first.Hash, second.PreviousHash)
}

func TestCreateIndex_URLs(t *testing.T) {
	gen, _ := newTestGenerator(t, func(o *Options) {
		o.Compress = false
		o.IndexName = "main"
	})
	assert.Equal(t, "https://example.com/main.xml", gen.IndexURL())
	assert.Equal(t, filepath.Join(gen.Options().OutputPath, "main.xml"), gen.IndexPath())

	res, err := gen.CreateIndex(context.Background(), entriesFor(gen.Options().OutputPath, "2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/main.xml", res.URL)
	assert.FileExists(t, res.Path)
}

func TestNewGenerator_Defaults(t *testing.T) {
	log := discardLogger()
	gen := NewGenerator(Options{Domain: "https://example.com", MaxURLsPerFile: 100000}, output.NewFileWriter(log), nil, log)
	opts := gen.Options()
	assert.Equal(t, 50000, opts.MaxURLsPerFile)
	assert.Equal(t, "sitemap", opts.IndexName)
	assert.Equal(t, StyleSitemapIndex, opts.IndexStyle)
}
