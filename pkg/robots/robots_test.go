package robots

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/robotstxt"

	"github.com/Sriram-PR/fast-sitemap/pkg/output"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

const indexURL = "https://example.com/sitemap.xml.gz"

func newTestManager() *Manager {
	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)
	return NewManager(output.NewFileWriter(log), log)
}

func sitemapsIn(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	data, err := robotstxt.FromBytes(content)
	require.NoError(t, err)
	return data.Sitemaps
}

func TestEnsureSitemapDirective_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robots.txt")

	changed, err := newTestManager().EnsureSitemapDirective(path, indexURL)
	require.NoError(t, err)
	assert.True(t, changed)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *\nDisallow:\n\nSitemap: "+indexURL+"\n", string(content))

	data, err := robotstxt.FromBytes(content)
	require.NoError(t, err)
	assert.True(t, data.TestAgent("/anything", "Googlebot"))
}

func TestEnsureSitemapDirective_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robots.txt")
	existing := "User-agent: *\nDisallow: /admin\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	changed, err := newTestManager().EnsureSitemapDirective(path, indexURL)
	require.NoError(t, err)
	assert.True(t, changed)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing+"\nSitemap: "+indexURL+"\n", string(content))
	assert.Equal(t, []string{indexURL}, sitemapsIn(t, path))
}

func TestEnsureSitemapDirective_AlreadyPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robots.txt")
	existing := "User-agent: *\nDisallow:\n\nsitemap: " + indexURL + "\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	changed, err := newTestManager().EnsureSitemapDirective(path, indexURL)
	require.NoError(t, err)
	assert.False(t, changed)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing, string(content), "file must be left untouched")
}

func TestEnsureSitemapDirective_ReplacesStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robots.txt")
	existing := "User-agent: *\nDisallow:\n\nSitemap: https://example.com/sitemap.xml\nSitemap: https://example.com/news.xml\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	changed, err := newTestManager().EnsureSitemapDirective(path, indexURL, "https://example.com/sitemap.xml")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.ElementsMatch(t, []string{"https://example.com/news.xml", indexURL}, sitemapsIn(t, path))

	changed, err = newTestManager().EnsureSitemapDirective(path, indexURL, "https://example.com/sitemap.xml")
	require.NoError(t, err)
	assert.False(t, changed, "second call is a no-op")
}

func TestEnsureSitemapDirective_ReadError(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be
	path := filepath.Join(dir, "robots.txt")
	require.NoError(t, os.Mkdir(path, 0755))

	_, err := newTestManager().EnsureSitemapDirective(path, indexURL)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrFilesystem)
}

func TestEnsureSitemapDirective_OverlongLineLeavesFileAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robots.txt")
	existing := "User-agent: *\nDisallow: /" + strings.Repeat("a", 70*1024) + "\nDisallow: /admin\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	changed, err := newTestManager().EnsureSitemapDirective(path, indexURL)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrParsing)
	assert.False(t, changed)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, existing, string(content))
}
