package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/fast-sitemap/pkg/models"
	"github.com/Sriram-PR/fast-sitemap/pkg/storage"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// writeConfig writes a config with a static source into a temp dir and
// returns its path. Output and state live in the same dir.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := `
domain: "https://example.com"
output_path: "` + filepath.ToSlash(filepath.Join(dir, "out")) + `"
state_dir: "` + filepath.ToSlash(filepath.Join(dir, "state")) + `"
compress_with_gzip: false
ping_search_engines: false
sources:
  - name: pages
    type: static
    pages:
      - loc: /
        lastmod: "2024-01-02"
      - loc: /about
` + extra
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return cfgPath
}

func TestLoadConfig_ValidFile(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, ""), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", cfg.Domain)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "pages", cfg.Sources[0].Name)
	assert.Equal(t, "sitemap", cfg.IndexSitemapName)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := loadConfig("/nonexistent/path/config.yaml", testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0644))

	_, err := loadConfig(cfgPath, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestDoValidate_Valid(t *testing.T) {
	var stdout, stderr bytes.Buffer
	exitCode := doValidate(writeConfig(t, ""), &stdout, &stderr)

	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "OK: [pages] static, max 50000 URLs per file")
	assert.Contains(t, stdout.String(), "Index: https://example.com/sitemap.xml (sitemapindex)")
	assert.Contains(t, stdout.String(), "Configuration valid")
	assert.Empty(t, stderr.String())
}

func TestDoValidate_Invalid(t *testing.T) {
	extra := `
  - name: sitemap
    type: static
`
	var stdout, stderr bytes.Buffer
	exitCode := doValidate(writeConfig(t, extra), &stdout, &stderr)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "ERROR:")
	assert.Contains(t, stderr.String(), "would overwrite the index file")
}

func TestDoValidate_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	exitCode := doValidate(filepath.Join(t.TempDir(), "missing.yaml"), &stdout, &stderr)
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error:")
}

func TestExecute_GenerateThenStatus(t *testing.T) {
	cfgPath := writeConfig(t, "")
	outDir := filepath.Join(filepath.Dir(cfgPath), "out")

	var stdout, stderr bytes.Buffer
	code := execute([]string{"generate", "--config", cfgPath, "--loglevel", "error"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, filepath.Join(outDir, "pages.xml"))
	assert.FileExists(t, filepath.Join(outDir, "sitemap.xml"))

	stdout.Reset()
	code = execute([]string{"status", "--config", cfgPath, "--loglevel", "error"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "STARTED")
	assert.Contains(t, stdout.String(), "success")

	stdout.Reset()
	code = execute([]string{"status", "--jsonl", "--config", cfgPath, "--loglevel", "error"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, 1, strings.Count(stdout.String(), "\n"))
	assert.Contains(t, stdout.String(), `"status":"success"`)
}

func TestExecute_GenerateUnknownSource(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute([]string{"generate", "--config", writeConfig(t, ""), "--source", "nope"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "source 'nope' not found")
}

func TestExecute_WatchInvalidInterval(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute([]string{"watch", "--config", writeConfig(t, ""), "--interval", "soon"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Invalid interval")
}

func TestExecute_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute([]string{"version"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Equal(t, "fast-sitemap "+version+"\n", stdout.String())
}

func TestExecute_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := execute([]string{"crawl"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown command")
}

func TestDoStatus(t *testing.T) {
	store, err := storage.NewBadgerStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, doStatus(store, 10, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "No runs recorded yet.")

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(&models.RunRecord{
		ID: "a", StartedAt: start, FinishedAt: start.Add(time.Second), Status: models.RunStatusPartial,
		Sources: []models.SourceResult{
			{Name: "pages", Status: models.RunStatusSuccess, URLs: 5},
			{Name: "db", Status: models.RunStatusFailure, ErrorType: "Database_Other"},
		},
		Entries: 1,
	}))

	stdout.Reset()
	assert.Equal(t, 0, doStatus(store, 10, &stdout, &stderr))
	out := stdout.String()
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "db:Database_Other")
	assert.Contains(t, out, "1s")
}

func TestRunExitCode(t *testing.T) {
	assert.Equal(t, exitOK, runExitCode(&models.RunRecord{Status: models.RunStatusSuccess}, nil))
	assert.Equal(t, exitPartial, runExitCode(&models.RunRecord{Status: models.RunStatusPartial}, nil))
	assert.Equal(t, exitError, runExitCode(&models.RunRecord{Status: models.RunStatusFailure}, errors.New("boom")))
	assert.Equal(t, exitError, runExitCode(nil, nil))
}

func TestFailureSummary(t *testing.T) {
	assert.Equal(t, "-", failureSummary(models.RunRecord{}))
	assert.Equal(t, "Config_Validation", failureSummary(models.RunRecord{ErrorType: "Config_Validation"}))
}
