package robots

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"github.com/Sriram-PR/fast-sitemap/pkg/output"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// Written when no robots.txt exists yet: allow everything
const defaultRobots = "User-agent: *\nDisallow:\n"

var sitemapDirective = regexp.MustCompile(`(?i)^\s*sitemap\s*:\s*(\S+)`)

// Manager keeps the Sitemap directive of a local robots.txt in sync with the index URL
type Manager struct {
	writer *output.FileWriter
	log    *logrus.Entry
}

// NewManager creates a Manager writing through writer
func NewManager(writer *output.FileWriter, log *logrus.Entry) *Manager {
	return &Manager{writer: writer, log: log.WithField("component", "robots")}
}

// EnsureSitemapDirective makes the robots.txt at path advertise sitemapURL.
// Directives naming any of the stale URLs are removed. The file is created when
// missing. Returns true if the file was modified.
func (m *Manager) EnsureSitemapDirective(path, sitemapURL string, stale ...string) (bool, error) {
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		m.log.Infof("No robots.txt at %s, creating one", path)
		content = []byte(defaultRobots)
	case err != nil:
		return false, fmt.Errorf("%w: read robots.txt '%s': %w", utils.ErrFilesystem, path, err)
	}

	data, err := robotstxt.FromBytes(content)
	if err != nil {
		return false, fmt.Errorf("%w: robots.txt '%s': %w", utils.ErrParsing, path, err)
	}

	present := slices.Contains(data.Sitemaps, sitemapURL)
	hasStale := false
	for _, s := range stale {
		if s != sitemapURL && slices.Contains(data.Sitemaps, s) {
			hasStale = true
			break
		}
	}
	if present && !hasStale {
		m.log.Debugf("robots.txt already advertises %s", sitemapURL)
		return false, nil
	}

	updated, err := rewrite(content, sitemapURL, stale, present)
	if err != nil {
		return false, fmt.Errorf("%w: robots.txt '%s': %w", utils.ErrParsing, path, err)
	}
	if bytes.Equal(updated, content) {
		return false, nil
	}
	if _, err := m.writer.Write(path, updated, false); err != nil {
		return false, err
	}
	m.log.Infof("Updated %s with Sitemap: %s", path, sitemapURL)
	return true, nil
}

// rewrite drops stale Sitemap lines and appends sitemapURL unless already present
func rewrite(content []byte, sitemapURL string, stale []string, present bool) ([]byte, error) {
	var buf bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if m := sitemapDirective.FindStringSubmatch(line); m != nil {
			if m[1] != sitemapURL && slices.Contains(stale, m[1]) {
				continue
			}
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !present {
		if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n\n") {
			buf.WriteByte('\n')
		}
		buf.WriteString("Sitemap: " + sitemapURL + "\n")
	}
	return buf.Bytes(), nil
}
