package sources

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/parse"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// Meta tags consulted for a page's last-modified date, in order
var lastmodSelectors = []string{
	`meta[property="article:modified_time"]`,
	`meta[property="og:updated_time"]`,
	`meta[name="last-modified"]`,
	`meta[http-equiv="last-modified"]`,
}

// HTMLDirSource serves the pages of a static site build directory.
// The file list is collected once and sorted so paging is stable.
type HTMLDirSource struct {
	pageSource
	domain string
	fsys   fs.FS
	files  []string // Slash-separated, relative to the root
	log    *logrus.Entry
}

// NewHTMLDir scans dir for files matching any pattern and none of exclude
func NewHTMLDir(name, domain, dir string, patterns, exclude []string, log *logrus.Entry) (*HTMLDirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: htmldir %s: %w", utils.ErrFilesystem, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: htmldir %s is not a directory", utils.ErrFilesystem, dir)
	}
	return newHTMLDirFS(name, domain, os.DirFS(dir), patterns, exclude, log.WithField("dir", dir))
}

func newHTMLDirFS(name, domain string, fsys fs.FS, patterns, exclude []string, log *logrus.Entry) (*HTMLDirSource, error) {
	if len(patterns) == 0 {
		patterns = []string{"**/*.html"}
	}
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %w", utils.ErrParsing, pattern, err)
		}
		for _, m := range matches {
			if seen[m] || excluded(m, exclude) {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	slices.Sort(files)

	log.Debugf("htmldir source '%s' matched %d files", name, len(files))
	return &HTMLDirSource{
		pageSource: pageSource{name: name},
		domain:     domain,
		fsys:       fsys,
		files:      files,
		log:        log,
	}, nil
}

func excluded(file string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, file); ok {
			return true
		}
	}
	return false
}

// Len reports the number of matched files
func (s *HTMLDirSource) Len() int { return len(s.files) }

// Items implements sitemap.OffsetPagedSource
func (s *HTMLDirSource) Items(ctx context.Context, offset, limit int) ([]Page, error) {
	files := window(s.files, offset, limit)
	pages := make([]Page, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.readPage(file)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// readPage derives the URL and last-modified date of one file. The canonical
// link wins over the file path; meta tags win over the file mtime.
func (s *HTMLDirSource) readPage(file string) (Page, error) {
	f, err := s.fsys.Open(file)
	if err != nil {
		return Page{}, fmt.Errorf("%w: open %s: %w", utils.ErrFilesystem, file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Page{}, fmt.Errorf("%w: stat %s: %w", utils.ErrFilesystem, file, err)
	}

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return Page{}, fmt.Errorf("%w: parse HTML %s: %w", utils.ErrParsing, file, err)
	}

	page := Page{Path: filePath(file)}
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		if p, err := toSitePath(s.domain, href); err == nil {
			page.Path = p
		} else {
			s.log.Warnf("Ignoring canonical link in %s: %v", file, err)
		}
	}

	for _, sel := range lastmodSelectors {
		content, ok := doc.Find(sel).First().Attr("content")
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		if _, err := parse.ParseLastmod(content); err != nil {
			s.log.Debugf("Ignoring %s in %s: %v", sel, file, err)
			continue
		}
		page.LastMod = strings.TrimSpace(content)
		break
	}
	if page.LastMod == "" && !info.ModTime().IsZero() {
		page.LastMod = info.ModTime().UTC().Format(time.RFC3339)
	}
	return page, nil
}

// filePath maps a relative file to its URL path; index.html serves its directory
func filePath(file string) string {
	dir, base := path.Split(file)
	if base == "index.html" || base == "index.htm" {
		return "/" + dir
	}
	return "/" + file
}
