package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Sriram-PR/fast-sitemap/pkg/parse"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// Validate checks AppConfig fields, applies defaults and validates every source.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// Domain
	if c.Domain == "" {
		return warnings, fmt.Errorf("%w: domain is required", utils.ErrConfigValidation)
	}
	domain, err := parse.NormalizeDomain(c.Domain)
	if err != nil {
		return warnings, fmt.Errorf("%w: %w", utils.ErrConfigValidation, err)
	}
	if domain != c.Domain {
		warnings = append(warnings, fmt.Sprintf("domain normalized from '%s' to '%s'", c.Domain, domain))
		c.Domain = domain
	}

	// OutputPath
	if c.OutputPath == "" {
		return warnings, fmt.Errorf("%w: output_path is required", utils.ErrConfigValidation)
	}

	// IndexSitemapName
	if c.IndexSitemapName == "" {
		c.IndexSitemapName = "sitemap"
	} else if clean := utils.SanitizeFilename(c.IndexSitemapName); clean != c.IndexSitemapName {
		warnings = append(warnings, fmt.Sprintf("index_sitemap_name '%s' sanitized to '%s'", c.IndexSitemapName, clean))
		c.IndexSitemapName = clean
	}

	// MaxURLsPerFile
	c.MaxURLsPerFile, warnings = clampURLLimit("max_urls_per_file", c.MaxURLsPerFile, parse.MaxURLsPerFile, warnings)

	// IndexStyle
	switch c.IndexStyle {
	case "":
		c.IndexStyle = IndexStyleSitemapIndex
	case IndexStyleSitemapIndex, IndexStyleURLSet:
	default:
		return warnings, fmt.Errorf("%w: index_style '%s' must be '%s' or '%s'",
			utils.ErrConfigValidation, c.IndexStyle, IndexStyleSitemapIndex, IndexStyleURLSet)
	}

	// PingTimeout
	if c.PingTimeout < 0 {
		warnings = append(warnings, "ping_timeout cannot be negative, defaulting to 5s")
		c.PingTimeout = 0
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = 5 * time.Second
	}

	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}

	// Retry delays
	if c.InitialRetryDelay <= 0 {
		c.InitialRetryDelay = 500 * time.Millisecond
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = 2 * time.Second
	}
	if c.InitialRetryDelay > c.MaxRetryDelay {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	// SearchEngines
	if len(c.SearchEngines) == 0 {
		c.SearchEngines = DefaultSearchEngines()
	}
	for i := range c.SearchEngines {
		engine := &c.SearchEngines[i]
		u, errURL := url.ParseRequestURI(engine.URL)
		if errURL != nil || u.Host == "" {
			return warnings, fmt.Errorf("%w: search engine %d ('%s') has invalid url '%s'",
				utils.ErrConfigValidation, i, engine.Name, engine.URL)
		}
		if engine.Name == "" {
			engine.Name = u.Host
		}
		if engine.Param == "" {
			warnings = append(warnings, fmt.Sprintf("search engine '%s' has no param, defaulting to 'sitemap'", engine.Name))
			engine.Param = "sitemap"
		}
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './sitemap_state'")
		c.StateDir = "./sitemap_state"
	}
	if c.HistoryLimit < 0 {
		warnings = append(warnings, fmt.Sprintf("history_limit (%d) is negative, defaulting to %d", c.HistoryLimit, DefaultHistoryLimit))
		c.HistoryLimit = DefaultHistoryLimit
	} else if c.HistoryLimit == 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}

	// HTTPClientSettings defaults
	c.validateHTTPClientSettings()

	// Sources
	if len(c.Sources) == 0 {
		return warnings, fmt.Errorf("%w: no sources configured", utils.ErrConfigValidation)
	}
	stems := make(map[string]string, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		srcWarnings, srcErr := src.Validate()
		for _, w := range srcWarnings {
			warnings = append(warnings, fmt.Sprintf("source '%s': %s", src.Name, w))
		}
		if srcErr != nil {
			return warnings, fmt.Errorf("source %d ('%s'): %w", i, src.Name, srcErr)
		}
		stem := utils.SanitizeFilename(src.Name)
		if stem == c.IndexSitemapName {
			return warnings, fmt.Errorf("%w: source '%s' would overwrite the index file",
				utils.ErrConfigValidation, src.Name)
		}
		if isNumberedStem(c.IndexSitemapName, stem) {
			return warnings, fmt.Errorf("%w: source '%s' would overwrite the index file '%s.xml' with one of its numbered files",
				utils.ErrConfigValidation, src.Name, c.IndexSitemapName)
		}
		if other, dup := stems[stem]; dup {
			return warnings, fmt.Errorf("%w: sources '%s' and '%s' share the filename stem '%s'",
				utils.ErrConfigValidation, other, src.Name, stem)
		}
		for otherStem, other := range stems {
			if isNumberedStem(stem, otherStem) || isNumberedStem(otherStem, stem) {
				return warnings, fmt.Errorf("%w: sources '%s' and '%s' have overlapping sitemap file names ('%s', '%s')",
					utils.ErrConfigValidation, other, src.Name, otherStem, stem)
			}
		}
		stems[stem] = src.Name
	}

	return warnings, nil
}

// isNumberedStem reports whether name is "<stem>-<n>" for some n >= 1 written
// without leading zeros, the form used for a source's second and later files.
func isNumberedStem(name, stem string) bool {
	seq, ok := strings.CutPrefix(name, stem+"-")
	if !ok || seq == "" || seq[0] == '0' {
		return false
	}
	for _, r := range seq {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 10
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
	if strings.TrimSpace(h.UserAgent) == "" {
		h.UserAgent = DefaultUserAgent
	}
}

// Validate checks SourceConfig fields for its type and applies defaults.
// Returns collected warnings and any fatal error.
func (c *SourceConfig) Validate() (warnings []string, err error) {
	// Required: Name
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: source needs a name", utils.ErrConfigValidation)
	}

	// MaxURLsPerFile override (0 = inherit)
	if c.MaxURLsPerFile < 0 {
		warnings = append(warnings, "max_urls_per_file cannot be negative, inheriting global limit")
		c.MaxURLsPerFile = 0
	} else if c.MaxURLsPerFile > 0 {
		c.MaxURLsPerFile, warnings = clampURLLimit("max_urls_per_file", c.MaxURLsPerFile, parse.MaxURLsPerFile, warnings)
	}

	switch c.Type {
	case SourceTypeStatic:
		if len(c.Pages) == 0 {
			warnings = append(warnings, "static source has no pages, it will produce no sitemap files")
		}
		for i, p := range c.Pages {
			if p.Loc == "" {
				return warnings, fmt.Errorf("%w: page %d has no loc", utils.ErrConfigValidation, i)
			}
		}

	case SourceTypeHTMLDir:
		if c.Dir == "" {
			return warnings, fmt.Errorf("%w: htmldir source needs dir", utils.ErrConfigValidation)
		}
		if len(c.Patterns) == 0 {
			c.Patterns = []string{"**/*.html"}
		}
		for _, p := range append(append([]string{}, c.Patterns...), c.Exclude...) {
			if !doublestar.ValidatePattern(p) {
				return warnings, fmt.Errorf("%w: invalid glob pattern '%s'", utils.ErrConfigValidation, p)
			}
		}

	case SourceTypeSQL, SourceTypePostgres:
		if c.Type == SourceTypeSQL && c.Driver == "" {
			c.Driver = "sqlite"
		}
		if c.DSN == "" {
			return warnings, fmt.Errorf("%w: %s source needs dsn", utils.ErrConfigValidation, c.Type)
		}
		if strings.TrimSpace(c.Query) == "" {
			return warnings, fmt.Errorf("%w: %s source needs query", utils.ErrConfigValidation, c.Type)
		}
		switch c.Batching {
		case "":
			c.Batching = BatchingCursor
		case BatchingCursor:
		case BatchingOffset:
			if c.Type == SourceTypePostgres {
				warnings = append(warnings, "postgres sources always stream rows, ignoring batching 'offset'")
				c.Batching = BatchingCursor
			}
		default:
			return warnings, fmt.Errorf("%w: batching '%s' must be '%s' or '%s'",
				utils.ErrConfigValidation, c.Batching, BatchingCursor, BatchingOffset)
		}

	case "":
		return warnings, fmt.Errorf("%w: source needs a type", utils.ErrConfigValidation)
	default:
		return warnings, fmt.Errorf("%w: unknown source type '%s'", utils.ErrConfigValidation, c.Type)
	}

	return warnings, nil
}

func clampURLLimit(field string, v, ceiling int, warnings []string) (int, []string) {
	if v <= 0 {
		return ceiling, warnings
	}
	if v > ceiling {
		return ceiling, append(warnings, fmt.Sprintf("%s %d exceeds the protocol limit, capping at %d", field, v, ceiling))
	}
	return v, warnings
}
