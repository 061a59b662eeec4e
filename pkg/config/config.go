package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Index rendering styles
const (
	IndexStyleSitemapIndex = "sitemapindex" // <sitemapindex> with <sitemap> children (protocol standard)
	IndexStyleURLSet       = "urlset"       // Flat <urlset> listing the sitemap files as <url> entries
)

// Source adapter types
const (
	SourceTypeStatic   = "static"
	SourceTypeHTMLDir  = "htmldir"
	SourceTypeSQL      = "sql"
	SourceTypePostgres = "postgres"
)

// DefaultHistoryLimit is the number of run records retained when history_limit is unset
const DefaultHistoryLimit = 100

// Batching modes for SQL sources
const (
	BatchingCursor = "cursor"
	BatchingOffset = "offset"
)

// StaticPage is one URL listed directly in the configuration
type StaticPage struct {
	Loc     string `yaml:"loc"`
	LastMod string `yaml:"lastmod,omitempty"`
}

// SourceConfig describes one source adapter; its name is the sitemap filename stem
type SourceConfig struct {
	Name            string `yaml:"name"`
	Type            string `yaml:"type"`
	MaxURLsPerFile  int    `yaml:"max_urls_per_file,omitempty"` // Overrides the global limit when > 0
	IncludePriority *bool  `yaml:"include_priority,omitempty"`

	// static
	Pages []StaticPage `yaml:"pages,omitempty"`

	// htmldir
	Dir      string   `yaml:"dir,omitempty"`
	Patterns []string `yaml:"patterns,omitempty"` // doublestar globs relative to Dir
	Exclude  []string `yaml:"exclude,omitempty"`

	// sql / postgres
	Driver   string `yaml:"driver,omitempty"` // database/sql driver name, sql only
	DSN      string `yaml:"dsn,omitempty"`
	Query    string `yaml:"query,omitempty"` // Must select (path, lastmod)
	Batching string `yaml:"batching,omitempty"`
}

// SearchEngine is a ping endpoint; the index URL is sent as the Param query parameter
type SearchEngine struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Param string `yaml:"param"`
}

// RobotsConfig controls maintenance of the Sitemap directive in robots.txt
type RobotsConfig struct {
	Manage bool   `yaml:"manage"`
	Path   string `yaml:"path,omitempty"` // Defaults to <output_path>/robots.txt
}

// AppConfig holds the global application configuration
type AppConfig struct {
	Domain                string           `yaml:"domain"`
	OutputPath            string           `yaml:"output_path"`
	IndexSitemapName      string           `yaml:"index_sitemap_name"`
	MaxURLsPerFile        int              `yaml:"max_urls_per_file"`
	CompressWithGzip      *bool            `yaml:"compress_with_gzip,omitempty"`
	PingSearchEngines     *bool            `yaml:"ping_search_engines,omitempty"`
	IndexStyle            string           `yaml:"index_style,omitempty"`
	IncludePriority       *bool            `yaml:"include_priority,omitempty"`
	IncludeSchemaLocation *bool            `yaml:"include_schema_location,omitempty"`
	PingTimeout           time.Duration    `yaml:"ping_timeout,omitempty"`
	MaxRetries            int              `yaml:"max_retries,omitempty"` // Ping retries on network errors, 5xx and 429
	InitialRetryDelay     time.Duration    `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay         time.Duration    `yaml:"max_retry_delay,omitempty"`
	SearchEngines         []SearchEngine   `yaml:"search_engines,omitempty"`
	StateDir              string           `yaml:"state_dir"`
	HistoryLimit          int              `yaml:"history_limit,omitempty"` // Run records kept in the state store
	ContinueOnSourceError bool             `yaml:"continue_on_source_error,omitempty"`
	HTTPClientSettings    HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Robots                RobotsConfig     `yaml:"robots,omitempty"`
	Sources               []SourceConfig   `yaml:"sources"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
	UserAgent             string        `yaml:"user_agent,omitempty"`              // Sent with every ping
}

// DefaultUserAgent identifies ping requests when http_client_settings.user_agent is unset
const DefaultUserAgent = "fast-sitemap/1.0 (+https://github.com/Sriram-PR/fast-sitemap)"

// DefaultSearchEngines are pinged when search_engines is not configured
func DefaultSearchEngines() []SearchEngine {
	return []SearchEngine{
		{Name: "google", URL: "https://www.google.com/ping", Param: "sitemap"},
		{Name: "bing", URL: "https://www.bing.com/webmaster/ping.aspx", Param: "siteMap"},
	}
}

// Load reads and decodes a YAML configuration file. Unknown keys are rejected.
// It does not validate; call Validate on the result.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file '%s': %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg AppConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file '%s': %w", path, err)
	}
	return &cfg, nil
}

// FindSource returns the source config with the given name
func (c *AppConfig) FindSource(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// GetEffectiveCompress reports whether sitemap files are gzip-compressed (default true)
func GetEffectiveCompress(appCfg AppConfig) bool {
	return boolOr(appCfg.CompressWithGzip, true)
}

// GetEffectivePing reports whether search engines are notified on change (default true)
func GetEffectivePing(appCfg AppConfig) bool {
	return boolOr(appCfg.PingSearchEngines, true)
}

// GetEffectiveIncludeSchemaLocation reports whether xsi:schemaLocation is rendered (default true)
func GetEffectiveIncludeSchemaLocation(appCfg AppConfig) bool {
	return boolOr(appCfg.IncludeSchemaLocation, true)
}

// GetEffectiveIncludePriority determines whether <priority> is rendered for a source.
// Source config overrides global; both unset means true.
func GetEffectiveIncludePriority(srcCfg SourceConfig, appCfg AppConfig) bool {
	if srcCfg.IncludePriority != nil {
		return *srcCfg.IncludePriority
	}
	return boolOr(appCfg.IncludePriority, true)
}

// GetEffectiveIndexIncludePriority determines whether a flat urlset index renders <priority>
func GetEffectiveIndexIncludePriority(appCfg AppConfig) bool {
	return boolOr(appCfg.IncludePriority, true)
}

// GetEffectiveMaxURLsPerFile determines the per-file URL limit for a source
func GetEffectiveMaxURLsPerFile(srcCfg SourceConfig, appCfg AppConfig) int {
	if srcCfg.MaxURLsPerFile > 0 {
		return srcCfg.MaxURLsPerFile
	}
	return appCfg.MaxURLsPerFile
}

// GetEffectiveRobotsPath returns the robots.txt location
func GetEffectiveRobotsPath(appCfg AppConfig) string {
	if appCfg.Robots.Path != "" {
		return appCfg.Robots.Path
	}
	return filepath.Join(appCfg.OutputPath, "robots.txt")
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}
