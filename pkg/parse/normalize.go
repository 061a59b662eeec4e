package parse

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// NormalizeURL standardizes a URL for comparison and storage
// It lowercases the scheme and host, removes default ports (80 for http, 443 for https), removes trailing slashes from paths (unless root "/"), ensures empty path becomes "/", and removes fragments
// The query string is kept since sitemap locations may legitimately carry one
// Does not modify the input *url.URL
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	host, port, err := net.SplitHostPort(normalized.Host)
	if err == nil {
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	if normalized.Path == "" {
		normalized.Path = "/"
	} else if len(normalized.Path) > 1 && strings.HasSuffix(normalized.Path, "/") {
		normalized.Path = normalized.Path[:len(normalized.Path)-1]
	}

	normalized.Fragment = ""

	return normalized.String()
}

// NormalizeDomain validates a site origin and returns it without a trailing slash,
// e.g. "HTTPS://Example.com:443/" becomes "https://example.com".
// A path prefix is preserved ("https://example.com/shop").
func NormalizeDomain(raw string) (string, error) {
	parsed, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: invalid domain URL %q: %w", utils.ErrParsing, raw, err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: domain URL %q must use http or https", utils.ErrParsing, raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: domain URL %q has no host", utils.ErrParsing, raw)
	}
	if parsed.RawQuery != "" {
		return "", fmt.Errorf("%w: domain URL %q must not carry a query string", utils.ErrParsing, raw)
	}
	return strings.TrimSuffix(NormalizeURL(parsed), "/"), nil
}

// SitePath converts an absolute URL on the given domain into the path
// (with query) that, appended to the domain, reproduces it. Only the origin is
// normalized for the comparison; the path and query are returned as written.
// ok is false when the URL points to another origin.
func SitePath(domain string, absolute string) (path string, ok bool) {
	target, err := url.Parse(absolute)
	if err != nil || !target.IsAbs() {
		return "", false
	}
	origin := url.URL{Scheme: target.Scheme, Host: target.Host}
	full := strings.TrimSuffix(NormalizeURL(&origin), "/")
	if p := target.EscapedPath(); p != "" {
		full += p
	} else {
		full += "/"
	}
	if target.RawQuery != "" {
		full += "?" + target.RawQuery
	}

	prefix := strings.TrimSuffix(domain, "/")
	if full == prefix {
		return "/", true
	}
	if !strings.HasPrefix(full, prefix+"/") {
		return "", false
	}
	return strings.TrimPrefix(full, prefix), true
}
