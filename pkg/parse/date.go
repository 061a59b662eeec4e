package parse

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// Layouts accepted for last-modified values, tried in order.
var lastmodLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01-02T15:04Z07:00", // W3C datetime without seconds
	time.RFC1123Z,
	time.RFC1123,
}

// Output layouts for index <lastmod> values.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05-07:00"
)

// ParseLastmod parses a last-modified value as produced by source adapters.
// Values without a zone are interpreted as UTC.
func ParseLastmod(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", utils.ErrParsing)
	}
	for _, layout := range lastmodLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", utils.ErrParsing, value)
}
