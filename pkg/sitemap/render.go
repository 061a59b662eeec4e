package sitemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sriram-PR/fast-sitemap/pkg/parse"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// renderURLSet builds one sitemap document for a batch, in input order.
func renderURLSet[T any](items []T, src Source[T], domain string, withPriority, withSchema bool) ([]byte, error) {
	set := parse.NewURLSet(withSchema)
	set.URLs = make([]parse.XMLURL, len(items))

	var priorities []string
	if withPriority {
		priorities = Priorities(len(items))
	}
	for i, item := range items {
		u := parse.XMLURL{
			Loc:     domain + src.URL(item),
			LastMod: src.LastModified(item),
		}
		if withPriority {
			u.Priority = priorities[i]
		}
		set.URLs[i] = u
	}

	doc, err := parse.MarshalDocument(set)
	if err != nil {
		return nil, fmt.Errorf("%w: encode XML for %s: %w", utils.ErrParsing, src.Name(), err)
	}
	return doc, nil
}

// Priorities returns n priority values starting at 1 and decreasing by 1/n,
// computed by repeated subtraction.
func Priorities(n int) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	p := 1.0
	step := 1 / float64(n)
	for i := range out {
		out[i] = FormatPriority(p)
		p -= step
	}
	return out
}

// FormatPriority formats p with five decimals, dropping trailing zeros and a trailing point.
func FormatPriority(p float64) string {
	s := strconv.FormatFloat(p, 'f', 5, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-0" {
		return "0"
	}
	return s
}
