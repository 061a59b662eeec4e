package parse

import "encoding/xml"

// Sitemap protocol namespaces and schema locations.
const (
	SitemapNamespace     = "http://www.sitemaps.org/schemas/sitemap/0.9"
	XSINamespace         = "http://www.w3.org/2001/XMLSchema-instance"
	URLSetSchemaLocation = SitemapNamespace + " " + SitemapNamespace + "/sitemap.xsd"
	IndexSchemaLocation  = SitemapNamespace + " " + SitemapNamespace + "/siteindex.xsd"
)

// MaxURLsPerFile is the protocol ceiling on <url> entries in one sitemap file.
const MaxURLsPerFile = 50000

// --- XML Structs for Sitemap Rendering ---

// XMLURL represents a <url> element in a sitemap
type XMLURL struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
	Priority string `xml:"priority,omitempty"`
}

// XMLURLSet represents a <urlset> element in a sitemap.
// Attribute order follows field order, so the xsi attributes precede xmlns.
type XMLURLSet struct {
	XMLName        xml.Name `xml:"urlset"`
	XSI            string   `xml:"xmlns:xsi,attr,omitempty"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr,omitempty"`
	Xmlns          string   `xml:"xmlns,attr"`
	URLs           []XMLURL `xml:"url"`
}

// XMLSitemap represents a <sitemap> element in a sitemap index file
type XMLSitemap struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// XMLSitemapIndex represents a <sitemapindex> element
type XMLSitemapIndex struct {
	XMLName        xml.Name     `xml:"sitemapindex"`
	XSI            string       `xml:"xmlns:xsi,attr,omitempty"`
	SchemaLocation string       `xml:"xsi:schemaLocation,attr,omitempty"`
	Xmlns          string       `xml:"xmlns,attr"`
	Sitemaps       []XMLSitemap `xml:"sitemap"`
}

// NewURLSet returns an empty urlset root carrying the protocol namespace and,
// when withSchema is set, the XSD schema location.
func NewURLSet(withSchema bool) XMLURLSet {
	set := XMLURLSet{Xmlns: SitemapNamespace}
	if withSchema {
		set.XSI = XSINamespace
		set.SchemaLocation = URLSetSchemaLocation
	}
	return set
}

// NewSitemapIndex is the <sitemapindex> counterpart of NewURLSet.
func NewSitemapIndex(withSchema bool) XMLSitemapIndex {
	idx := XMLSitemapIndex{Xmlns: SitemapNamespace}
	if withSchema {
		idx.XSI = XSINamespace
		idx.SchemaLocation = IndexSchemaLocation
	}
	return idx
}

// MarshalDocument serializes v as a compact XML document prefixed with the standard prolog.
func MarshalDocument(v any) ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := make([]byte, 0, len(xml.Header)+len(body))
	doc = append(doc, xml.Header...)
	doc = append(doc, body...)
	return doc, nil
}
