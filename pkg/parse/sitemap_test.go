package parse

import (
	"encoding/xml"
	"strings"
	"testing"
)

// --- Rendering Tests ---

func TestMarshalDocument_URLSetWithoutSchema(t *testing.T) {
	set := NewURLSet(false)
	set.URLs = []XMLURL{
		{Loc: "https://example.com/a", LastMod: "2024-01-01", Priority: "1"},
		{Loc: "https://example.com/b"},
	}

	got, err := MarshalDocument(set)
	if err != nil {
		t.Fatalf("MarshalDocument() error = %v", err)
	}

	want := xml.Header +
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` +
		`<url><loc>https://example.com/a</loc><lastmod>2024-01-01</lastmod><priority>1</priority></url>` +
		`<url><loc>https://example.com/b</loc></url>` +
		`</urlset>`
	if string(got) != want {
		t.Errorf("MarshalDocument() =\n%s\nwant\n%s", got, want)
	}
}

func TestMarshalDocument_URLSetWithSchema(t *testing.T) {
	got, err := MarshalDocument(NewURLSet(true))
	if err != nil {
		t.Fatalf("MarshalDocument() error = %v", err)
	}
	doc := string(got)

	wantRoot := `<urlset xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" ` +
		`xsi:schemaLocation="http://www.sitemaps.org/schemas/sitemap/0.9 http://www.sitemaps.org/schemas/sitemap/0.9/sitemap.xsd" ` +
		`xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	if !strings.Contains(doc, wantRoot) {
		t.Errorf("document root = %s, want prefix %s", doc, wantRoot)
	}
	if strings.Contains(doc, "<url>") {
		t.Errorf("empty urlset rendered <url> elements: %s", doc)
	}
}

func TestMarshalDocument_EscapesLoc(t *testing.T) {
	set := NewURLSet(false)
	set.URLs = []XMLURL{{Loc: "https://example.com/search?a=1&b=<2>"}}

	got, err := MarshalDocument(set)
	if err != nil {
		t.Fatalf("MarshalDocument() error = %v", err)
	}
	if !strings.Contains(string(got), "<loc>https://example.com/search?a=1&amp;b=&lt;2&gt;</loc>") {
		t.Errorf("loc not escaped: %s", got)
	}
}

func TestMarshalDocument_SitemapIndex(t *testing.T) {
	idx := NewSitemapIndex(true)
	idx.Sitemaps = []XMLSitemap{
		{Loc: "https://example.com/products-1.xml.gz", LastMod: "2024-01-03T00:00:00+00:00"},
		{Loc: "https://example.com/pages.xml.gz"},
	}

	got, err := MarshalDocument(idx)
	if err != nil {
		t.Fatalf("MarshalDocument() error = %v", err)
	}
	doc := string(got)

	if !strings.HasPrefix(doc, xml.Header+"<sitemapindex ") {
		t.Errorf("unexpected document start: %s", doc)
	}
	if !strings.Contains(doc, IndexSchemaLocation) {
		t.Errorf("missing index schema location: %s", doc)
	}
	wantEntries := `<sitemap><loc>https://example.com/products-1.xml.gz</loc><lastmod>2024-01-03T00:00:00+00:00</lastmod></sitemap>` +
		`<sitemap><loc>https://example.com/pages.xml.gz</loc></sitemap></sitemapindex>`
	if !strings.HasSuffix(doc, wantEntries) {
		t.Errorf("document = %s, want suffix %s", doc, wantEntries)
	}
}

// --- Round trip through the decoder ---

func TestXMLURLSet_Unmarshal(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/page1</loc><lastmod>2024-01-15</lastmod><priority>0.5</priority></url>
  <url><loc>https://example.com/page2</loc></url>
</urlset>`

	var urlSet XMLURLSet
	if err := xml.Unmarshal([]byte(xmlData), &urlSet); err != nil {
		t.Fatalf("xml.Unmarshal() error = %v", err)
	}
	if len(urlSet.URLs) != 2 {
		t.Fatalf("len(URLs) = %d, want 2", len(urlSet.URLs))
	}
	if urlSet.URLs[0].Priority != "0.5" {
		t.Errorf("URLs[0].Priority = %q, want %q", urlSet.URLs[0].Priority, "0.5")
	}
	if urlSet.URLs[1].LastMod != "" {
		t.Errorf("URLs[1].LastMod = %q, want empty", urlSet.URLs[1].LastMod)
	}
}
