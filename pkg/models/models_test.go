package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexEntry_FileName(t *testing.T) {
	entry := IndexEntry{SourceName: "products", FilePath: "/var/www/products-1.xml"}
	assert.Equal(t, "products-1.xml", entry.FileName())
}

func TestIndexEntry_OmitEmptyDate(t *testing.T) {
	data, err := json.Marshal(IndexEntry{SourceName: "pages", FilePath: "pages.xml", URLCount: 3})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"date"`)
}

func TestRunRecord_JSONRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second).UTC()
	rec := RunRecord{
		ID:         "5d3c0f9e-1111-4222-8333-944455556666",
		StartedAt:  now,
		FinishedAt: now.Add(2 * time.Second),
		Status:     RunStatusPartial,
		Sources: []SourceResult{
			{Name: "products", Status: RunStatusSuccess, Files: 2, URLs: 3},
			{Name: "posts", Status: RunStatusFailure, ErrorType: "Source_Other", Error: "boom"},
		},
		IndexPath: "/srv/sitemap.xml",
		IndexHash: "abc",
		Entries:   2,
		Changed:   true,
		Pinged:    true,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var got RunRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rec, got)
	assert.Equal(t, 3, got.TotalURLs())
}
