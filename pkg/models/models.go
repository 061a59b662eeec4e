package models

import (
	"path/filepath"
	"time"
)

// IndexEntry describes one sitemap file produced during a generation pass.
// Entries are collected per source and consumed once when the index is built.
type IndexEntry struct {
	SourceName string `json:"source_name"`
	Date       string `json:"date,omitempty"` // Last-modified of the first item in the file, verbatim from the source
	FilePath   string `json:"file_path"`      // Logical path, always ending in .xml
	URLCount   int    `json:"url_count"`
}

// FileName returns the base name of the logical sitemap file.
func (e IndexEntry) FileName() string {
	return filepath.Base(e.FilePath)
}

// SourceResult summarizes the generation pass of a single source.
type SourceResult struct {
	Name      string        `json:"name"`
	Status    RunStatus     `json:"status"`
	Files     int           `json:"files"`
	URLs      int           `json:"urls"`
	ErrorType string        `json:"error_type,omitempty"` // Error category (on failure)
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// RunRecord is the persisted summary of one orchestrated generation run.
type RunRecord struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Status       RunStatus      `json:"status"`
	Sources      []SourceResult `json:"sources"`
	IndexPath    string         `json:"index_path,omitempty"`
	IndexHash    string         `json:"index_hash,omitempty"`
	Entries      int            `json:"entries"`
	Changed      bool           `json:"changed"`
	Pinged       bool           `json:"pinged"`
	ErrorType    string         `json:"error_type,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// TotalURLs sums the URL counts across all sources in the run.
func (r RunRecord) TotalURLs() int {
	total := 0
	for _, s := range r.Sources {
		total += s.URLs
	}
	return total
}
