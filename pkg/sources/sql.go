package sources

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// SQLSource reads (path, lastmod) rows through database/sql.
// It serves both pagination styles: NextBatch streams a single query,
// Items re-runs the query with LIMIT/OFFSET appended.
type SQLSource struct {
	pageSource
	domain string
	db     *sql.DB
	query  string
	rows   *sql.Rows // Open cursor between NextBatch calls
	done   bool
	log    *logrus.Entry
}

// OpenSQL opens and pings the database. driver is any registered
// database/sql driver name; "sqlite" is always available.
func OpenSQL(ctx context.Context, name, domain, driver, dsn, query string, log *logrus.Entry) (*SQLSource, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s database: %w", utils.ErrDatabase, driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s database: %w", utils.ErrDatabase, driver, err)
	}
	return NewSQL(name, domain, db, query, log), nil
}

// NewSQL wraps an already open database; Close closes it.
func NewSQL(name, domain string, db *sql.DB, query string, log *logrus.Entry) *SQLSource {
	return &SQLSource{
		pageSource: pageSource{name: name},
		domain:     domain,
		db:         db,
		query:      strings.TrimRight(strings.TrimSpace(query), ";"),
		log:        log,
	}
}

// NextBatch implements sitemap.CursorBatchedSource
func (s *SQLSource) NextBatch(ctx context.Context, limit int) ([]Page, error) {
	if s.done {
		return nil, nil
	}
	if s.rows == nil {
		rows, err := s.db.QueryContext(ctx, s.query)
		if err != nil {
			return nil, fmt.Errorf("%w: query: %w", utils.ErrDatabase, err)
		}
		s.rows = rows
	}

	pages := make([]Page, 0, limit)
	for len(pages) < limit && s.rows.Next() {
		page, err := s.scan(s.rows)
		if err != nil {
			s.closeRows()
			return nil, err
		}
		pages = append(pages, page)
	}
	if len(pages) < limit {
		if err := s.rows.Err(); err != nil {
			s.closeRows()
			return nil, fmt.Errorf("%w: iterate rows: %w", utils.ErrDatabase, err)
		}
		s.closeRows()
		s.done = true
	}
	return pages, nil
}

// Items implements sitemap.OffsetPagedSource
func (s *SQLSource) Items(ctx context.Context, offset, limit int) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, s.query+" LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: query at offset %d: %w", utils.ErrDatabase, offset, err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		page, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate rows: %w", utils.ErrDatabase, err)
	}
	return pages, nil
}

func (s *SQLSource) scan(rows *sql.Rows) (Page, error) {
	var loc sql.NullString
	var lastmod any
	if err := rows.Scan(&loc, &lastmod); err != nil {
		return Page{}, fmt.Errorf("%w: scan row (query must select path, lastmod): %w", utils.ErrDatabase, err)
	}
	path, err := toSitePath(s.domain, loc.String)
	if err != nil {
		return Page{}, err
	}
	return Page{Path: path, LastMod: formatLastmod(lastmod)}, nil
}

func (s *SQLSource) closeRows() {
	if s.rows != nil {
		if err := s.rows.Close(); err != nil {
			s.log.Debugf("Closing rows for source '%s': %v", s.name, err)
		}
		s.rows = nil
	}
}

// Close releases the cursor and the database
func (s *SQLSource) Close() error {
	s.closeRows()
	return s.db.Close()
}
