package sources

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// PostgresSource streams (path, lastmod) rows from a single PostgreSQL query
type PostgresSource struct {
	pageSource
	domain string
	pool   *pgxpool.Pool
	query  string
	rows   pgx.Rows
	done   bool
	log    *logrus.Entry
}

// OpenPostgres connects a pool and verifies it with a ping
func OpenPostgres(ctx context.Context, name, domain, dsn, query string, log *logrus.Entry) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %w", utils.ErrDatabase, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", utils.ErrDatabase, err)
	}
	return &PostgresSource{
		pageSource: pageSource{name: name},
		domain:     domain,
		pool:       pool,
		query:      query,
		log:        log,
	}, nil
}

// NextBatch implements sitemap.CursorBatchedSource
func (s *PostgresSource) NextBatch(ctx context.Context, limit int) ([]Page, error) {
	if s.done {
		return nil, nil
	}
	if s.rows == nil {
		rows, err := s.pool.Query(ctx, s.query)
		if err != nil {
			return nil, fmt.Errorf("%w: query: %w", utils.ErrDatabase, err)
		}
		s.rows = rows
	}

	pages := make([]Page, 0, limit)
	for len(pages) < limit && s.rows.Next() {
		var loc string
		var lastmod any
		if err := s.rows.Scan(&loc, &lastmod); err != nil {
			s.closeRows()
			return nil, fmt.Errorf("%w: scan row (query must select path, lastmod): %w", utils.ErrDatabase, err)
		}
		path, err := toSitePath(s.domain, loc)
		if err != nil {
			s.closeRows()
			return nil, err
		}
		pages = append(pages, Page{Path: path, LastMod: formatLastmod(lastmod)})
	}
	if len(pages) < limit {
		err := s.rows.Err()
		s.closeRows()
		if err != nil {
			return nil, fmt.Errorf("%w: iterate rows: %w", utils.ErrDatabase, err)
		}
		s.done = true
	}
	return pages, nil
}

func (s *PostgresSource) closeRows() {
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}
}

// Close releases the cursor and the pool
func (s *PostgresSource) Close() error {
	s.closeRows()
	s.pool.Close()
	return nil
}
