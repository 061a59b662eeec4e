package sources

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/fast-sitemap/pkg/config"
	"github.com/Sriram-PR/fast-sitemap/pkg/sitemap"
	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the generation job for a validated source configuration.
// The returned closer releases database handles and must be called once the
// job has run.
func Open(ctx context.Context, sc config.SourceConfig, domain string, log *logrus.Entry) (sitemap.Job, io.Closer, error) {
	log = log.WithField("source", sc.Name)

	switch sc.Type {
	case config.SourceTypeStatic:
		src, err := NewStatic(sc.Name, domain, sc.Pages)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", utils.ErrSource, sc.Name, err)
		}
		return sitemap.FromPaged[Page](src), nopCloser{}, nil

	case config.SourceTypeHTMLDir:
		src, err := NewHTMLDir(sc.Name, domain, sc.Dir, sc.Patterns, sc.Exclude, log)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", utils.ErrSource, sc.Name, err)
		}
		return sitemap.FromPaged[Page](src), nopCloser{}, nil

	case config.SourceTypeSQL:
		src, err := OpenSQL(ctx, sc.Name, domain, sc.Driver, sc.DSN, sc.Query, log)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", utils.ErrSource, sc.Name, err)
		}
		if sc.Batching == config.BatchingOffset {
			return sitemap.FromPaged[Page](src), src, nil
		}
		return sitemap.FromCursor[Page](src), src, nil

	case config.SourceTypePostgres:
		src, err := OpenPostgres(ctx, sc.Name, domain, sc.DSN, sc.Query, log)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", utils.ErrSource, sc.Name, err)
		}
		return sitemap.FromCursor[Page](src), src, nil
	}
	return nil, nil, fmt.Errorf("%w: source '%s' has unknown type '%s'", utils.ErrConfigValidation, sc.Name, sc.Type)
}
