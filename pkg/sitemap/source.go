package sitemap

import (
	"context"

	"github.com/Sriram-PR/fast-sitemap/pkg/models"
)

// Source supplies the identity of an adapter and per-item URL and last-modified.
// Name is used as the sitemap filename stem.
// URL returns the site-relative path appended verbatim to the domain.
// LastModified returns "" when unknown.
type Source[T any] interface {
	Name() string
	URL(item T) string
	LastModified(item T) string
}

// OffsetPagedSource returns items by offset and limit; an empty page ends the stream.
type OffsetPagedSource[T any] interface {
	Source[T]
	Items(ctx context.Context, offset, limit int) ([]T, error)
}

// CursorBatchedSource streams items, returning at most limit per call,
// and an empty batch once exhausted.
type CursorBatchedSource[T any] interface {
	Source[T]
	NextBatch(ctx context.Context, limit int) ([]T, error)
}

// Job is a source bound to its pagination strategy, ready for Generator.Generate.
// Construct one with FromPaged or FromCursor.
type Job interface {
	Name() string
	run(ctx context.Context, g *Generator) ([]models.IndexEntry, error)
}

type pagedJob[T any] struct {
	src OffsetPagedSource[T]
}

// FromPaged wraps an offset-paged source.
func FromPaged[T any](src OffsetPagedSource[T]) Job {
	return pagedJob[T]{src: src}
}

func (j pagedJob[T]) Name() string { return j.src.Name() }

func (j pagedJob[T]) run(ctx context.Context, g *Generator) ([]models.IndexEntry, error) {
	return generate[T](ctx, g, j.src, offsetBatches(j.src, g.opts.MaxURLsPerFile))
}

type cursorJob[T any] struct {
	src CursorBatchedSource[T]
}

// FromCursor wraps a cursor-batched source.
func FromCursor[T any](src CursorBatchedSource[T]) Job {
	return cursorJob[T]{src: src}
}

func (j cursorJob[T]) Name() string { return j.src.Name() }

func (j cursorJob[T]) run(ctx context.Context, g *Generator) ([]models.IndexEntry, error) {
	return generate[T](ctx, g, j.src, cursorBatches(j.src, g.opts.MaxURLsPerFile))
}
