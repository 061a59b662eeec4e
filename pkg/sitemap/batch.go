package sitemap

import (
	"context"
	"fmt"

	"github.com/Sriram-PR/fast-sitemap/pkg/utils"
)

// batchFunc returns the next batch, or an empty batch when the source is exhausted
type batchFunc[T any] func(ctx context.Context) ([]T, error)

// offsetBatches pages through src with offset advancing by limit after every
// non-empty page. A short page does not end the stream, only an empty one does.
func offsetBatches[T any](src OffsetPagedSource[T], limit int) batchFunc[T] {
	offset := 0
	return func(ctx context.Context) ([]T, error) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", utils.ErrSource, src.Name(), err)
		}
		items, err := src.Items(ctx, offset, limit)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: page at offset %d: %w", utils.ErrSource, src.Name(), offset, err)
		}
		if len(items) > limit {
			return nil, fmt.Errorf("%w: %s: page at offset %d has %d items, limit %d: %w",
				utils.ErrSource, src.Name(), offset, len(items), limit, utils.ErrInvalidBatch)
		}
		if len(items) > 0 {
			offset += limit
		}
		return items, nil
	}
}

// cursorBatches pulls batches from src until it returns an empty one.
func cursorBatches[T any](src CursorBatchedSource[T], limit int) batchFunc[T] {
	batch := 0
	return func(ctx context.Context) ([]T, error) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", utils.ErrSource, src.Name(), err)
		}
		items, err := src.NextBatch(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: batch %d: %w", utils.ErrSource, src.Name(), batch, err)
		}
		if len(items) > limit {
			return nil, fmt.Errorf("%w: %s: batch %d has %d items, limit %d: %w",
				utils.ErrSource, src.Name(), batch, len(items), limit, utils.ErrInvalidBatch)
		}
		batch++
		return items, nil
	}
}
