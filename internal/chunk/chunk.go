// Package chunk runs an operation over a slice in fixed-size batches.
// Items within a batch run concurrently, batches run sequentially, so the
// configured size caps in-flight calls against rate-limited upstreams.
package chunk

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Split partitions items into contiguous batches of at most size elements.
func Split[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

// Run applies fn to every item, size items at a time. A batch completes
// fully before the next one starts. Output order matches input order and
// the output length equals the input length. The first failing operation
// fails the whole run.
func Run[T, U any](ctx context.Context, items []T, size int, fn func(context.Context, T) (U, error)) ([]U, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be greater than zero")
	}

	out := make([]U, len(items))
	offset := 0
	for _, batch := range Split(items, size) {
		g, gctx := errgroup.WithContext(ctx)
		for j := range batch {
			idx := offset + j
			item := batch[j]
			g.Go(func() error {
				result, err := fn(gctx, item)
				if err != nil {
					return err
				}
				out[idx] = result
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		offset += len(batch)
	}

	return out, nil
}
