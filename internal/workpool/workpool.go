// Package workpool splits index ranges across a bounded set of goroutines.
package workpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny inputs on a single goroutine.
const minChunk = 64

// Workers resolves a configured worker count. Zero or less means GOMAXPROCS.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ForEachChunk calls fn for contiguous half-open ranges [start, end) that
// together cover [0, n). At most workers ranges run concurrently. The first
// error returned by fn cancels the remaining ranges and is returned.
func ForEachChunk(ctx context.Context, n, workers int, fn func(ctx context.Context, start, end int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	workers = Workers(workers)
	chunk := (n + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, start, end)
		})
	}

	return g.Wait()
}
