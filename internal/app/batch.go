package app

import (
	"context"

	"github.com/yourusername/osz-extract-go/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchParallelism is used when RunAll is given a non-positive limit
const DefaultBatchParallelism = 3

// RunAll acquires every request with at most parallel pipelines running at once.
// A failed request does not stop the others; results are returned in request order.
func (o *Orchestrator) RunAll(ctx context.Context, reqs []domain.DownloadRequest, parallel int) []domain.AcquireResult {
	if parallel <= 0 {
		parallel = DefaultBatchParallelism
	}

	results := make([]domain.AcquireResult, len(reqs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				results[i] = domain.AcquireResult{ContentID: req.ContentID, Error: domain.ErrCancelled.Error(), Err: domain.ErrCancelled}
				return nil
			}
			results[i] = o.Run(gCtx, req)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Succeeded counts the successful results
func Succeeded(results []domain.AcquireResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
