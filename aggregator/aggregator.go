// Package aggregator collects every execution record the server holds for a
// workflow, or for all workflows, by walking its cursor pagination.
package aggregator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fernandosegrr/Webhook-HUB/logger"
	"github.com/fernandosegrr/Webhook-HUB/model"
)

const (
	// PageSize is the largest page the executions endpoint serves.
	PageSize = 250
	// MaxPages bounds one aggregation to MaxPages*PageSize records. A server
	// that keeps returning cursors is cut off here and the records gathered
	// so far are returned.
	MaxPages = 20
)

// PageFetcher returns one page of executions. An empty cursor requests the
// first page; an empty NextCursor in the result marks the last page.
type PageFetcher interface {
	ExecutionPage(ctx context.Context, workflowID string, cursor string, limit int) (*model.ExecutionPage, error)
}

// Progress receives the number of records loaded so far, once per page.
type Progress func(loaded int)

type PageError struct {
	Page int
	Err  error
}

func (e PageError) Error() string {
	return fmt.Sprintf("fetching executions page %d: %v", e.Page, e.Err)
}

func (e PageError) Unwrap() error {
	return e.Err
}

type Aggregator struct {
	fetcher  PageFetcher
	maxPages int
}

func New(fetcher PageFetcher) *Aggregator {
	return &Aggregator{
		fetcher:  fetcher,
		maxPages: MaxPages,
	}
}

// FetchAll loads pages one after another until the server stops returning a
// cursor or MaxPages pages have been read. If any page fails nothing is
// returned besides that page's error, so callers never chart a silently
// truncated data set.
func (a *Aggregator) FetchAll(ctx context.Context, workflowID string, progress Progress) ([]model.Execution, error) {
	var all []model.Execution
	cursor := ""
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, PageError{Page: page, Err: err}
		}
		res, err := a.fetcher.ExecutionPage(ctx, workflowID, cursor, PageSize)
		if err != nil {
			logger.Error("error fetching executions page", zap.String("workflowId", workflowID), zap.Int("page", page), zap.Error(err))
			return nil, PageError{Page: page, Err: err}
		}
		all = append(all, res.Data...)
		if progress != nil {
			progress(len(all))
		}
		cursor = res.NextCursor
		if cursor == "" {
			break
		}
		if page >= a.maxPages {
			logger.Warn("execution page cap reached, returning partial collection",
				zap.String("workflowId", workflowID), zap.Int("pages", page), zap.Int("loaded", len(all)))
			break
		}
	}
	logger.Debug("executions aggregated", zap.String("workflowId", workflowID), zap.Int("loaded", len(all)))
	if all == nil {
		all = []model.Execution{}
	}
	return all, nil
}
