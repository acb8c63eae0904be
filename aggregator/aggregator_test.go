package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fernandosegrr/Webhook-HUB/model"
)

// fakeServer serves total records in pages of at most PageSize. When endless
// is set it never stops returning a cursor.
type fakeServer struct {
	total   int
	endless bool
	failOn  int
	calls   int
	cursors []string
	limits  []int
}

func (f *fakeServer) ExecutionPage(ctx context.Context, workflowID string, cursor string, limit int) (*model.ExecutionPage, error) {
	f.calls++
	f.cursors = append(f.cursors, cursor)
	f.limits = append(f.limits, limit)
	if f.calls == f.failOn {
		return nil, errors.New("upstream returned 500")
	}
	offset := 0
	if cursor != "" {
		offset, _ = strconv.Atoi(cursor)
	}
	page := &model.ExecutionPage{}
	for i := offset; i < offset+limit && (f.endless || i < f.total); i++ {
		page.Data = append(page.Data, model.Execution{ID: model.ID(strconv.Itoa(i)), WorkflowID: model.ID(workflowID)})
	}
	next := offset + limit
	if f.endless || next < f.total {
		page.NextCursor = strconv.Itoa(next)
	}
	return page, nil
}

func TestFetchAllPages(t *testing.T) {
	for scenario, total := range map[string]int{
		"empty":        0,
		"single page":  42,
		"exact page":   PageSize,
		"three pages":  2*PageSize + 1,
		"at the cap":   MaxPages * PageSize,
		"just one row": 1,
	} {
		t.Run(scenario, func(t *testing.T) {
			srv := &fakeServer{total: total}
			var seen []int

			execs, err := New(srv).FetchAll(context.Background(), "wf-1", func(loaded int) {
				seen = append(seen, loaded)
			})

			require.NoError(t, err)
			require.Len(t, execs, total)
			pages := max(1, (total+PageSize-1)/PageSize)
			require.Equal(t, pages, srv.calls)
			require.Len(t, seen, pages)
			require.Equal(t, total, seen[len(seen)-1])
			require.Equal(t, "", srv.cursors[0])
			for _, l := range srv.limits {
				require.Equal(t, PageSize, l)
			}
		})
	}
}

func TestFetchAllPagesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, MaxPages*PageSize).Draw(t, "total")
		srv := &fakeServer{total: total}
		var seen []int

		execs, err := New(srv).FetchAll(context.Background(), "", func(loaded int) {
			seen = append(seen, loaded)
		})

		require.NoError(t, err)
		require.Len(t, execs, total)
		require.Equal(t, srv.calls, len(seen))
		for i := 1; i < len(seen); i++ {
			require.Greater(t, seen[i], seen[i-1])
		}
	})
}

func TestFetchAllStopsAtPageCap(t *testing.T) {
	srv := &fakeServer{endless: true}
	calls := 0

	execs, err := New(srv).FetchAll(context.Background(), "", func(int) { calls++ })

	require.NoError(t, err)
	require.Equal(t, MaxPages, srv.calls)
	require.Equal(t, MaxPages, calls)
	require.Len(t, execs, MaxPages*PageSize)
}

func TestFetchAllCarriesCursor(t *testing.T) {
	srv := &fakeServer{total: 3 * PageSize}
	_, err := New(srv).FetchAll(context.Background(), "", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"", fmt.Sprint(PageSize), fmt.Sprint(2 * PageSize)}, srv.cursors)
}

func TestFetchAllDiscardsPartialResultsOnError(t *testing.T) {
	srv := &fakeServer{total: 5 * PageSize, failOn: 3}
	var seen []int

	execs, err := New(srv).FetchAll(context.Background(), "", func(loaded int) {
		seen = append(seen, loaded)
	})

	require.Nil(t, execs)
	var pageErr PageError
	require.ErrorAs(t, err, &pageErr)
	require.Equal(t, 3, pageErr.Page)
	require.Contains(t, err.Error(), "upstream returned 500")
	require.Equal(t, []int{PageSize, 2 * PageSize}, seen)
	require.Equal(t, 3, srv.calls)
}

func TestFetchAllCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := &fakeServer{total: 10}

	execs, err := New(srv).FetchAll(ctx, "", nil)

	require.Nil(t, execs)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, srv.calls)
}
