// Package insights turns an aggregated execution collection into the
// numbers and daily series shown on the analytics view.
package insights

import (
	"math"
	"time"

	"github.com/fernandosegrr/Webhook-HUB/execution"
	"github.com/fernandosegrr/Webhook-HUB/model"
)

const (
	day = 24 * time.Hour
	// MaxRunTime excludes stuck executions and clock skew from the average.
	MaxRunTime = time.Hour
	dateLayout = "2006-01-02"
)

type DailyBucket struct {
	Date    string `json:"date"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
}

type Report struct {
	Days           int           `json:"days"`
	Total          int           `json:"total"`
	Success        int           `json:"success"`
	Failed         int           `json:"failed"`
	FailureRate    float64       `json:"failureRate"`
	AvgRunTimeMs   float64       `json:"avgRunTime"`
	TotalRunTimeMs float64       `json:"totalTime"`
	Daily          []DailyBucket `json:"daily"`
}

// Compute summarizes the executions started within the last days days of
// now. The lower bound is inclusive. Anything that did not succeed counts as
// failed, running executions included.
func Compute(execs []model.Execution, days int, now time.Time) Report {
	if days < 0 {
		days = 0
	}
	now = now.UTC()
	since := now.Add(-time.Duration(days) * day)
	r := Report{Days: days, Daily: emptyBuckets(days, now)}
	index := make(map[string]int, len(r.Daily))
	for i, b := range r.Daily {
		index[b.Date] = i
	}

	var runTime time.Duration
	timed := 0
	for i := range execs {
		e := &execs[i]
		if e.StartedAt == nil || e.StartedAt.Before(since) {
			continue
		}
		ok := execution.StatusOf(e) == execution.Success
		if ok {
			r.Success++
		} else {
			r.Failed++
		}
		if d, has := e.Duration(); has && d > 0 && d < MaxRunTime {
			runTime += d
			timed++
		}
		if bi, found := index[e.StartedAt.UTC().Format(dateLayout)]; found {
			b := &r.Daily[bi]
			if ok {
				b.Success++
			} else {
				b.Failed++
			}
			b.Total++
		}
	}

	r.Total = r.Success + r.Failed
	if r.Total > 0 {
		r.FailureRate = math.Round(float64(r.Failed)/float64(r.Total)*100*100) / 100
	}
	r.TotalRunTimeMs = float64(runTime) / float64(time.Millisecond)
	if timed > 0 {
		r.AvgRunTimeMs = r.TotalRunTimeMs / float64(timed)
	}
	return r
}

// emptyBuckets returns one zeroed bucket per calendar day (UTC), oldest
// first, ending with the day of now.
func emptyBuckets(days int, now time.Time) []DailyBucket {
	buckets := make([]DailyBucket, 0, days)
	for i := days - 1; i >= 0; i-- {
		buckets = append(buckets, DailyBucket{Date: now.Add(-time.Duration(i) * day).Format(dateLayout)})
	}
	return buckets
}

// MaxDaily is the tallest bar of the series, at least 1 so charts can
// divide by it.
func (r Report) MaxDaily() int {
	m := 1
	for _, b := range r.Daily {
		m = max(m, b.Total)
	}
	return m
}
