// Package analytics records every insights computation and every failed
// aggregation to a data collector, one structured entry each.
package analytics

import (
	"github.com/fernandosegrr/Webhook-HUB/insights"
)

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const NOOP_DATA_COLLECTOR DataCollectorType = ""
const LOG_FILE_DATA_COLLECTOR DataCollectorType = "log-file"

type InsightsDataCollector interface {
	RecordInsights(server string, workflowID string, source string, report insights.Report)
	RecordAggregationFailure(server string, workflowID string, reason string)
}

var insightsCollector InsightsDataCollector = noopDataCollector{}

func InitDataCollector(config DataCollectorConfig) error {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		c, err := NewLogFileDataCollector(config.FileName)
		if err != nil {
			return err
		}
		insightsCollector = c
	default:
		insightsCollector = noopDataCollector{}
	}
	return nil
}

func RecordInsights(server string, workflowID string, source string, report insights.Report) {
	insightsCollector.RecordInsights(server, workflowID, source, report)
}

func RecordAggregationFailure(server string, workflowID string, reason string) {
	insightsCollector.RecordAggregationFailure(server, workflowID, reason)
}

type noopDataCollector struct{}

func (noopDataCollector) RecordInsights(string, string, string, insights.Report) {}

func (noopDataCollector) RecordAggregationFailure(string, string, string) {}
