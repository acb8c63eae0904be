package analytics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fernandosegrr/Webhook-HUB/insights"
)

func TestLogFileDataCollector(t *testing.T) {
	file := filepath.Join(t.TempDir(), "insights.log")
	require.NoError(t, InitDataCollector(DataCollectorConfig{FileName: file, CollectorType: LOG_FILE_DATA_COLLECTOR}))
	t.Cleanup(func() { _ = InitDataCollector(DataCollectorConfig{}) })

	RecordInsights("https://n8n.example.com", "wf-1", "upstream", insights.Report{Days: 7, Total: 4, Failed: 1, FailureRate: 25})
	RecordAggregationFailure("https://n8n.example.com", "", "fetching executions page 2: boom")
	require.NoError(t, insightsCollector.(*LogFileDataCollector).Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "insights", entry["msg"])
	require.Equal(t, "wf-1", entry["workflowId"])
	require.Equal(t, 25.0, entry["failureRate"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	require.Equal(t, "failure", entry["msg"])
	require.Equal(t, "fetching executions page 2: boom", entry["reason"])
}

func TestNoopCollectorByDefault(t *testing.T) {
	require.NoError(t, InitDataCollector(DataCollectorConfig{}))
	require.NotPanics(t, func() {
		RecordInsights("s", "", "snapshot", insights.Report{})
		RecordAggregationFailure("s", "", "x")
	})
}

func TestInitFailsOnBadPath(t *testing.T) {
	err := InitDataCollector(DataCollectorConfig{
		FileName:      filepath.Join(t.TempDir(), "missing", "dir", "insights.log"),
		CollectorType: LOG_FILE_DATA_COLLECTOR,
	})
	require.Error(t, err)
}
