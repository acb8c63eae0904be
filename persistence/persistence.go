// Package persistence keeps short-lived snapshots of aggregated execution
// collections so the analytics view can reopen without paging the whole
// history again.
package persistence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fernandosegrr/Webhook-HUB/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

const SNAPSHOT_PREFIX string = "SNAPSHOT"

const snapshotVersion = 1

// Snapshot is one complete aggregation result. Partial aggregations are
// never stored.
type Snapshot struct {
	Version    int               `json:"version"`
	SavedAt    time.Time         `json:"savedAt"`
	WorkflowID string            `json:"workflowId,omitempty"`
	Executions []model.Execution `json:"executions"`
}

func NewSnapshot(workflowID string, execs []model.Execution, now time.Time) *Snapshot {
	return &Snapshot{
		Version:    snapshotVersion,
		SavedAt:    now.UTC(),
		WorkflowID: workflowID,
		Executions: execs,
	}
}

// SnapshotStore returns nil, nil from Get when no live snapshot exists.
type SnapshotStore interface {
	Save(ctx context.Context, key string, snap *Snapshot, ttl time.Duration) error
	Get(ctx context.Context, key string) (*Snapshot, error)
	Delete(ctx context.Context, key string) error
}

// SnapshotKey scopes a snapshot to one server, one API key and one workflow
// filter. The key is hashed so credentials never reach the store in clear.
func SnapshotKey(baseURL, apiKey, workflowID string) string {
	sum := sha256.Sum256([]byte(baseURL + "\n" + apiKey))
	if workflowID == "" {
		workflowID = "all"
	}
	return hex.EncodeToString(sum[:16]) + ":" + workflowID
}

func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot reads an encoded snapshot. Snapshots written with another
// layout version decode to nil and are treated as missing.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, nil
	}
	return &snap, nil
}
