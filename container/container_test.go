package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fernandosegrr/Webhook-HUB/config"
)

func TestGettersPanicBeforeInit(t *testing.T) {
	d := NewDiContainer()
	require.Panics(t, func() { d.GetSnapshotStore() })
	require.Panics(t, func() { d.GetLayoutCache() })
	require.Panics(t, func() { d.GetMetrics() })
}

func TestInitInMemory(t *testing.T) {
	d := NewDiContainer()
	d.Init(config.Config{StorageType: config.STORAGE_TYPE_INMEM})

	require.NotNil(t, d.GetSnapshotStore())
	require.NotNil(t, d.GetLayoutCache())
	require.NotNil(t, d.GetMetrics())
	require.NoError(t, d.Close())
}
