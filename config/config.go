package config

import (
	"time"

	"github.com/fernandosegrr/Webhook-HUB/analytics"
	"github.com/fernandosegrr/Webhook-HUB/logger"
)

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	HttpPort         int
	StorageType      StorageType
	RedisConfig      RedisStorageConfig
	LogConfig        logger.Config
	RequestTimeout   time.Duration
	SnapshotTTL      time.Duration
	LayoutCacheTTL   time.Duration
	WarmupConfig     WarmupConfig
	AnalyticsConfig  analytics.DataCollectorConfig
	// UpstreamRelayURL, when set, is a relay every n8n call goes through.
	UpstreamRelayURL string
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
	Password  string
}

// WarmupConfig names a default n8n server whose insights are refreshed in
// the background so the analytics view opens from a warm snapshot.
type WarmupConfig struct {
	BaseURL         string
	APIKey          string
	IntervalSeconds int
	Days            int
}

func (w WarmupConfig) Enabled() bool {
	return w.BaseURL != "" && w.APIKey != "" && w.IntervalSeconds > 0
}
