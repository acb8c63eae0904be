package container

import (
	"time"

	"github.com/fernandosegrr/Webhook-HUB/cache"
	"github.com/fernandosegrr/Webhook-HUB/config"
	"github.com/fernandosegrr/Webhook-HUB/logger"
	"github.com/fernandosegrr/Webhook-HUB/metrics"
	"github.com/fernandosegrr/Webhook-HUB/persistence"
	rd "github.com/fernandosegrr/Webhook-HUB/persistence/redis"
	"go.uber.org/zap"
)

const defaultLayoutCacheTTL = 10 * time.Minute

type DIContiner struct {
	initialized   bool
	snapshotStore persistence.SnapshotStore
	closers       []func() error
	layoutCache   *cache.LayoutCache
	metrics       *metrics.Metrics
}

func (p *DIContiner) setInitialized() {
	p.initialized = true
}

func NewDiContainer() *DIContiner {
	return &DIContiner{
		initialized: false,
	}
}

func (d *DIContiner) Init(conf config.Config) {
	defer d.setInitialized()

	switch conf.StorageType {
	case config.STORAGE_TYPE_REDIS:
		rdConf := rd.Config{
			Addrs:     conf.RedisConfig.Addrs,
			Namespace: conf.RedisConfig.Namespace,
			Password:  conf.RedisConfig.Password,
		}
		store := rd.NewRedisSnapshotStore(rdConf)
		d.snapshotStore = store
		d.closers = append(d.closers, store.Close)
		logger.Info("using redis snapshot store", zap.Strings("addrs", rdConf.Addrs), zap.String("namespace", rdConf.Namespace))
	default:
		d.snapshotStore = persistence.NewMemorySnapshotStore()
		logger.Info("using in-memory snapshot store")
	}

	ttl := conf.LayoutCacheTTL
	if ttl <= 0 {
		ttl = defaultLayoutCacheTTL
	}
	d.layoutCache = cache.NewLayoutCache(ttl)
	d.metrics = metrics.New()
}

func (d *DIContiner) GetSnapshotStore() persistence.SnapshotStore {
	if !d.initialized {
		panic("persistence not initalized")
	}
	return d.snapshotStore
}

func (d *DIContiner) GetLayoutCache() *cache.LayoutCache {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.layoutCache
}

func (d *DIContiner) GetMetrics() *metrics.Metrics {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.metrics
}

// Close releases the storage connections opened by Init.
func (d *DIContiner) Close() error {
	for _, fn := range d.closers {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
