package util

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fernandosegrr/Webhook-HUB/logger"
)

// TickWorker runs fn once on start and then every interval until stopped.
// A run still in flight when Stop is called sees its context canceled.
type TickWorker struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	wg       *sync.WaitGroup
	stop     chan struct{}
	once     sync.Once
	running  atomic.Bool
}

func NewTickWorker(name string, interval time.Duration, fn func(ctx context.Context), wg *sync.WaitGroup) *TickWorker {
	return &TickWorker{
		name:     name,
		interval: interval,
		fn:       fn,
		wg:       wg,
		stop:     make(chan struct{}),
	}
}

func (tw *TickWorker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(tw.interval)
	tw.running.Store(true)
	tw.wg.Add(1)
	go func() {
		defer tw.wg.Done()
		defer tw.running.Store(false)
		defer cancel()
		go func() {
			<-tw.stop
			cancel()
		}()
		tw.fn(ctx)
		for {
			select {
			case <-ticker.C:
				tw.fn(ctx)
			case <-ctx.Done():
				logger.Info("stopping tick worker", zap.String("worker", tw.name))
				ticker.Stop()
				return
			}
		}
	}()
	logger.Info("tick worker started", zap.String("worker", tw.name), zap.Duration("interval", tw.interval))
}

func (tw *TickWorker) Stop() error {
	tw.once.Do(func() {
		close(tw.stop)
	})
	return nil
}

func (tw *TickWorker) IsRunning() bool {
	return tw.running.Load()
}
