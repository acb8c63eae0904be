package agent

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fernandosegrr/Webhook-HUB/analytics"
	"github.com/fernandosegrr/Webhook-HUB/client"
	"github.com/fernandosegrr/Webhook-HUB/config"
	"github.com/fernandosegrr/Webhook-HUB/container"
	"github.com/fernandosegrr/Webhook-HUB/logger"
	"github.com/fernandosegrr/Webhook-HUB/rest"
	"github.com/fernandosegrr/Webhook-HUB/service"
	"github.com/fernandosegrr/Webhook-HUB/util"
)

type Agent struct {
	Config           config.Config
	diContainer      *container.DIContiner
	dashboardService *service.DashboardService
	httpServer       *rest.Server
	warmupWorker     *util.TickWorker
	shutdown         bool
	shutdownLock     sync.Mutex
	wg               sync.WaitGroup
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config: config,
	}
	setup := []func() error{
		a.setupAnalytics,
		a.setupContainer,
		a.setupDashboardService,
		a.setupHttpServer,
		a.setupWarmupWorker,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupAnalytics() error {
	return analytics.InitDataCollector(a.Config.AnalyticsConfig)
}

func (a *Agent) setupContainer() error {
	a.diContainer = container.NewDiContainer()
	a.diContainer.Init(a.Config)
	return nil
}

func (a *Agent) setupDashboardService() error {
	a.dashboardService = service.NewDashboardService(a.diContainer, a.Config.RequestTimeout, a.Config.SnapshotTTL)
	if a.Config.UpstreamRelayURL != "" {
		a.dashboardService.UseRelay(a.Config.UpstreamRelayURL)
	}
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	m := a.diContainer.GetMetrics()
	relay := rest.NewRelay(a.Config.RequestTimeout, m)
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.dashboardService, relay, m)
	if err != nil {
		return err
	}
	return nil
}

// setupWarmupWorker keeps the insights snapshot of the configured default
// server fresh, so the analytics view of that server opens without paging.
func (a *Agent) setupWarmupWorker() error {
	warmup := a.Config.WarmupConfig
	if !warmup.Enabled() {
		return nil
	}
	creds := client.NewCredentials(warmup.BaseURL, warmup.APIKey)
	days := warmup.Days
	if days <= 0 {
		days = 7
	}
	interval := time.Duration(warmup.IntervalSeconds) * time.Second
	a.warmupWorker = util.NewTickWorker("insights-warmup", interval, func(ctx context.Context) {
		_ = a.dashboardService.Warm(ctx, creds, days)
	}, &a.wg)
	return nil
}

func (a *Agent) Start() error {
	if a.warmupWorker != nil {
		a.warmupWorker.Start()
	}
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server failed", zap.Error(err))
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		a.httpServer.Stop,
		func() error {
			if a.warmupWorker != nil {
				return a.warmupWorker.Stop()
			}
			return nil
		},
		a.diContainer.Close,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}
