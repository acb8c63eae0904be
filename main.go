package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fernandosegrr/Webhook-HUB/agent"
	"github.com/fernandosegrr/Webhook-HUB/analytics"
	"github.com/fernandosegrr/Webhook-HUB/config"
	"github.com/fernandosegrr/Webhook-HUB/logger"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().Int("http-port", 8080, "http port for the dashboard api and relay")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().String("log-format", "console", "log format: json or console")
	cmd.Flags().String("log-output", "stdout", "log output: stdout, file or both")
	cmd.Flags().String("log-file", "logs/dashboard.log", "log file used when log-output includes file")
	cmd.Flags().String("storage-impl", "memory", "snapshot storage: memory or redis")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("redis-password", "", "redis password")
	cmd.Flags().String("namespace", "n8n-dashboard", "namespace used in storage")
	cmd.Flags().Duration("snapshot-ttl", 5*time.Minute, "how long an aggregated execution snapshot is reused")
	cmd.Flags().Duration("layout-cache-ttl", 10*time.Minute, "how long a computed graph layout is kept")
	cmd.Flags().Duration("request-timeout", 30*time.Second, "timeout of every call to an n8n server")
	cmd.Flags().String("upstream-relay-url", "", "relay that n8n calls go through instead of reaching servers directly")
	cmd.Flags().String("n8n-url", "", "n8n server whose insights are warmed up in the background")
	cmd.Flags().String("n8n-api-key", "", "API key of the warm-up server")
	cmd.Flags().Int("warmup-interval", 0, "seconds between insight warm-ups, 0 disables")
	cmd.Flags().String("analytics-file", "", "append one JSON line per insights computation to this file")
	cmd.Flags().Int("warmup-days", 7, "insights window in days used by the warm-up")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err = viper.ReadInConfig(); err != nil {
			// it's ok if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return err
			}
		}
	}

	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.LogConfig = logger.Config{
		Level:    viper.GetString("log-level"),
		Format:   viper.GetString("log-format"),
		Output:   viper.GetString("log-output"),
		FilePath: viper.GetString("log-file"),
	}
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.RedisConfig.Password = viper.GetString("redis-password")
	c.cfg.SnapshotTTL = viper.GetDuration("snapshot-ttl")
	c.cfg.LayoutCacheTTL = viper.GetDuration("layout-cache-ttl")
	c.cfg.RequestTimeout = viper.GetDuration("request-timeout")
	c.cfg.UpstreamRelayURL = viper.GetString("upstream-relay-url")
	c.cfg.WarmupConfig = config.WarmupConfig{
		BaseURL:         viper.GetString("n8n-url"),
		APIKey:          viper.GetString("n8n-api-key"),
		IntervalSeconds: viper.GetInt("warmup-interval"),
		Days:            viper.GetInt("warmup-days"),
	}
	if file := viper.GetString("analytics-file"); file != "" {
		c.cfg.AnalyticsConfig = analytics.DataCollectorConfig{
			FileName:      file,
			CollectorType: analytics.LOG_FILE_DATA_COLLECTOR,
		}
	}
	logger.Init(&c.cfg.LogConfig)
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	var err error
	defer logger.Sync()
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		return err
	}
	err = agent.Start()
	if err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "n8n-dashboard",
		Short:   "Dashboard backend and relay for n8n servers",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
