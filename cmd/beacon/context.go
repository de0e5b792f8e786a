package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atelier-research/beacon/internal/api"
	"github.com/atelier-research/beacon/internal/config"
)

// commandContext lazily builds the shared dependencies every subcommand
// needs: config, logger, and the API client.
type commandContext struct {
	configFlag *string

	cfg    *config.Config
	logger *zap.Logger
	client *api.Client
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensure() error {
	if c.cfg != nil {
		return nil
	}
	var (
		cfg *config.Config
		err error
	)
	if *c.configFlag != "" {
		cfg, err = config.LoadFile(*c.configFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	c.cfg = cfg

	c.logger, err = buildLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	c.client = api.NewClient(cfg.API.BaseURL, cfg.APITimeout(), c.logger)

	if cfg.Metrics.Enabled {
		startMetricsServer(cfg.Metrics.Port, c.logger)
	}
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return zap.NewNop(), nil
	}
	return logger, nil
}

func startMetricsServer(port int, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		addr := fmt.Sprintf(":%d", port)
		logger.Info("Starting metrics server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Warn("Metrics server failed", zap.Error(err))
		}
	}()
}
