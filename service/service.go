// Package service runs the sidecar HTTP surface of the aggregator: a
// healthz endpoint and a prometheus metrics endpoint. Both are best
// effort; the run itself never blocks on them.
package service

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testinfra/run-aggregator/metrics"
)

const (
	DefaultHealthzHost = "0.0.0.0"
	DefaultHealthzPort = "8080"

	DefaultMetricsHost = "0.0.0.0"
	DefaultMetricsPort = "7300"
)

// Config contains service configuration
type Config struct {
	Log log.Logger

	HealthzAddr string
	MetricsAddr string
}

type Service struct {
	config  Config
	Healthz *HealthzServer
	Metrics *MetricsServer
}

func New(cfg Config) *Service {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.HealthzAddr == "" {
		cfg.HealthzAddr = net.JoinHostPort(DefaultHealthzHost, DefaultHealthzPort)
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = net.JoinHostPort(DefaultMetricsHost, DefaultMetricsPort)
	}
	return &Service{
		config:  cfg,
		Healthz: &HealthzServer{},
		Metrics: &MetricsServer{},
	}
}

func (s *Service) Start(ctx context.Context) {
	s.config.Log.Info("service starting")

	go func() {
		s.config.Log.Info("starting healthz server", "addr", s.config.HealthzAddr)
		if err := s.Healthz.Start(ctx, s.config.HealthzAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.config.Log.Error("error starting healthz server", "err", err)
			metrics.RecordErrorDetails("error starting healthz server", err)
		}
	}()

	go func() {
		s.config.Log.Info("starting metrics server", "addr", s.config.MetricsAddr)
		if err := s.Metrics.Start(ctx, s.config.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.config.Log.Error("error starting metrics server", "err", err)
			metrics.RecordErrorDetails("error starting metrics server", err)
		}
	}()

	s.config.Log.Info("service started")
}

func (s *Service) Shutdown() {
	s.config.Log.Info("service shutting down")

	_ = s.Healthz.Shutdown()
	s.config.Log.Info("healthz stopped")

	_ = s.Metrics.Shutdown()
	s.config.Log.Info("metrics stopped")

	s.config.Log.Info("service stopped")
}
