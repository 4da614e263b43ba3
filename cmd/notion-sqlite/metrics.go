package main

import (
	"go.uber.org/zap"

	"notionsqlite/internal/config"
	"notionsqlite/internal/metrics"
	"notionsqlite/internal/metrics/datadog"
	"notionsqlite/internal/metrics/prompush"
)

// setupMetrics installs the backend named by p.Metrics and returns the
// function that flushes it. A backend that fails to initialize leaves the
// no-op backend in place.
func setupMetrics(p config.Pipeline, log *zap.Logger) (flush func()) {
	b, err := newMetricsBackend(p)
	if err != nil {
		log.Warn("metrics disabled", zap.String("backend", p.Metrics.Backend), zap.Error(err))
		return func() {}
	}
	if b == nil {
		log.Debug("metrics disabled", zap.String("backend", p.Metrics.Backend))
		return func() {}
	}

	metrics.SetBackend(b)
	log.Info("metrics enabled", zap.String("backend", p.Metrics.Backend))
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", zap.Error(err))
		}
	}
}

// newMetricsBackend returns nil for the "none" backend.
func newMetricsBackend(p config.Pipeline) (metrics.Backend, error) {
	o := p.Metrics.Options
	switch p.Metrics.Backend {
	case "prompush":
		return prompush.NewBackend(prompush.Config{
			GatewayURL: o.String("url", ""),
			Job:        o.String("job", p.Job),
			Grouping:   o.StringMap("grouping"),
		})
	case "datadog":
		return datadog.NewBackend(datadog.Config{
			Addr:       o.String("addr", ""),
			Namespace:  o.String("namespace", ""),
			GlobalTags: o.StringSlice("tags"),
		})
	default:
		return nil, nil
	}
}
