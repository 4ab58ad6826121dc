package observability

import (
	"context"
	"errors"

	"github.com/aretw0/strata/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "strata"

// Metrics holds the composition collectors.
type Metrics struct {
	builds        *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	invalidations *prometheus.CounterVec
	errors        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// Registering twice on the same registerer reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "builds_total",
				Help:      "Prim indices built from scratch.",
			},
			[]string{"stage"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "cache_hits_total",
				Help:      "Prim index reads served from cache.",
			},
			[]string{"stage"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "index",
				Name:      "build_duration_seconds",
				Help:      "Prim index build duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"stage"},
		),
		invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invalidations_total",
				Help:      "Composed prims invalidated by layer changes.",
			},
			[]string{"kind"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "composition_errors_total",
				Help:      "Composition diagnostics collected while building indices.",
			},
			[]string{"kind"},
		),
	}

	var err error
	m.builds, err = register(reg, m.builds)
	if err != nil {
		return nil, err
	}
	m.cacheHits, err = register(reg, m.cacheHits)
	if err != nil {
		return nil, err
	}
	m.buildDuration, err = register(reg, m.buildDuration)
	if err != nil {
		return nil, err
	}
	m.invalidations, err = register(reg, m.invalidations)
	if err != nil {
		return nil, err
	}
	m.errors, err = register(reg, m.errors)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnIndexBuilt: func(_ context.Context, ev *domain.IndexEvent) {
			if ev.CacheHit {
				m.cacheHits.WithLabelValues(ev.StageID).Inc()
				return
			}
			m.builds.WithLabelValues(ev.StageID).Inc()
			m.buildDuration.WithLabelValues(ev.StageID).Observe(ev.Duration.Seconds())
		},
		OnInvalidate: func(_ context.Context, ev *domain.InvalidationEvent) {
			m.invalidations.WithLabelValues(string(ev.Change.Kind)).Add(float64(len(ev.Invalidated)))
		},
		OnCompositionError: func(_ context.Context, cerr *domain.CompositionError) {
			m.errors.WithLabelValues(string(cerr.Kind)).Inc()
		},
	}
}
