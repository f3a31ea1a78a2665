// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics captures store operation counts. The load-fallback counter
// is the important one: an absorbed decryption failure is otherwise
// indistinguishable from a genuinely empty workspace.
type Metrics interface {
	IncSave()
	IncBackup()
	IncRestore()
	IncLoadFallback(reason string)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncSave()               {}
func (Noop) IncBackup()             {}
func (Noop) IncRestore()            {}
func (Noop) IncLoadFallback(string) {}

// Prom implements Metrics backed by Prometheus counters.
type Prom struct {
	saves         prometheus.Counter
	backups       prometheus.Counter
	restores      prometheus.Counter
	loadFallbacks *prometheus.CounterVec
	once          sync.Once
}

// NewProm creates and registers Prometheus-backed store metrics under
// the given namespace.
func NewProm(namespace string) *Prom {
	p := &Prom{
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metastore_saves_total",
			Help:      "Aggregates saved to the primary data file",
		}),
		backups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metastore_backups_total",
			Help:      "Point-in-time backups exported",
		}),
		restores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metastore_restores_total",
			Help:      "Backups imported over the primary data file",
		}),
		loadFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metastore_load_fallbacks_total",
			Help:      "Loads that fell back to the empty aggregate, by failure reason",
		}, []string{"reason"}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.saves, p.backups, p.restores, p.loadFallbacks)
	})
}

func (p *Prom) IncSave()    { p.saves.Inc() }
func (p *Prom) IncBackup()  { p.backups.Inc() }
func (p *Prom) IncRestore() { p.restores.Inc() }

func (p *Prom) IncLoadFallback(reason string) {
	p.loadFallbacks.WithLabelValues(reason).Inc()
}
