package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nomoslink",
		Subsystem: "sync",
		Name:      "push_cycles_total",
		Help:      "Push cycles by outcome.",
	}, []string{"result"})

	pushFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nomoslink",
		Subsystem: "sync",
		Name:      "push_failures_total",
		Help:      "Failed table upserts.",
	}, []string{"table"})

	bootstraps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nomoslink",
		Subsystem: "sync",
		Name:      "bootstraps_total",
		Help:      "Bootstrap attempts by outcome.",
	}, []string{"result"})

	debounceResets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nomoslink",
		Subsystem: "sync",
		Name:      "schedules_total",
		Help:      "Debounce timer (re)arms.",
	})
)
