package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "pricebook"

var (
	LevelsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "levels_dropped_total",
		Help:      "Price levels skipped because they could not be parsed",
	}, []string{"side"})

	DiffUpdatesAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "diff_updates_applied_total",
		Help:      "Diff updates applied to a book, by dispatcher",
	}, []string{"dispatcher"})

	PendingUpdates = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_updates",
		Help:      "Diff updates queued but not yet applied",
	})

	DispatchWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatch_workers",
		Help:      "Live per-symbol dispatch workers",
	})

	SnapshotsLoadedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshots_loaded_total",
		Help:      "Snapshots loaded into the store",
	})

	PublishErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "publish_errors_total",
		Help:      "Dispatched updates that failed to reach the broker",
	})
)

// Side labels for LevelsDroppedTotal
const (
	SideBid = "bid"
	SideAsk = "ask"
)

// Register adds the pricebook collectors and the Go runtime collectors to reg.
// Collectors that are already registered are skipped, so several servers can
// share the default registry.
func Register(reg prometheus.Registerer) error {
	toRegister := []prometheus.Collector{
		LevelsDroppedTotal, DiffUpdatesAppliedTotal, PendingUpdates,
		DispatchWorkers, SnapshotsLoadedTotal, PublishErrorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// NewRegistry returns a fresh registry with every collector registered
func NewRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
