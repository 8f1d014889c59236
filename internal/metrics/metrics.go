// Package metrics wraps a go-metrics registry for the executor and the
// stress tool, and pushes snapshots of it to statsd-compatible sinks.
//
// Every metric name is prefixed, so several executors can share one
// registry:
//
//	m := metrics.New("pool", nil)
//	m.Counter("submitted").Inc(1)       // pool.submitted
//	m.Timer("run").UpdateSince(start)   // pool.run
package metrics

import (
	"io"
	"sort"

	gometrics "github.com/rcrowley/go-metrics"
)

// Metrics is a prefixed view of a go-metrics registry.
type Metrics struct {
	prefix   string
	registry gometrics.Registry
}

// New returns Metrics that register under prefix in r. A nil r gets a
// fresh registry.
func New(prefix string, r gometrics.Registry) *Metrics {
	if r == nil {
		r = gometrics.NewRegistry()
	}
	return &Metrics{prefix: prefix, registry: r}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() gometrics.Registry {
	return m.registry
}

// Prefix returns the prefix applied to metric names.
func (m *Metrics) Prefix() string {
	return m.prefix
}

func (m *Metrics) name(s string) string {
	if m.prefix == "" {
		return s
	}
	return m.prefix + "." + s
}

// Counter returns the named counter, registering it on first use.
func (m *Metrics) Counter(name string) gometrics.Counter {
	return gometrics.GetOrRegisterCounter(m.name(name), m.registry)
}

// Gauge returns the named gauge, registering it on first use.
func (m *Metrics) Gauge(name string) gometrics.Gauge {
	return gometrics.GetOrRegisterGauge(m.name(name), m.registry)
}

// Timer returns the named timer, registering it on first use.
func (m *Metrics) Timer(name string) gometrics.Timer {
	return gometrics.GetOrRegisterTimer(m.name(name), m.registry)
}

// Dump writes a human-readable snapshot of the registry to w.
func (m *Metrics) Dump(w io.Writer) {
	gometrics.WriteOnce(m.registry, w)
}

// Snapshot flattens the registry into name → value pairs:
// counters as name.count, gauges as name, timers as name.count,
// name.mean_ns, name.p99_ns and name.max_ns.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	m.registry.Each(func(name string, i any) {
		switch metric := i.(type) {
		case gometrics.Counter:
			out[name+".count"] = metric.Count()
		case gometrics.Gauge:
			out[name] = metric.Value()
		case gometrics.Timer:
			t := metric.Snapshot()
			out[name+".count"] = t.Count()
			out[name+".mean_ns"] = int64(t.Mean())
			out[name+".p99_ns"] = int64(t.Percentile(0.99))
			out[name+".max_ns"] = t.Max()
		}
	})
	return out
}

// Flush sends the current snapshot to s as gauges, in name order.
func (m *Metrics) Flush(s Sink) error {
	snap := m.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.Gauge(name, snap[name]); err != nil {
			return err
		}
	}
	return nil
}
