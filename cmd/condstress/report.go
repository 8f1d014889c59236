package main

import (
	"gopkg.in/errgo.v1"

	"github.com/kolkov/condsync/internal/metrics"
)

// openSinks connects to every metrics destination named in cfg.
func openSinks(cfg *stressConfig) ([]metrics.Sink, error) {
	var sinks []metrics.Sink
	if cfg.statsd != "" {
		s, err := metrics.NewStatsdSink(cfg.statsd, "")
		if err != nil {
			return nil, errgo.Mask(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.dogstatsd != "" {
		tags := append([]string{"scenario:" + cfg.scenario}, cfg.tags...)
		s, err := metrics.NewDogStatsdSink(cfg.dogstatsd, "", tags...)
		if err != nil {
			closeSinks(sinks)
			return nil, errgo.Mask(err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func closeSinks(sinks []metrics.Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

// publish flushes m to the sinks configured in cfg. The metric names
// already carry cfg.prefix, so sinks add none of their own.
func publish(cfg *stressConfig, m *metrics.Metrics) error {
	sinks, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer closeSinks(sinks)

	for _, s := range sinks {
		if err := m.Flush(s); err != nil {
			return errgo.Notef(err, "cannot publish metrics")
		}
	}
	return nil
}
