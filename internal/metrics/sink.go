package metrics

import (
	datadog "github.com/DataDog/datadog-go/statsd"
	"github.com/cactus/go-statsd-client/statsd"
	"gopkg.in/errgo.v1"
)

// Sink receives flushed metric values.
type Sink interface {
	Gauge(name string, value int64) error
	Close() error
}

// StatsdSink sends gauges to a plain statsd daemon.
type StatsdSink struct {
	client statsd.Statter
}

// NewStatsdSink returns a sink sending to the statsd daemon at addr
// (host:port) with every stat prefixed by prefix.
func NewStatsdSink(addr, prefix string) (*StatsdSink, error) {
	client, err := statsd.NewClient(addr, prefix)
	if err != nil {
		return nil, errgo.Notef(err, "cannot create statsd client for %s", addr)
	}
	return &StatsdSink{client: client}, nil
}

// Gauge implements Sink.
func (s *StatsdSink) Gauge(name string, value int64) error {
	return s.client.Gauge(name, value, 1.0)
}

// Close implements Sink.
func (s *StatsdSink) Close() error {
	return s.client.Close()
}

// DogStatsdSink sends gauges to a DogStatsD agent, tagging each one.
type DogStatsdSink struct {
	client *datadog.Client
	tags   []string
}

// NewDogStatsdSink returns a sink sending to the DogStatsD agent at addr
// under namespace, attaching tags to every gauge.
func NewDogStatsdSink(addr, namespace string, tags ...string) (*DogStatsdSink, error) {
	opts := []datadog.Option{datadog.WithoutTelemetry()}
	if namespace != "" {
		opts = append(opts, datadog.WithNamespace(namespace+"."))
	}
	client, err := datadog.New(addr, opts...)
	if err != nil {
		return nil, errgo.Notef(err, "cannot create dogstatsd client for %s", addr)
	}
	return &DogStatsdSink{client: client, tags: tags}, nil
}

// Gauge implements Sink.
func (s *DogStatsdSink) Gauge(name string, value int64) error {
	return s.client.Gauge(name, float64(value), s.tags, 1)
}

// Close implements Sink.
func (s *DogStatsdSink) Close() error {
	return s.client.Close()
}
