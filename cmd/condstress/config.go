package main

import (
	"flag"
	"io"
	"strings"
	"time"

	"gopkg.in/errgo.v1"

	"github.com/kolkov/condsync/internal/syncerr"
)

// stressConfig holds the flags shared by every stress command.
type stressConfig struct {
	scenario   string
	workers    int
	iterations int
	parties    int
	timeout    time.Duration
	statsd     string
	dogstatsd  string
	prefix     string
	tags       []string
	dump       bool
}

func parseStressArgs(scenario string, args []string, stderr io.Writer) (*stressConfig, error) {
	cfg := &stressConfig{scenario: scenario}
	var tags string

	fs := flag.NewFlagSet(scenario, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.workers, "workers", 8, "goroutines or executor workers")
	fs.IntVar(&cfg.iterations, "iterations", 1000, "operations per goroutine, rounds or tasks")
	fs.IntVar(&cfg.parties, "parties", 4, "barrier cohort size or semaphore permits")
	fs.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "overall deadline")
	fs.StringVar(&cfg.statsd, "statsd", "", "statsd daemon address")
	fs.StringVar(&cfg.dogstatsd, "dogstatsd", "", "DogStatsD agent address")
	fs.StringVar(&cfg.prefix, "prefix", "condstress", "metric name prefix")
	fs.StringVar(&tags, "tags", "", "comma-separated DogStatsD tags")
	fs.BoolVar(&cfg.dump, "dump", false, "print every metric after the run")

	if err := fs.Parse(args); err != nil {
		return nil, errgo.Mask(err, errgo.Is(flag.ErrHelp))
	}
	if fs.NArg() > 0 {
		return nil, syncerr.InvalidArgumentf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				cfg.tags = append(cfg.tags, tag)
			}
		}
	}

	switch {
	case cfg.workers < 1:
		return nil, syncerr.InvalidArgumentf("-workers must be at least 1, got %d", cfg.workers)
	case cfg.iterations < 1:
		return nil, syncerr.InvalidArgumentf("-iterations must be at least 1, got %d", cfg.iterations)
	case cfg.parties < 1:
		return nil, syncerr.InvalidArgumentf("-parties must be at least 1, got %d", cfg.parties)
	case cfg.timeout <= 0:
		return nil, syncerr.InvalidArgumentf("-timeout must be positive, got %v", cfg.timeout)
	}
	return cfg, nil
}
