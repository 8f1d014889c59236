package main

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/condsync/internal/metrics"
	"github.com/kolkov/condsync/internal/syncerr"
)

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunUsage(t *testing.T) {
	code, _, stderr := runCLI()
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "USAGE:")

	code, stdout, _ := runCLI("help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "COMMANDS:")

	code, _, stderr = runCLI("bogus")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command: bogus")
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := runCLI("version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "condstress version v0.1.0")

	code, _, _ = runCLI("version", "-check", "v0.1.0")
	assert.Equal(t, 0, code)

	code, _, stderr := runCLI("version", "-check", "v2.0.0")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not compatible")
}

// TestParseStressArgs covers defaults, overrides and validation.
func TestParseStressArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cfg *stressConfig)
		wantErr string
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg *stressConfig) {
				assert.Equal(t, 8, cfg.workers)
				assert.Equal(t, 1000, cfg.iterations)
				assert.Equal(t, 4, cfg.parties)
				assert.Equal(t, 30*time.Second, cfg.timeout)
				assert.Equal(t, "condstress", cfg.prefix)
				assert.Empty(t, cfg.tags)
			},
		},
		{
			name: "overrides",
			args: []string{"-workers", "3", "-iterations=10", "-parties", "2", "-prefix", "ci", "-tags", "env:ci, team:sync,", "-dump"},
			check: func(t *testing.T, cfg *stressConfig) {
				assert.Equal(t, 3, cfg.workers)
				assert.Equal(t, 10, cfg.iterations)
				assert.Equal(t, 2, cfg.parties)
				assert.Equal(t, "ci", cfg.prefix)
				assert.Equal(t, []string{"env:ci", "team:sync"}, cfg.tags)
				assert.True(t, cfg.dump)
			},
		},
		{name: "zero workers", args: []string{"-workers", "0"}, wantErr: "-workers must be at least 1"},
		{name: "zero iterations", args: []string{"-iterations", "0"}, wantErr: "-iterations must be at least 1"},
		{name: "zero parties", args: []string{"-parties", "0"}, wantErr: "-parties must be at least 1"},
		{name: "negative timeout", args: []string{"-timeout", "-1s"}, wantErr: "-timeout must be positive"},
		{name: "stray argument", args: []string{"extra"}, wantErr: "unexpected arguments: extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			cfg, err := parseStressArgs("barrier", tt.args, &stderr)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, syncerr.IsInvalidArgument(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "barrier", cfg.scenario)
			tt.check(t, cfg)
		})
	}
}

func TestParseStressArgsUnknownFlag(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseStressArgs("mrsw", []string{"-nope"}, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "-nope")
}

// TestScenariosPass runs every workload small enough to be quick.
func TestScenariosPass(t *testing.T) {
	for _, name := range []string{"barrier", "event", "semaphore", "mrsw", "futures"} {
		t.Run(name, func(t *testing.T) {
			code, stdout, stderr := runCLI(name, "-workers", "6", "-iterations", "50", "-parties", "3", "-timeout", "20s")
			require.Equal(t, 0, code, "stderr: %s", stderr)
			assert.Contains(t, stdout, name+": workers=6 iterations=50 parties=3")
			assert.Contains(t, stdout, "PASS")
		})
	}
}

func TestScenarioMetrics(t *testing.T) {
	cfg := &stressConfig{scenario: "futures", workers: 2, iterations: 20, parties: 2, timeout: 10 * time.Second, prefix: "t"}
	m := metrics.New(cfg.prefix, nil)
	require.NoError(t, runFutures(cfg, m))

	snap := m.Snapshot()
	assert.Equal(t, int64(18), snap["t.futures.results.count"])
	assert.Equal(t, int64(2), snap["t.futures.failures.count"])
	assert.Equal(t, int64(20), snap["t.executor.submitted.count"])

	cfg.scenario = "semaphore"
	require.NoError(t, runSemaphore(cfg, m))
	assert.LessOrEqual(t, m.Snapshot()["t.semaphore.max_inside"], int64(2))
}

func TestDumpFlag(t *testing.T) {
	code, stdout, _ := runCLI("barrier", "-iterations", "3", "-parties", "2", "-dump")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "condstress.barrier.rounds")
}

// TestRunWithTimeout verifies a stuck workload is reported as a timeout.
func TestRunWithTimeout(t *testing.T) {
	cfg := &stressConfig{scenario: "stuck", timeout: 20 * time.Millisecond}
	block := make(chan struct{})
	defer close(block)

	err := runWithTimeout(cfg, metrics.New("", nil), func(*stressConfig, *metrics.Metrics) error {
		<-block
		return nil
	})
	assert.True(t, syncerr.IsTimeout(err))
	assert.Contains(t, err.Error(), "stuck did not finish")
}

// TestPublishStatsd verifies -statsd pushes prefixed gauges over UDP.
func TestPublishStatsd(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	code, _, stderr := runCLI("semaphore", "-workers", "2", "-iterations", "5", "-statsd", conn.LocalAddr().String())
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.NotContains(t, stderr, "Warning")

	buf := make([]byte, 2048)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(buf[:n]), "condstress."), "got %q", buf[:n])
}

func TestOpenSinks(t *testing.T) {
	sinks, err := openSinks(&stressConfig{})
	require.NoError(t, err)
	assert.Empty(t, sinks)

	cfg := &stressConfig{
		scenario:  "mrsw",
		statsd:    "127.0.0.1:8125",
		dogstatsd: "127.0.0.1:8125",
		tags:      []string{"env:test"},
	}
	sinks, err = openSinks(cfg)
	require.NoError(t, err)
	defer closeSinks(sinks)
	require.Len(t, sinks, 2)
	assert.IsType(t, &metrics.StatsdSink{}, sinks[0])
	assert.IsType(t, &metrics.DogStatsdSink{}, sinks[1])
}

func BenchmarkBarrierScenario(b *testing.B) {
	cfg := &stressConfig{scenario: "barrier", parties: 4, iterations: 100}
	for i := 0; i < b.N; i++ {
		if err := runBarrier(cfg, metrics.New(fmt.Sprintf("b%d", i), nil)); err != nil {
			b.Fatal(err)
		}
	}
}
