package main

import (
	"flag"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/errgo.v1"

	"github.com/kolkov/condsync/internal/condvar/barrier"
	"github.com/kolkov/condsync/internal/condvar/event"
	"github.com/kolkov/condsync/internal/condvar/mrsw"
	"github.com/kolkov/condsync/internal/condvar/semaphore"
	"github.com/kolkov/condsync/internal/futures"
	"github.com/kolkov/condsync/internal/futures/executor"
	"github.com/kolkov/condsync/internal/metrics"
	"github.com/kolkov/condsync/internal/syncerr"
)

// scenario runs one stress workload, recording into m. It returns an
// error if the primitive broke one of its guarantees.
type scenario func(cfg *stressConfig, m *metrics.Metrics) error

var scenarios = map[string]scenario{
	"barrier":   runBarrier,
	"event":     runEvent,
	"semaphore": runSemaphore,
	"mrsw":      runMRSW,
	"futures":   runFutures,
}

func stressCommand(name string, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseStressArgs(name, args, stderr)
	if err != nil {
		if errgo.Cause(err) == flag.ErrHelp {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	m := metrics.New(cfg.prefix, nil)
	start := time.Now()
	err = runWithTimeout(cfg, m, scenarios[name])
	elapsed := time.Since(start)

	fmt.Fprintf(stdout, "%s: workers=%d iterations=%d parties=%d elapsed=%v\n",
		name, cfg.workers, cfg.iterations, cfg.parties, elapsed.Round(time.Microsecond))
	if cfg.dump {
		m.Dump(stdout)
	}
	if perr := publish(cfg, m); perr != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", perr)
	}
	if err != nil {
		fmt.Fprintf(stderr, "FAIL: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "PASS")
	return 0
}

// runWithTimeout runs s, abandoning it if cfg.timeout passes first.
func runWithTimeout(cfg *stressConfig, m *metrics.Metrics, s scenario) error {
	done := make(chan error, 1)
	go func() {
		done <- s(cfg, m)
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(cfg.timeout):
		return syncerr.Timeoutf("%s did not finish within %v", cfg.scenario, cfg.timeout)
	}
}

// runBarrier sends cohorts of cfg.parties goroutines through one barrier
// cfg.iterations times. Nobody may leave a round before the whole cohort
// has arrived.
func runBarrier(cfg *stressConfig, m *metrics.Metrics) error {
	b, err := barrier.New(cfg.parties)
	if err != nil {
		return errgo.Mask(err, errgo.Any)
	}

	var arrived atomic.Int64
	var early atomic.Int64
	enter := m.Timer("barrier.enter")

	var wg sync.WaitGroup
	for p := 0; p < cfg.parties; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := 1; round <= cfg.iterations; round++ {
				arrived.Add(1)
				start := time.Now()
				b.Enter()
				enter.UpdateSince(start)
				if arrived.Load() < int64(round*cfg.parties) {
					early.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	m.Counter("barrier.rounds").Inc(int64(cfg.iterations))
	if n := early.Load(); n > 0 {
		return errgo.Newf("%d goroutines left a barrier round early", n)
	}
	return nil
}

// runEvent posts and clears an event cfg.iterations times, each time with
// cfg.workers goroutines waiting on it.
func runEvent(cfg *stressConfig, m *metrics.Metrics) error {
	ev := event.New()
	wakeups := m.Counter("event.wakeups")
	post := m.Timer("event.release")

	for round := 0; round < cfg.iterations; round++ {
		ev.Clear()
		var parked, woken sync.WaitGroup
		parked.Add(cfg.workers)
		woken.Add(cfg.workers)
		for w := 0; w < cfg.workers; w++ {
			go func() {
				defer woken.Done()
				parked.Done()
				ev.Wait()
				wakeups.Inc(1)
			}()
		}
		parked.Wait()

		start := time.Now()
		ev.Post()
		woken.Wait()
		post.UpdateSince(start)

		if !ev.IsPosted() {
			return errgo.Newf("round %d: event cleared itself", round)
		}
	}
	if got, want := wakeups.Count(), int64(cfg.iterations*cfg.workers); got != want {
		return errgo.Newf("event woke %d waiters, want %d", got, want)
	}
	return nil
}

// runSemaphore has cfg.workers goroutines contend for cfg.parties permits.
// At most cfg.parties goroutines may hold a permit at once.
func runSemaphore(cfg *stressConfig, m *metrics.Metrics) error {
	s, err := semaphore.New(cfg.parties)
	if err != nil {
		return errgo.Mask(err, errgo.Any)
	}

	var inside, maxInside atomic.Int64
	acquire := m.Timer("semaphore.acquire")

	var wg sync.WaitGroup
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < cfg.iterations; i++ {
				start := time.Now()
				s.P()
				acquire.UpdateSince(start)

				n := inside.Add(1)
				for {
					prev := maxInside.Load()
					if n <= prev || maxInside.CompareAndSwap(prev, n) {
						break
					}
				}
				inside.Add(-1)
				s.V()
			}
		}()
	}
	wg.Wait()

	m.Gauge("semaphore.max_inside").Update(maxInside.Load())
	if n := maxInside.Load(); n > int64(cfg.parties) {
		return errgo.Newf("%d goroutines held a permit at once, limit %d", n, cfg.parties)
	}
	if s.Count() != s.MaxCount() {
		return errgo.Newf("semaphore ended with %d of %d permits", s.Count(), s.MaxCount())
	}
	return nil
}

// runMRSW mixes reads, writes and write-to-read downgrades. Writers must
// be alone; readers must never overlap a writer.
func runMRSW(cfg *stressConfig, m *metrics.Metrics) error {
	l := mrsw.New()
	var readers, writers, violations atomic.Int64
	reads, writes, downgrades := m.Counter("mrsw.reads"), m.Counter("mrsw.writes"), m.Counter("mrsw.downgrades")
	writeWait := m.Timer("mrsw.write_wait")

	read := func() {
		readers.Add(1)
		if writers.Load() != 0 {
			violations.Add(1)
		}
		readers.Add(-1)
	}

	var wg sync.WaitGroup
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < cfg.iterations; i++ {
				switch (w + i) % 8 {
				case 0:
					start := time.Now()
					l.WriteIn()
					writeWait.UpdateSince(start)
					if writers.Add(1) != 1 || readers.Load() != 0 {
						violations.Add(1)
					}
					writers.Add(-1)
					l.WriteOut()
					writes.Inc(1)
				case 4:
					l.WriteIn()
					if writers.Add(1) != 1 || readers.Load() != 0 {
						violations.Add(1)
					}
					writers.Add(-1)
					l.WriteToRead()
					read()
					l.ReadOut()
					downgrades.Inc(1)
				default:
					l.ReadIn()
					read()
					l.ReadOut()
					reads.Inc(1)
				}
			}
		}(w)
	}
	wg.Wait()

	if r, wr, writing := l.Stats(); r != 0 || wr != 0 || writing {
		return errgo.Newf("lock not idle after run: readers=%d writers=%d writing=%v", r, wr, writing)
	}
	if n := violations.Load(); n > 0 {
		return errgo.Newf("%d exclusion violations", n)
	}
	return nil
}

// runFutures submits cfg.iterations tasks to an executor with cfg.workers
// workers and collects them with AsCompleted. Every tenth task fails.
func runFutures(cfg *stressConfig, m *metrics.Metrics) error {
	e, err := executor.New(cfg.workers,
		executor.WithName("futures"),
		executor.WithMetrics(metrics.New(m.Prefix()+".executor", m.Registry())),
	)
	if err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	defer e.Shutdown(true, true)

	failure := errgo.New("planned failure")
	fs := make([]*futures.Future, 0, cfg.iterations)
	for i := 0; i < cfg.iterations; i++ {
		i := i
		f, err := e.Submit(func() (any, error) {
			if i%10 == 9 {
				return nil, failure
			}
			return i, nil
		})
		if err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		fs = append(fs, f)
	}

	var results, failures int64
	var sum int64
	for f, err := range futures.AsCompleted(fs, cfg.timeout) {
		if err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		v, err := f.Result(0)
		if err != nil {
			if err != failure {
				return errgo.Notef(err, "unexpected task error")
			}
			failures++
			continue
		}
		results++
		sum += int64(v.(int))
	}
	m.Counter("futures.results").Inc(results)
	m.Counter("futures.failures").Inc(failures)

	n := int64(cfg.iterations)
	if wantFailures := n / 10; failures != wantFailures || results != n-wantFailures {
		return errgo.Newf("collected %d results and %d failures from %d tasks", results, failures, n)
	}
	var want int64
	for i := int64(0); i < n; i++ {
		if i%10 != 9 {
			want += i
		}
	}
	if sum != want {
		return errgo.Newf("results sum to %d, want %d", sum, want)
	}
	return nil
}
