// Package executor runs functions on a fixed set of worker goroutines and
// reports their outcomes through futures.
//
// Pending work sits in a ring buffer guarded by a cond.Condition: idle
// workers Wait on it, Submit Signals one of them, and Shutdown Broadcasts
// so every worker notices. The worker goroutines are tracked by a tomb.
package executor

import (
	"fmt"
	"time"

	"gopkg.in/errgo.v1"
	"gopkg.in/tomb.v2"

	"github.com/kolkov/condsync/internal/condvar/cond"
	"github.com/kolkov/condsync/internal/futures"
	"github.com/kolkov/condsync/internal/metrics"
	"github.com/kolkov/condsync/internal/syncerr"
)

// Task is the unit of work run by an Executor.
type Task func() (any, error)

type workItem struct {
	future *futures.Future
	task   Task
}

// Option configures an Executor.
type Option func(*Executor)

// WithName names the executor in errors and prefixes its metrics.
func WithName(name string) Option {
	return func(e *Executor) {
		e.name = name
	}
}

// WithMetrics records executor activity in m instead of a private registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// Executor is a fixed-size worker pool.
type Executor struct {
	name    string
	workers int

	c        *cond.Condition // guards queue and shutdown
	queue    queue
	shutdown bool

	t       tomb.Tomb
	metrics *metrics.Metrics
}

// New starts an executor with the given number of workers.
func New(workers int, opts ...Option) (*Executor, error) {
	if workers < 1 {
		return nil, syncerr.InvalidArgumentf("executor needs at least one worker, got %d", workers)
	}
	e := &Executor{
		name:    "executor",
		workers: workers,
		c:       cond.New(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New(e.name, nil)
	}
	for i := 0; i < workers; i++ {
		e.t.Go(e.worker)
	}
	return e, nil
}

// Name returns the executor's name.
func (e *Executor) Name() string {
	return e.name
}

// Workers returns the number of worker goroutines.
func (e *Executor) Workers() int {
	return e.workers
}

// Metrics returns the metrics the executor records into.
func (e *Executor) Metrics() *metrics.Metrics {
	return e.metrics
}

// Pending returns the number of submitted tasks no worker has picked up.
func (e *Executor) Pending() int {
	e.c.Lock()
	defer e.c.Unlock()
	return e.queue.Len()
}

// Submit schedules task and returns the future that will hold its outcome.
// It fails with an ErrShutdown cause once Shutdown has been called.
func (e *Executor) Submit(task Task) (*futures.Future, error) {
	if task == nil {
		return nil, syncerr.InvalidArgumentf("nil task")
	}
	e.c.Lock()
	defer e.c.Unlock()
	if e.shutdown {
		return nil, syncerr.Shutdownf("cannot schedule new work on %s after shutdown", e.name)
	}
	f := futures.NewFuture()
	e.queue.Push(&workItem{future: f, task: task})
	e.metrics.Counter("submitted").Inc(1)
	e.metrics.Gauge("queued").Update(int64(e.queue.Len()))
	e.c.Signal()
	return f, nil
}

// Shutdown stops accepting work. Queued tasks still run unless
// cancelPending is set, in which case their futures are cancelled and
// their waiters notified. With wait set, Shutdown returns once every
// worker has exited. Calling it more than once is harmless.
func (e *Executor) Shutdown(wait, cancelPending bool) error {
	e.c.Lock()
	e.shutdown = true
	var cancelled []*futures.Future
	if cancelPending {
		for e.queue.Len() > 0 {
			cancelled = append(cancelled, e.queue.Pop().future)
		}
		e.metrics.Gauge("queued").Update(0)
	}
	e.c.Broadcast()
	e.c.Unlock()

	for _, f := range cancelled {
		if f.Cancel() {
			f.SetRunningOrNotifyCancel()
			e.metrics.Counter("cancelled").Inc(1)
		}
	}
	if !wait {
		return nil
	}
	return e.Wait()
}

// Wait blocks until every worker has exited, which happens only after
// Shutdown.
func (e *Executor) Wait() error {
	if err := e.t.Wait(); err != nil {
		return errgo.Notef(err, "%s worker failed", e.name)
	}
	return nil
}

// Dead returns a channel closed once every worker has exited.
func (e *Executor) Dead() <-chan struct{} {
	return e.t.Dead()
}

func (e *Executor) worker() error {
	for {
		item := e.next()
		if item == nil {
			return nil
		}
		e.run(item)
	}
}

// next blocks until there is work or the executor is shut down with an
// empty queue, in which case it returns nil.
func (e *Executor) next() *workItem {
	e.c.Lock()
	defer e.c.Unlock()
	for e.queue.Len() == 0 && !e.shutdown {
		e.c.Wait()
	}
	item := e.queue.Pop()
	if item != nil {
		e.metrics.Gauge("queued").Update(int64(e.queue.Len()))
	}
	return item
}

func (e *Executor) run(item *workItem) {
	if !item.future.SetRunningOrNotifyCancel() {
		e.metrics.Counter("cancelled").Inc(1)
		return
	}
	start := time.Now()
	v, err := call(item.task)
	e.metrics.Timer("run").UpdateSince(start)
	if err != nil {
		e.metrics.Counter("failed").Inc(1)
		item.future.SetException(err)
		return
	}
	e.metrics.Counter("completed").Inc(1)
	item.future.SetResult(v)
}

// call runs task, turning a panic into an error.
func call(task Task) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return task()
}

// PanicError is the exception recorded for a task that panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}
