// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/models"
)

// ContextReader returns the k most recent unfiltered events of an end-user,
// the triggering event included.
type ContextReader interface {
	ContextWindow(ctx context.Context, tenantID, endUserID string, k int) (models.ContextWindow, error)
}

// Decider picks an action for an event, or nil.
type Decider interface {
	Decide(event *models.Event, window models.ContextWindow) *models.Action
}

// Publisher delivers an action to a tenant's connected storefronts.
type Publisher interface {
	Publish(tenantID, endUserID string, action *models.Action) bool
}

// Task failure stages, also used as metric labels.
const (
	StageContextRead = "context_read"
	StageBreakerOpen = "breaker_open"
	StageTimeout     = "timeout"
	StagePanic       = "panic"
)

// Drop reasons.
const (
	DropQueueFull = "queue_full"
	DropStopped   = "stopped"
)

// ErrorHandler receives task failures. It runs on the worker goroutine and
// must not block.
type ErrorHandler func(ev *models.Event, stage string, err error)

// LogErrorHandler logs the failure and counts it.
func LogErrorHandler(ev *models.Event, stage string, err error) {
	metrics.RecordDispatchError(stage)
	logging.Warn().
		Err(err).
		Str("stage", stage).
		Str("store_id", ev.TenantID).
		Str("user_id", ev.EndUserID).
		Str("event_id", ev.EventID).
		Msg("Reaction task failed")
}

// Options configures a Dispatcher.
type Options struct {
	Workers    int
	QueueSize  int
	Timeout    time.Duration
	WindowSize int
	Breaker    BreakerOptions

	// OnError defaults to LogErrorHandler.
	OnError ErrorHandler
}

// Dispatcher runs reaction tasks on sharded workers.
type Dispatcher struct {
	queues    []chan *models.Event
	reader    *breakerReader
	decider   Decider
	publisher Publisher
	opts      Options

	depth   atomic.Int64
	stopped atomic.Bool
}

// New returns a Dispatcher. Workers start when Serve runs; events submitted
// before that wait in their queue.
func New(reader ContextReader, decider Decider, publisher Publisher, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = 5
	}
	if opts.OnError == nil {
		opts.OnError = LogErrorHandler
	}

	queues := make([]chan *models.Event, opts.Workers)
	for i := range queues {
		queues[i] = make(chan *models.Event, opts.QueueSize)
	}

	return &Dispatcher{
		queues:    queues,
		reader:    newBreakerReader(reader, opts.Breaker),
		decider:   decider,
		publisher: publisher,
		opts:      opts,
	}
}

// shard maps a tenant and end-user to a worker.
func (d *Dispatcher) shard(tenantID, endUserID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tenantID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(endUserID))
	return int(h.Sum32() % uint32(len(d.queues)))
}

// Submit queues a reaction for a stored event. It never blocks and returns
// false when the task was dropped.
func (d *Dispatcher) Submit(ev *models.Event) bool {
	if d.stopped.Load() {
		metrics.RecordDispatchDropped(DropStopped)
		return false
	}

	select {
	case d.queues[d.shard(ev.TenantID, ev.EndUserID)] <- ev:
		metrics.DispatchSubmitted.Inc()
		metrics.DispatchQueueDepth.Set(float64(d.depth.Add(1)))
		return true
	default:
		metrics.RecordDispatchDropped(DropQueueFull)
		logging.Warn().
			Str("store_id", ev.TenantID).
			Str("event_id", ev.EventID).
			Msg("Reaction queue full, dropping task")
		return false
	}
}

// Serve runs the workers until ctx is canceled. Tasks still queued at
// shutdown are abandoned.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.stopped.Store(false)

	var wg sync.WaitGroup
	for i := range d.queues {
		wg.Add(1)
		go func(queue <-chan *models.Event) {
			defer wg.Done()
			d.work(ctx, queue)
		}(d.queues[i])
	}

	logging.Info().Int("workers", len(d.queues)).Msg("Reaction dispatcher started")
	<-ctx.Done()
	d.stopped.Store(true)
	wg.Wait()

	logging.Info().Int64("abandoned", d.depth.Load()).Msg("Reaction dispatcher stopped")
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (d *Dispatcher) String() string {
	return "reaction-dispatcher"
}

func (d *Dispatcher) work(ctx context.Context, queue <-chan *models.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			metrics.DispatchQueueDepth.Set(float64(d.depth.Add(-1)))
			d.run(ctx, ev)
		}
	}
}

// run handles one task. Panics are contained so one bad event cannot stop
// its shard.
func (d *Dispatcher) run(parent context.Context, ev *models.Event) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.opts.OnError(ev, StagePanic, fmt.Errorf("panic: %v", r))
		}
		metrics.DispatchTaskDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(parent, d.opts.Timeout)
	defer cancel()
	ctx = logging.ContextWithCorrelationID(ctx, ev.EventID)

	window, err := d.reader.ContextWindow(ctx, ev.TenantID, ev.EndUserID, d.opts.WindowSize)
	switch {
	case err == nil:
	case isBreakerRejection(err):
		d.opts.OnError(ev, StageBreakerOpen, err)
		return
	case errors.Is(err, context.DeadlineExceeded):
		d.opts.OnError(ev, StageTimeout, err)
		return
	case parent.Err() != nil:
		return
	default:
		d.opts.OnError(ev, StageContextRead, err)
		return
	}

	action := d.decider.Decide(ev, window)
	if action == nil {
		metrics.RecordDecision("")
		return
	}
	metrics.RecordDecision(string(action.Type))

	if err := ctx.Err(); err != nil {
		d.opts.OnError(ev, StageTimeout, fmt.Errorf("decision ready after deadline: %w", err))
		return
	}

	// An undelivered action is already logged by the publisher.
	if !d.publisher.Publish(ev.TenantID, ev.EndUserID, action) {
		return
	}
	logging.Ctx(ctx).Debug().
		Str("store_id", ev.TenantID).
		Str("action", string(action.Type)).
		Msg("Reaction published")
}

// QueueDepth returns the number of tasks waiting across all shards.
func (d *Dispatcher) QueueDepth() int64 {
	return d.depth.Load()
}
