// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

//go:build nats

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/models"
)

// ErrNotCompiled is returned by New in builds without the nats tag.
var ErrNotCompiled = errors.New("NATS support not compiled (build with -tags nats)")

const breakerName = "nats-mirror"

// Publisher mirrors accepted events to a Watermill publisher.
type Publisher struct {
	publisher message.Publisher
	cb        *gobreaker.CircuitBreaker[struct{}]
	topic     string

	queue chan *models.Event

	mu     sync.RWMutex
	closed bool
}

// New connects to NATS at cfg.URL, makes sure the stream exists and returns
// a Publisher for cfg.Topic.
func New(cfg *config.NATSConfig) (*Publisher, error) {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ensureStream(ctx, cfg.URL, topic); err != nil {
		return nil, err
	}

	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	natsOpts := []natsgo.Option{
		natsgo.Name("akira-event-mirror"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false, // created by ensureStream
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.AckWait(timeout),
				natsgo.RetryAttempts(2),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	logging.Info().Str("url", cfg.URL).Str("topic", topic).Msg("Event mirror connected")
	return newPublisher(pub, topic, DefaultQueueSize), nil
}

func newPublisher(pub message.Publisher, topic string, queueSize int) *Publisher {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})

	return &Publisher{
		publisher: pub,
		cb:        cb,
		topic:     topic,
		queue:     make(chan *models.Event, queueSize),
	}
}

// ensureStream creates the stream for topic, or updates it if it exists.
func ensureStream(ctx context.Context, url, topic string) error {
	nc, err := natsgo.Connect(url, natsgo.Name("akira-stream-init"))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{topic},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err = js.Stream(ctx, StreamName)
	switch {
	case err == nil:
		if _, err := js.UpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", StreamName, err)
		}
	case errors.Is(err, jetstream.ErrStreamNotFound):
		if _, err := js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("create stream %s: %w", StreamName, err)
		}
	default:
		return fmt.Errorf("check stream %s: %w", StreamName, err)
	}
	return nil
}

// Submit queues ev for mirroring. It never blocks.
func (p *Publisher) Submit(ev *models.Event) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		metrics.RecordEventBusPublish(ResultDropped)
		return false
	}

	select {
	case p.queue <- ev:
		return true
	default:
		metrics.RecordEventBusPublish(ResultDropped)
		logging.Warn().Str("event_id", ev.EventID).Msg("Event mirror queue full, dropping event")
		return false
	}
}

// Serve publishes queued events until ctx is canceled, then closes the
// underlying publisher. Events still queued are abandoned.
func (p *Publisher) Serve(ctx context.Context) error {
	defer p.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.queue:
			p.publish(ctx, ev)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (p *Publisher) String() string {
	return "event-mirror"
}

func (p *Publisher) publish(ctx context.Context, ev *models.Event) {
	data, err := Encode(ev)
	if err != nil {
		metrics.RecordEventBusPublish(ResultFailure)
		logging.Error().Err(err).Str("event_id", ev.EventID).Msg("Failed to encode mirrored event")
		return
	}

	msg := message.NewMessage(ev.EventID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, ev.EventID)
	msg.Metadata.Set("store_id", ev.TenantID)
	msg.Metadata.Set("event_type", ev.EventType)
	msg.SetContext(ctx)

	_, err = p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(p.topic, msg)
	})
	switch {
	case err == nil:
		metrics.RecordEventBusPublish(ResultSuccess)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordEventBusPublish(ResultRejected)
	default:
		metrics.RecordEventBusPublish(ResultFailure)
		logging.Warn().Err(err).Str("event_id", ev.EventID).Msg("Failed to mirror event")
	}
}

// Close stops accepting events and closes the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
