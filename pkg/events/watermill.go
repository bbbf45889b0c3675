// Package events provides a PostgreSQL-backed pub/sub EventBus built on Watermill.
//
// Delivery semantics:
//   - ConsumerGroup (default: <service>-consumer): messages are load-balanced across all
//     instances in the group, so only one instance processes each message.
//   - Handlers should be idempotent. On failure a message is retried up to 3 times
//     with exponential backoff and then Nacked.
//
// Repositories publish through NewTxPublisher so an event row is written in the same
// transaction as the data change (transactional outbox). With the Forwarder enabled,
// those rows land on an internal queue and the Forwarder daemon relays them to the
// real topic.
//
// OTel trace context is injected into message metadata on Publish and extracted in
// Subscribe.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/itemregistry/pkg/config"
	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/pkg/logger"
)

const (
	shutdownTimeout = 30 * time.Second
	forwarderTopic  = "_forwarder_queue" // internal outbox topic for the Forwarder daemon
	errChanSize     = 100
)

// ErrUnsupportedDriver is returned when the bus is asked to run on a database
// other than PostgreSQL.
var ErrUnsupportedDriver = errors.New("events: event bus requires postgres")

// EventBus is a PostgreSQL-backed pub/sub EventBus built on Watermill's SQL transport.
// It shares the application's connection pool and never closes it.
type EventBus struct {
	subscriber   *watermillsql.Subscriber
	fwd          *forwarder.Forwarder // non-nil only when forwarder mode is enabled
	db           *sql.DB
	log          logger.Logger
	wg           sync.WaitGroup
	retry        retryPolicy
	useForwarder bool
}

// NewEventBus initializes a Watermill SQL publisher and subscriber on db.
// Schema tables are created automatically on first use.
//
// All instances with the same cfg.ServiceName share a ConsumerGroup.
func NewEventBus(db *database.Database, cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return newEventBus(db, cfg, log, false)
}

// NewEventBusWithForwarder creates an EventBus whose publishes go through a
// durable SQL queue drained by the Forwarder daemon.
// Call StartForwarder(ctx) after creating the bus to begin forwarding.
func NewEventBusWithForwarder(db *database.Database, cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return newEventBus(db, cfg, log, true)
}

func newEventBus(db *database.Database, cfg *config.Config, log logger.Logger, useForwarder bool) (*EventBus, error) {
	if db.Driver() != database.DriverPostgres {
		return nil, ErrUnsupportedDriver
	}
	sqlDB := db.DB()

	sub, err := newSQLSubscriber(sqlDB, cfg.ServiceName+"-consumer", watermillLogger(log))
	if err != nil {
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}

	return &EventBus{
		subscriber:   sub,
		db:           sqlDB,
		log:          log,
		retry:        defaultRetryPolicy,
		useForwarder: useForwarder,
	}, nil
}

func newSQLPublisher(db watermillsql.ContextExecutor, autoInit bool, wlog watermill.LoggerAdapter) (*watermillsql.Publisher, error) {
	return watermillsql.NewPublisher(
		db,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: autoInit,
		},
		wlog,
	)
}

func newSQLSubscriber(db *sql.DB, consumerGroup string, wlog watermill.LoggerAdapter) (*watermillsql.Subscriber, error) {
	return watermillsql.NewSubscriber(
		db,
		watermillsql.SubscriberConfig{
			SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			ConsumerGroup:    consumerGroup,
		},
		wlog,
	)
}

// StartForwarder starts the background Forwarder daemon that reads messages from
// the internal forwarder queue and publishes them to their target topics.
// Must only be called once on an EventBus created with NewEventBusWithForwarder.
func (q *EventBus) StartForwarder(ctx context.Context) error {
	if !q.useForwarder {
		return fmt.Errorf("events: StartForwarder called on non-forwarder EventBus")
	}
	if q.fwd != nil {
		return fmt.Errorf("events: forwarder already started")
	}

	wlog := watermillLogger(q.log)

	fwdSub, err := newSQLSubscriber(q.db, "forwarder-consumer", wlog)
	if err != nil {
		return fmt.Errorf("events: new forwarder subscriber: %w", err)
	}

	targetPub, err := newSQLPublisher(q.db, true, wlog)
	if err != nil {
		_ = fwdSub.Close()
		return fmt.Errorf("events: new forwarder target publisher: %w", err)
	}

	fwd, err := forwarder.NewForwarder(fwdSub, targetPub, wlog, forwarder.Config{
		ForwarderTopic: forwarderTopic,
	})
	if err != nil {
		_ = targetPub.Close()
		_ = fwdSub.Close()
		return fmt.Errorf("events: create forwarder: %w", err)
	}

	q.fwd = fwd

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.log.InfoContext(ctx, "events: forwarder started")
		if err := fwd.Run(ctx); err != nil {
			q.log.ErrorContext(ctx, "events: forwarder stopped with error", "error", err)
		} else {
			q.log.InfoContext(ctx, "events: forwarder stopped")
		}
	}()

	select {
	case <-fwd.Running():
	case <-ctx.Done():
		return fmt.Errorf("events: context cancelled waiting for forwarder: %w", ctx.Err())
	}

	return nil
}

// InitializeTopics creates the message and offset tables for topics, plus the
// forwarder queue in forwarder mode. Transactional publishers never create
// tables, so every process that writes through NewTxPublisher calls this at
// startup; otherwise the first write on a fresh database fails and rolls back.
func (q *EventBus) InitializeTopics(topics ...string) error {
	if q.useForwarder {
		topics = append([]string{forwarderTopic}, topics...)
	}
	for _, topic := range topics {
		if err := q.subscriber.SubscribeInitialize(topic); err != nil {
			return fmt.Errorf("events: initialize %s: %w", topic, err)
		}
	}
	return nil
}

// NewTxPublisher returns a Publisher bound to tx, so publishing commits or
// rolls back together with the caller's data change. In forwarder mode the
// messages are wrapped as forwarder envelopes.
//
// AutoInitializeSchema is false because DDL inside the caller's transaction
// would race other writers; InitializeTopics creates the tables up front.
func (q *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := newSQLPublisher(tx, false, watermillLogger(q.log))
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	if q.useForwarder {
		return forwarder.NewPublisher(pub, forwarder.PublisherConfig{
			ForwarderTopic: forwarderTopic,
		}), nil
	}
	return pub, nil
}

// NewEventMessage marshals event to JSON and wraps it in a Watermill message
// carrying trace context from ctx and an event_version header.
func NewEventMessage(ctx context.Context, event any, version int) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("events: marshal: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_version", strconv.Itoa(version))
	injectTrace(ctx, msg)
	return msg, nil
}

// Subscribe registers handler to process messages from topic asynchronously.
// The handler receives a context with the publisher's trace restored.
//
//   - handler returns nil   → Ack
//   - handler returns error → retried up to 3× with exponential backoff (1s, 2s, 4s)
//   - all retries exhausted → Nack + error forwarded to the returned channel
//
// The returned error channel is buffered and must be drained by the caller.
// All in-flight handlers complete before Close() returns.
func (q *EventBus) Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	ch, err := q.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, errChanSize)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)

		for msg := range ch {
			msgCtx := extractTrace(ctx, msg)
			if err := q.retry.run(msgCtx, q.log.With("topic", topic, "message_uuid", msg.UUID), func(ctx context.Context) error {
				return handler(ctx, msg)
			}); err != nil {
				msg.Nack()
				select {
				case errCh <- err:
				default:
					q.log.ErrorContext(msgCtx, "events: error channel full, dropping error",
						"error", err, "topic", topic)
				}
			} else {
				msg.Ack()
			}
		}
	}()

	return errCh, nil
}

func injectTrace(ctx context.Context, msg *message.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Metadata.Set(k, v)
	}
}

func extractTrace(ctx context.Context, msg *message.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
}

// retryPolicy retries a failing handler with doubling delays. Attempts counts
// the first call, so attempts=3 gives waits of base and 2*base.
type retryPolicy struct {
	attempts int
	base     time.Duration
}

var defaultRetryPolicy = retryPolicy{attempts: 3, base: time.Second}

func (p retryPolicy) run(ctx context.Context, log logger.Logger, fn func(context.Context) error) error {
	delay := p.base
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.attempts {
			return fmt.Errorf("events: handler failed after %d attempts: %w", attempt, err)
		}
		log.WarnContext(ctx, "events: handler failed, retrying",
			"attempt", attempt,
			"next_delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// Ping checks the EventBus database connection health.
func (q *EventBus) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops the subscriber and forwarder, waits up to 30 s for in-flight
// handlers. The shared *sql.DB is left open.
func (q *EventBus) Close() error {
	if err := q.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}

	if q.fwd != nil {
		if err := q.fwd.Close(); err != nil {
			return fmt.Errorf("events: close forwarder: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		q.log.Error("events: timed out waiting for in-flight handlers to complete")
	}

	return nil
}

// watermillLogger routes Watermill's internal logs through the app logger, so
// they carry trace and request ids like everything else.
func watermillLogger(log logger.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(log.ToSlog())
}
