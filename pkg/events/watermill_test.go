package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/itemregistry/pkg/config"
	"github.com/ghuser/itemregistry/pkg/database"
	"github.com/ghuser/itemregistry/pkg/logger"
)

func setupTracer(t *testing.T) {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
}

func TestRetryPolicy(t *testing.T) {
	policy := retryPolicy{attempts: 3, base: time.Millisecond}
	tests := []struct {
		name      string
		failUntil int // fn fails while calls < failUntil
		wantErr   bool
		wantCalls int
	}{
		{"success on first attempt", 1, false, 1},
		{"success after retries", 3, false, 3},
		{"exhausts attempts", 100, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := policy.run(context.Background(), logger.Discard(), func(context.Context) error {
				calls++
				if calls < tt.failUntil {
					return errors.New("transient")
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, calls)
			}
		})
	}
}

func TestRetryPolicy_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := defaultRetryPolicy.run(ctx, logger.Discard(), func(context.Context) error {
		calls++
		return errors.New("error")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancel, got %d", calls)
	}
}

func TestStartForwarder_NonForwarderMode(t *testing.T) {
	bus := &EventBus{useForwarder: false}
	if err := bus.StartForwarder(context.Background()); err == nil {
		t.Fatal("expected error for non-forwarder EventBus")
	}
}

func TestNewEventBus_RejectsSQLite(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	_, err = NewEventBus(db, &config.Config{ServiceName: "test"}, logger.Discard())
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestNewEventMessage(t *testing.T) {
	setupTracer(t)
	ctx, span := otel.Tracer("test").Start(context.Background(), "save-item")
	defer span.End()

	type payload struct {
		ItemID string `json:"item_id"`
	}
	msg, err := NewEventMessage(ctx, payload{ItemID: "abc"}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.UUID == "" {
		t.Error("expected message UUID")
	}
	if got := msg.Metadata.Get("event_version"); got != "1" {
		t.Errorf("expected event_version=1, got %q", got)
	}
	if msg.Metadata.Get("traceparent") == "" {
		t.Error("expected traceparent in metadata")
	}
	var decoded payload
	if err := json.Unmarshal(msg.Payload, &decoded); err != nil || decoded.ItemID != "abc" {
		t.Fatalf("unexpected payload %s (%v)", msg.Payload, err)
	}
}

func TestNewEventMessage_Unmarshalable(t *testing.T) {
	if _, err := NewEventMessage(context.Background(), make(chan int), 1); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestTracePropagation_RoundTrip(t *testing.T) {
	setupTracer(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "publish-span")
	defer span.End()
	want := span.SpanContext().TraceID()

	msg := message.NewMessage("id", nil)
	injectTrace(ctx, msg)
	got := trace.SpanFromContext(extractTrace(context.Background(), msg)).SpanContext()

	if !got.IsValid() {
		t.Fatal("extracted span context is not valid")
	}
	if got.TraceID() != want {
		t.Errorf("trace ID mismatch: want %s, got %s", want, got.TraceID())
	}
}
