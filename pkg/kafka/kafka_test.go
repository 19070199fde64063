package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type submittedPayload struct {
	FeedbackID string `json:"feedback_id"`
	ProductID  string `json:"product_id"`
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("feedback.submitted", "f-1", "feedback-service", submittedPayload{FeedbackID: "f-1", ProductID: "3"})
	require.NoError(t, err)

	assert.Len(t, ev.EventID, 36)
	assert.Equal(t, 1, ev.Version)
	assert.WithinDuration(t, time.Now().UTC(), ev.Timestamp, 2*time.Second)

	raw, err := ev.WithCorrelationID("corr-1").Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "corr-1", decoded.CorrelationID)

	var payload submittedPayload
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, "3", payload.ProductID)
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent("feedback.submitted", "f-1", "svc", make(chan int))
	assert.Error(t, err)
}

func TestUnmarshalEvent_Rejects(t *testing.T) {
	_, err := UnmarshalEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`{"event_id":"x"}`))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "feedbacktool.feedback.submitted", Topic("feedback", "submitted"))
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "event_type", Value: []byte("feedback.submitted")}}
	c := headerCarrier{headers: &headers}

	assert.Equal(t, "feedback.submitted", c.Get("event_type"))
	assert.Empty(t, c.Get("missing"))

	c.Set("traceparent", "abc")
	c.Set("event_type", "other")
	assert.Equal(t, "other", c.Get("event_type"))
	assert.ElementsMatch(t, []string{"event_type", "traceparent"}, c.Keys())
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducer_Publish(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	w := &fakeWriter{}
	p := &Producer{writer: w, logger: slog.New(slog.DiscardHandler)}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	ev, err := NewEvent("feedback.submitted", "f-1", "feedback-service", submittedPayload{FeedbackID: "f-1"})
	require.NoError(t, err)
	require.NoError(t, p.Publish(ctx, "feedbacktool.feedback.submitted", ev.WithCorrelationID("corr-1")))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "f-1", string(msg.Key))

	headers := msg.Headers
	c := headerCarrier{headers: &headers}
	assert.Equal(t, "feedback.submitted", c.Get("event_type"))
	assert.Equal(t, "corr-1", c.Get("correlation_id"))
	assert.Contains(t, c.Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}, logger: slog.New(slog.DiscardHandler)}
	ev, err := NewEvent("feedback.submitted", "f-1", "svc", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), "t", ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}

// fakeReader serves queued messages and then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func eventMessage(t *testing.T, offset int64, aggregateID string) kafka.Message {
	t.Helper()
	ev, err := NewEvent("feedback.submitted", aggregateID, "svc", submittedPayload{FeedbackID: aggregateID})
	require.NoError(t, err)
	raw, err := ev.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "t", Offset: offset, Value: raw}
}

func TestConsumer_ProcessesRetriesAndSkips(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		eventMessage(t, 1, "ok"),
		{Topic: "t", Offset: 2, Value: []byte("garbage")},
		eventMessage(t, 3, "poison"),
	}}

	var mu sync.Mutex
	attempts := map[string]int{}
	handler := func(_ context.Context, ev *Event) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[ev.AggregateID]++
		if ev.AggregateID == "poison" {
			return errors.New("cannot handle")
		}
		return nil
	}

	c := newConsumer(reader, ConsumerConfig{Topic: "t", GroupID: "g"}, handler, slog.New(slog.DiscardHandler))
	c.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(reader.committedOffsets()) == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{1, 2, 3}, reader.committedOffsets())
	mu.Lock()
	assert.Equal(t, 1, attempts["ok"])
	assert.Equal(t, maxHandlerRetries, attempts["poison"])
	mu.Unlock()
	assert.True(t, reader.closed)
}
