package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-retail-api.git/internal/kafka"
)

// Sink is the write-only boundary the core emits audit events into.
type Sink interface {
	Emit(ctx context.Context, operationType string, payload any, opErr error)
}

// KafkaSink publishes events through the async producer, so Emit never blocks
// on the broker and a broker outage cannot fail the operation being audited.
type KafkaSink struct {
	Producer *kafkax.Producer
	Service  string
	Log      *zap.Logger
}

func (s *KafkaSink) Emit(ctx context.Context, operationType string, payload any, opErr error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.Log.Warn("audit payload marshal failed",
			zap.String("operation", operationType), zap.Error(err))
		raw = []byte("null")
	}

	ev := Event{
		EventID:       uuid.NewString(),
		OperationType: operationType,
		Payload:       raw,
		Outcome:       OutcomeSuccess,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Service,
	}
	if opErr != nil {
		ev.Outcome = OutcomeFailed
		ev.FailureReason = opErr.Error()
	}

	s.Producer.Publish(PartitionKey(operationType), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(operationType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// NopSink drops everything. Used in tests and one-off tooling.
type NopSink struct{}

func (NopSink) Emit(context.Context, string, any, error) {}
