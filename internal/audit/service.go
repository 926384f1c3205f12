package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-retail-api.git/internal/kafka"
	"github.com/ariefcatur/go-retail-api.git/internal/redisx"
)

// Service is the consumer side of the audit trail: it drains the audit topic
// and persists events into transaction_logs.
type Service struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
	Log   *zap.Logger
}

// HandleEvent is installed as the consumer handler for TopicTransactionLog.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	ev, err := kafkax.Unwrap[Event](m.Value)
	if err != nil {
		// malformed message, log and commit so it cannot wedge the partition
		s.Log.Warn("audit event decode failed", zap.Error(err))
		return nil
	}

	// dedup on event id; redis being down only risks a duplicate row
	dkey := fmt.Sprintf(redisx.KeyAuditDedup, ev.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	_, err = s.DB.Exec(ctx, `
		INSERT INTO transaction_logs(event_id, type, data, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		ON CONFLICT (event_id) DO NOTHING
	`, ev.EventID, ev.OperationType, ev.Payload, ev.Outcome, ev.FailureReason, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert transaction log: %w", err)
	}

	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return nil
}

type Record struct {
	ID           int64           `json:"id"`
	EventID      string          `json:"event_id"`
	Type         string          `json:"type"`
	Data         json.RawMessage `json:"data"`
	Status       string          `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Recent returns the newest log entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, event_id, type, data, status, error_message, created_at
		FROM transaction_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.EventID, &r.Type, &r.Data, &r.Status, &r.ErrorMessage, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
