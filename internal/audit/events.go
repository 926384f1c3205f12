package audit

import (
	"encoding/json"
	"time"
)

// One event per core operation, success or failure. Delivery is best effort
// and happens after the transactional outcome is decided; the audit trail
// never influences whether an operation commits.

const (
	OpOrderCreate   = "order_create"
	OpOrderUpdate   = "order_update"
	OpOrderDelete   = "order_delete"
	OpPaymentCreate = "payment_create"
	OpPaymentUpdate = "payment_update"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

const TopicTransactionLog = "audit.transaction-log"

type Event struct {
	EventID       string          `json:"event_id"` // uuid
	OperationType string          `json:"operation_type"`
	Payload       json.RawMessage `json:"payload"`
	Outcome       string          `json:"outcome"`
	FailureReason string          `json:"failure_reason,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
}

// PartitionKey groups all audit events of one producer-side operation type,
// keeping per-type ordering in the log.
func PartitionKey(operationType string) []byte { return []byte(operationType) }
