package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finadvisor/internal/core"
	"finadvisor/internal/identity"
)

type EventOp string

const (
	EventCreated EventOp = "created"
	EventDeleted EventOp = "deleted"
)

// TransactionEvent announces a committed change to one identity's
// transactions. Created events carry the full record; deleted events only
// the ID.
type TransactionEvent struct {
	Op            EventOp             `json:"op"`
	Identity      string              `json:"identity"`
	TransactionID string              `json:"transaction_id"`
	Transaction   *TransactionPayload `json:"transaction,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}

type TransactionPayload struct {
	Type        string `json:"type"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

func NewCreatedEvent(id identity.Identity, tx core.Transaction, now time.Time) *TransactionEvent {
	return &TransactionEvent{
		Op:            EventCreated,
		Identity:      id.String(),
		TransactionID: tx.ID,
		Transaction: &TransactionPayload{
			Type:        string(tx.Type),
			Category:    tx.Category,
			AmountCents: tx.Amount.Cents,
			Date:        tx.Date.String(),
			Description: tx.Description,
		},
		Timestamp: now,
	}
}

func NewDeletedEvent(id identity.Identity, txID string, now time.Time) *TransactionEvent {
	return &TransactionEvent{
		Op:            EventDeleted,
		Identity:      id.String(),
		TransactionID: txID,
		Timestamp:     now,
	}
}

// ToJSON converts the message to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.TransactionID == "" {
		return nil, fmt.Errorf("event without transaction id")
	}
	switch e.Op {
	case EventCreated:
		if e.Transaction == nil {
			return nil, fmt.Errorf("created event %s without transaction", e.TransactionID)
		}
	case EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event op %q", e.Op)
	}
	return &e, nil
}

// ToTransaction rebuilds the domain record carried by a created event.
func (e *TransactionEvent) ToTransaction() (core.Transaction, error) {
	if e.Transaction == nil {
		return core.Transaction{}, fmt.Errorf("event %s carries no transaction", e.TransactionID)
	}
	date, err := core.ParseDate(e.Transaction.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("event %s: %w", e.TransactionID, err)
	}
	tx := core.Transaction{
		ID:          e.TransactionID,
		Type:        core.TransactionType(e.Transaction.Type),
		Category:    e.Transaction.Category,
		Amount:      core.Money{Cents: e.Transaction.AmountCents},
		Date:        date,
		Description: e.Transaction.Description,
	}
	return tx, tx.Validate()
}
