// Package events publishes domain events after a unit of work commits.
package events

import (
	"context"
	"time"

	"github.com/baharkarakas/mfs-backend/internal/models"
)

const (
	KeyTransactionCommitted = "ledger.transaction.committed"
	KeySettlementApplied    = "ledger.settlement.applied"
	KeyAccountRegistered    = "account.registered"
	KeyAccountStatusChanged = "account.status_changed"
)

type TransactionCommitted struct {
	TransactionID string                 `json:"transaction_id"`
	Type          models.TransactionType `json:"type"`
	SenderID      string                 `json:"sender_id"`
	ReceiverID    string                 `json:"receiver_id"`
	Amount        models.Money           `json:"amount"`
	Fee           models.Money           `json:"fee"`
	CreatedAt     time.Time              `json:"created_at"`
}

func FromTransaction(t models.Transaction) TransactionCommitted {
	return TransactionCommitted{
		TransactionID: t.TransactionID,
		Type:          t.Type,
		SenderID:      t.SenderID,
		ReceiverID:    t.ReceiverID,
		Amount:        t.Amount,
		Fee:           t.Fee,
		CreatedAt:     t.CreatedAt,
	}
}

type SettlementApplied struct {
	RequestID string               `json:"request_id"`
	AgentID   string               `json:"agent_id"`
	Kind      models.RequestKind   `json:"kind"`
	Status    models.RequestStatus `json:"status"`
	Amount    models.Money         `json:"amount"`
	AdminID   string               `json:"admin_id"`
}

type AccountChanged struct {
	AccountID string               `json:"account_id"`
	Role      models.Role          `json:"role"`
	Status    models.AccountStatus `json:"status"`
	ActorID   string               `json:"actor_id,omitempty"`
}

// Publisher delivers one event to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
	Close()
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close()                                     {}
