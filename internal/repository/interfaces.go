package repository

import (
	"context"
	"errors"

	"github.com/baharkarakas/mfs-backend/internal/models"
)

// ErrDuplicateID is returned by Tx.InsertTransaction when the generated
// transaction id already exists. The enclosing unit of work stays usable.
var ErrDuplicateID = errors.New("duplicate transaction id")

type Accounts interface {
	// Create fails with a Conflict error when mobile number, email or NID is taken.
	Create(ctx context.Context, a models.NewAccount) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
	GetByMobile(ctx context.Context, mobile string) (models.Account, error)
	// GetByIdentifier matches a mobile number or an email.
	GetByIdentifier(ctx context.Context, identifier string) (models.Account, error)
	ListByStatus(ctx context.Context, status models.AccountStatus, role models.Role) ([]models.Account, error)
	SetSession(ctx context.Context, id, sessionID string) error
}

type Transactions interface {
	GetByID(ctx context.Context, txnID string) (models.Transaction, error)
	// ListByAccount returns records where the account is sender or
	// receiver, newest first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error)
}

type Requests interface {
	ListPending(ctx context.Context, kind models.RequestKind) ([]models.PendingAgentRequest, error)
}

type AuditLogs interface {
	List(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error)
}

// Delta is a signed change applied to one account.
type Delta struct {
	Balance models.Money
	Income  models.Money
}

func (d Delta) IsZero() bool { return d.Balance == 0 && d.Income == 0 }

// Tx is a unit of work. All writes made through it commit together or
// not at all.
type Tx interface {
	// LockAccounts loads and locks the given accounts in a stable order.
	// Unknown ids are absent from the result.
	LockAccounts(ctx context.Context, ids ...string) (map[string]*models.Account, error)
	// ApplyDelta fails with InsufficientBalance if balance or income
	// would go negative.
	ApplyDelta(ctx context.Context, id string, d Delta) (models.Account, error)
	SetStatus(ctx context.Context, id string, status models.AccountStatus) error
	InsertTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// PendingRequest returns the oldest Pending request of kind, or nil.
	PendingRequest(ctx context.Context, accountID string, kind models.RequestKind) (*models.AgentRequest, error)
	// InsertRequest fails with Conflict if a Pending request of the same
	// kind exists.
	InsertRequest(ctx context.Context, r models.AgentRequest) (models.AgentRequest, error)
	ResolveRequest(ctx context.Context, id string, status models.RequestStatus, resolvedBy string) (models.AgentRequest, error)

	InsertAudit(ctx context.Context, l models.AuditLog) error
}

type TxRunner interface {
	// WithTx runs fn in a unit of work, rolling back when fn fails.
	WithTx(ctx context.Context, fn func(Tx) error) error
}

type Repositories struct {
	Accounts     Accounts
	Transactions Transactions
	Requests     Requests
	AuditLogs    AuditLogs
	Tx           TxRunner
}
