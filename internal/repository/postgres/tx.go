package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
)

const pendingRequestIndex = "account_requests_one_pending"

type txRunner struct{ pool *pgxpool.Pool }

// WithTx runs fn at READ COMMITTED. Account rows touched by money
// movement are always locked first via LockAccounts.
func (r *txRunner) WithTx(ctx context.Context, fn func(repo.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apperr.Wrap(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&pgTx{tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return apperr.Wrap(err)
	}
	return nil
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) LockAccounts(ctx context.Context, ids ...string) (map[string]*models.Account, error) {
	uniq := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := uuid.Parse(id); err == nil {
			uniq = append(uniq, id)
		}
	}
	sort.Strings(uniq)

	out := make(map[string]*models.Account, len(uniq))
	if len(uniq) == 0 {
		return out, nil
	}
	rows, err := t.tx.Query(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, uniq)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		out[a.ID] = &a
	}
	return out, apperr.Wrap(rows.Err())
}

func (t *pgTx) ApplyDelta(ctx context.Context, id string, d repo.Delta) (models.Account, error) {
	a, err := scanAccount(t.tx.QueryRow(ctx,
		`UPDATE accounts
		    SET balance = balance + $2, income = income + $3, updated_at = now()
		  WHERE id = $1::uuid AND balance + $2 >= 0 AND income + $3 >= 0
		  RETURNING `+accountCols,
		id, d.Balance, d.Income))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, apperr.InsufficientBalance("Insufficient balance.")
	}
	if isOutOfRange(err) {
		return models.Account{}, apperr.Validation("Amount exceeds the maximum allowed.")
	}
	if err != nil {
		return models.Account{}, apperr.Wrap(err)
	}
	return a, nil
}

func (t *pgTx) SetStatus(ctx context.Context, id string, status models.AccountStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE accounts SET status=$2, updated_at=now() WHERE id=$1::uuid`, id, status)
	if err != nil {
		return apperr.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}

// InsertTransaction runs inside a savepoint so that an id collision
// leaves the outer transaction usable for a retry.
func (t *pgTx) InsertTransaction(ctx context.Context, in models.Transaction) (models.Transaction, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return models.Transaction{}, apperr.Wrap(err)
	}
	out, err := scanTxn(sp.QueryRow(ctx,
		`INSERT INTO transactions(transaction_id, type, sender_id, receiver_id, amount, fee)
		 VALUES($1,$2,$3::uuid,$4::uuid,$5,$6)
		 RETURNING `+txnCols,
		in.TransactionID, in.Type, in.SenderID, in.ReceiverID, in.Amount, in.Fee))
	if err != nil {
		_ = sp.Rollback(ctx)
		if isUnique(err, "transactions_pkey") {
			return models.Transaction{}, repo.ErrDuplicateID
		}
		return models.Transaction{}, apperr.Wrap(err)
	}
	if err := sp.Commit(ctx); err != nil {
		return models.Transaction{}, apperr.Wrap(err)
	}
	return out, nil
}

const requestCols = `id::text, account_id::text, kind, status, created_at, resolved_at, resolved_by::text`

func scanRequest(row pgx.Row) (models.AgentRequest, error) {
	var r models.AgentRequest
	err := row.Scan(&r.ID, &r.AccountID, &r.Kind, &r.Status, &r.CreatedAt, &r.ResolvedAt, &r.ResolvedBy)
	return r, err
}

func (t *pgTx) PendingRequest(ctx context.Context, accountID string, kind models.RequestKind) (*models.AgentRequest, error) {
	r, err := scanRequest(t.tx.QueryRow(ctx,
		`SELECT `+requestCols+` FROM account_requests
		  WHERE account_id=$1::uuid AND kind=$2 AND status='Pending'
		  ORDER BY created_at LIMIT 1`,
		accountID, kind))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return &r, nil
}

func (t *pgTx) InsertRequest(ctx context.Context, in models.AgentRequest) (models.AgentRequest, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return models.AgentRequest{}, apperr.Wrap(err)
	}
	out, err := scanRequest(sp.QueryRow(ctx,
		`INSERT INTO account_requests(id, account_id, kind, status)
		 VALUES($1::uuid,$2::uuid,$3,'Pending')
		 RETURNING `+requestCols,
		in.ID, in.AccountID, in.Kind))
	if err != nil {
		_ = sp.Rollback(ctx)
		if isUnique(err, pendingRequestIndex) {
			return models.AgentRequest{}, apperr.Conflict("You already have a pending request.")
		}
		return models.AgentRequest{}, apperr.Wrap(err)
	}
	if err := sp.Commit(ctx); err != nil {
		return models.AgentRequest{}, apperr.Wrap(err)
	}
	return out, nil
}

func (t *pgTx) ResolveRequest(ctx context.Context, id string, status models.RequestStatus, resolvedBy string) (models.AgentRequest, error) {
	r, err := scanRequest(t.tx.QueryRow(ctx,
		`UPDATE account_requests
		    SET status=$2, resolved_at=now(), resolved_by=$3::uuid
		  WHERE id=$1::uuid AND status='Pending'
		  RETURNING `+requestCols,
		id, status, resolvedBy))
	if err != nil {
		return models.AgentRequest{}, notFound(err, "No pending request found.")
	}
	return r, nil
}

func (t *pgTx) InsertAudit(ctx context.Context, l models.AuditLog) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO audit_logs(entity_type, entity_id, actor_id, action, details)
		 VALUES($1,$2,$3,$4,$5)`,
		l.EntityType, l.EntityID, l.ActorID, l.Action, l.Details)
	return apperr.Wrap(err)
}
