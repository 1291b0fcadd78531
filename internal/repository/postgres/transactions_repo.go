package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

const txnCols = `transaction_id, type, sender_id::text, receiver_id::text, amount, fee, created_at`

type transactionsRepo struct{ pool *pgxpool.Pool }

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.TransactionID, &t.Type, &t.SenderID, &t.ReceiverID, &t.Amount, &t.Fee, &t.CreatedAt)
	return t, err
}

func (r *transactionsRepo) GetByID(ctx context.Context, txnID string) (models.Transaction, error) {
	t, err := scanTxn(r.pool.QueryRow(ctx, `SELECT `+txnCols+` FROM transactions WHERE transaction_id=$1`, txnID))
	if err != nil {
		return models.Transaction{}, notFound(err, "transaction not found")
	}
	return t, nil
}

func (r *transactionsRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+txnCols+`
		   FROM transactions
		  WHERE sender_id=$1::uuid OR receiver_id=$1::uuid
		  ORDER BY seq DESC
		  LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		out = append(out, t)
	}
	return out, apperr.Wrap(rows.Err())
}
