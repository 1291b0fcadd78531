package services

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/metrics"
	"github.com/baharkarakas/mfs-backend/internal/models"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
)

const (
	txnIDLength   = 10
	txnIDAttempts = 5
	txnIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

// NewTransactionID returns a random 10-character url-safe id (60 bits).
func NewTransactionID() string {
	u := uuid.New()
	// bytes 6 and 8 carry the uuid version and variant bits
	src := append(append([]byte{}, u[0:6]...), u[9:13]...)
	b := make([]byte, txnIDLength)
	for i := range b {
		b[i] = txnIDAlphabet[src[i]&63]
	}
	return string(b)
}

// appendLedger inserts t under a fresh id, retrying on collision.
func appendLedger(ctx context.Context, tx repo.Tx, newID func() string, t models.Transaction) (models.Transaction, error) {
	for i := 0; i < txnIDAttempts; i++ {
		t.TransactionID = newID()
		out, err := tx.InsertTransaction(ctx, t)
		if errors.Is(err, repo.ErrDuplicateID) {
			metrics.TxnIDCollisions.Inc()
			continue
		}
		return out, err
	}
	return models.Transaction{}, apperr.Internal(errors.New("could not allocate a unique transaction id"))
}

// deltas accumulates per-account changes so an account touched twice in
// one operation is updated once.
type deltas map[string]repo.Delta

func (d deltas) add(id string, balance, income models.Money) {
	cur := d[id]
	cur.Balance += balance
	cur.Income += income
	d[id] = cur
}

// apply writes the non-zero deltas in id order.
func (d deltas) apply(ctx context.Context, tx repo.Tx) (map[string]models.Account, error) {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make(map[string]models.Account, len(ids))
	for _, id := range ids {
		if d[id].IsZero() {
			continue
		}
		a, err := tx.ApplyDelta(ctx, id, d[id])
		if err != nil {
			return nil, err
		}
		out[id] = a
	}
	return out, nil
}
