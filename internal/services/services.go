// Package services implements the account, money-movement and request
// workflows on top of the repository contract.
package services

import (
	"log/slog"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/events"
	"github.com/baharkarakas/mfs-backend/internal/metrics"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
)

// Deps is shared by all services.
type Deps struct {
	Repos  repo.Repositories
	Policy *policy.Policy
	Events *events.Dispatcher
	Log    *slog.Logger
	// AdminID is the platform account that collects fees and resolves
	// agent requests. Resolved once at startup.
	AdminID string
	NewID   func() string
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.NewID == nil {
		d.NewID = NewTransactionID
	}
	if d.Policy == nil {
		d.Policy = policy.New(policy.DefaultFeeSchedule())
	}
	return d
}

func observeFailure(typ models.TransactionType, err error) {
	metrics.TransactionsFailed.WithLabelValues(string(typ), string(apperr.KindOf(err))).Inc()
}

func observeCommit(t models.Transaction) {
	metrics.TransactionsTotal.WithLabelValues(string(t.Type)).Inc()
	if t.Fee > 0 {
		metrics.FeesCollected.WithLabelValues(string(t.Type)).Add(float64(t.Fee))
	}
}

func ptr[T any](v T) *T { return &v }
