package services

import (
	"context"
	"io"
	"time"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
	"github.com/baharkarakas/mfs-backend/internal/statement"
)

const (
	maxPageSize       = 100
	maxStatementItems = 1000
)

// HistoryService serves read-only views of the ledger.
type HistoryService struct {
	accounts repo.Accounts
	txns     repo.Transactions
	pageSize int
}

func NewHistoryService(accounts repo.Accounts, txns repo.Transactions, pageSize int) *HistoryService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &HistoryService{accounts: accounts, txns: txns, pageSize: pageSize}
}

type Page struct {
	Transactions []models.Transaction `json:"transactions"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// History lists ownerID's transactions, newest first. Only the owner or
// an admin may read it.
func (s *HistoryService) History(ctx context.Context, actor models.Account, ownerID string, limit, offset int) (Page, error) {
	if err := policy.CanViewHistory(&actor, ownerID); err != nil {
		return Page{}, err
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		return Page{}, apperr.Validation("offset must not be negative")
	}
	items, err := s.txns.ListByAccount(ctx, ownerID, limit, offset)
	if err != nil {
		return Page{}, err
	}
	return Page{Transactions: items, Limit: limit, Offset: offset}, nil
}

// Lookup returns one transaction to a participant or an admin. Other
// callers see NotFound.
func (s *HistoryService) Lookup(ctx context.Context, actor models.Account, txnID string) (models.Transaction, error) {
	t, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := policy.CanViewTransaction(&actor, t); err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

// Statement renders up to the latest 1000 transactions of ownerID.
func (s *HistoryService) Statement(ctx context.Context, actor models.Account, ownerID string, f statement.Format, w io.Writer) error {
	if err := policy.CanViewHistory(&actor, ownerID); err != nil {
		return err
	}
	owner, err := s.accounts.GetByID(ctx, ownerID)
	if err != nil {
		return err
	}
	items, err := s.txns.ListByAccount(ctx, ownerID, maxStatementItems, 0)
	if err != nil {
		return err
	}
	st := statement.Statement{
		OwnerID:      ownerID,
		Owner:        owner.Summary(),
		Transactions: items,
		GeneratedAt:  time.Now(),
	}
	if err := st.Write(w, f); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
