// Package memory is an in-process implementation of the repository
// contract. It backs tests and the STORAGE_DRIVER=memory development mode.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
)

// Store keeps all state behind one RWMutex. Units of work hold the write
// lock for their whole duration and roll back through an undo log.
type Store struct {
	mu sync.RWMutex

	accounts map[string]*models.Account
	byMobile map[string]string
	byEmail  map[string]string
	byNID    map[string]string

	txns     map[string]models.Transaction
	txnOrder []string

	requests map[string]*models.AgentRequest
	audits   []models.AuditLog

	now func() time.Time
}

func New() *Store {
	return &Store{
		accounts: map[string]*models.Account{},
		byMobile: map[string]string{},
		byEmail:  map[string]string{},
		byNID:    map[string]string{},
		txns:     map[string]models.Transaction{},
		requests: map[string]*models.AgentRequest{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Repositories() repo.Repositories {
	return repo.Repositories{
		Accounts:     accounts{s},
		Transactions: transactions{s},
		Requests:     requests{s},
		AuditLogs:    auditLogs{s},
		Tx:           s,
	}
}

type accounts struct{ s *Store }

func (r accounts) Create(_ context.Context, n models.NewAccount) (models.Account, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(n.Email)
	if _, ok := s.byMobile[n.MobileNumber]; ok {
		return models.Account{}, apperr.Conflict("user already exists")
	}
	if _, ok := s.byEmail[email]; ok {
		return models.Account{}, apperr.Conflict("user already exists")
	}
	if _, ok := s.byNID[n.NID]; ok {
		return models.Account{}, apperr.Conflict("user already exists")
	}
	now := s.now()
	a := &models.Account{
		ID:           uuid.NewString(),
		Name:         n.Name,
		MobileNumber: n.MobileNumber,
		Email:        email,
		PINHash:      n.PINHash,
		NID:          n.NID,
		Role:         n.Role,
		Status:       n.Status,
		Balance:      n.Balance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.accounts[a.ID] = a
	s.byMobile[a.MobileNumber] = a.ID
	s.byEmail[email] = a.ID
	s.byNID[a.NID] = a.ID
	return *a, nil
}

func (r accounts) GetByID(_ context.Context, id string) (models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return models.Account{}, apperr.NotFound("account not found")
	}
	return *a, nil
}

func (r accounts) GetByMobile(_ context.Context, mobile string) (models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byMobile[mobile]
	if !ok {
		return models.Account{}, apperr.NotFound("user not found")
	}
	return *r.s.accounts[id], nil
}

func (r accounts) GetByIdentifier(_ context.Context, identifier string) (models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byMobile[identifier]
	if !ok {
		id, ok = r.s.byEmail[strings.ToLower(identifier)]
	}
	if !ok {
		return models.Account{}, apperr.NotFound("user not found")
	}
	return *r.s.accounts[id], nil
}

func (r accounts) ListByStatus(_ context.Context, status models.AccountStatus, role models.Role) ([]models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Account
	for _, a := range r.s.accounts {
		if a.Status == status && (role == "" || a.Role == role) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r accounts) SetSession(_ context.Context, id, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return apperr.NotFound("account not found")
	}
	a.SessionID = sessionID
	a.UpdatedAt = r.s.now()
	return nil
}

type transactions struct{ s *Store }

func (r transactions) GetByID(_ context.Context, txnID string) (models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.txns[txnID]
	if !ok {
		return models.Transaction{}, apperr.NotFound("transaction not found")
	}
	return t, nil
}

func (r transactions) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Transaction{}
	skipped := 0
	for i := len(r.s.txnOrder) - 1; i >= 0 && len(out) < limit; i-- {
		t := r.s.txns[r.s.txnOrder[i]]
		if !t.Involves(accountID) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type requests struct{ s *Store }

func (r requests) ListPending(_ context.Context, kind models.RequestKind) ([]models.PendingAgentRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.PendingAgentRequest{}
	for _, q := range r.s.requests {
		if q.Kind != kind || q.Status != models.RequestPending {
			continue
		}
		a := r.s.accounts[q.AccountID]
		p := models.PendingAgentRequest{Agent: a.Summary(), AgentID: a.ID, Request: *q}
		if kind == models.RequestWithdraw {
			inc := a.Income
			p.Income = &inc
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Request.CreatedAt.Before(out[j].Request.CreatedAt) })
	return out, nil
}

type auditLogs struct{ s *Store }

func (r auditLogs) List(_ context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.AuditLog
	for _, l := range r.s.audits {
		if l.EntityType == entityType && l.EntityID != nil && *l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

// WithTx serializes units of work. Any error from fn reverts every write
// made through the Tx.
func (s *Store) WithTx(ctx context.Context, fn func(repo.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &memTx{s: s}
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			panic(p)
		}
		if err != nil {
			t.rollback()
		}
	}()
	return fn(t)
}

type memTx struct {
	s    *Store
	undo []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) LockAccounts(_ context.Context, ids ...string) (map[string]*models.Account, error) {
	out := make(map[string]*models.Account, len(ids))
	for _, id := range ids {
		if a, ok := t.s.accounts[id]; ok {
			cp := *a
			out[id] = &cp
		}
	}
	return out, nil
}

func (t *memTx) ApplyDelta(_ context.Context, id string, d repo.Delta) (models.Account, error) {
	a, ok := t.s.accounts[id]
	if !ok {
		return models.Account{}, apperr.InsufficientBalance("Insufficient balance.")
	}
	balance, okB := a.Balance.AddChecked(d.Balance)
	income, okI := a.Income.AddChecked(d.Income)
	if !okB || !okI {
		return models.Account{}, apperr.Validation("Amount exceeds the maximum allowed.")
	}
	if balance < 0 || income < 0 {
		return models.Account{}, apperr.InsufficientBalance("Insufficient balance.")
	}
	prev := *a
	t.undo = append(t.undo, func() { *a = prev })
	a.Balance = balance
	a.Income = income
	a.UpdatedAt = t.s.now()
	return *a, nil
}

func (t *memTx) SetStatus(_ context.Context, id string, status models.AccountStatus) error {
	a, ok := t.s.accounts[id]
	if !ok {
		return apperr.NotFound("account not found")
	}
	prev := *a
	t.undo = append(t.undo, func() { *a = prev })
	a.Status = status
	a.UpdatedAt = t.s.now()
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, in models.Transaction) (models.Transaction, error) {
	if _, ok := t.s.txns[in.TransactionID]; ok {
		return models.Transaction{}, repo.ErrDuplicateID
	}
	in.CreatedAt = t.s.now()
	t.s.txns[in.TransactionID] = in
	t.s.txnOrder = append(t.s.txnOrder, in.TransactionID)
	t.undo = append(t.undo, func() {
		delete(t.s.txns, in.TransactionID)
		t.s.txnOrder = t.s.txnOrder[:len(t.s.txnOrder)-1]
	})
	return in, nil
}

func (t *memTx) PendingRequest(_ context.Context, accountID string, kind models.RequestKind) (*models.AgentRequest, error) {
	var found *models.AgentRequest
	for _, q := range t.s.requests {
		if q.AccountID == accountID && q.Kind == kind && q.Status == models.RequestPending {
			if found == nil || q.CreatedAt.Before(found.CreatedAt) {
				found = q
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (t *memTx) InsertRequest(ctx context.Context, in models.AgentRequest) (models.AgentRequest, error) {
	if p, _ := t.PendingRequest(ctx, in.AccountID, in.Kind); p != nil {
		return models.AgentRequest{}, apperr.Conflict("You already have a pending request.")
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	in.Status = models.RequestPending
	in.CreatedAt = t.s.now()
	q := in
	t.s.requests[q.ID] = &q
	t.undo = append(t.undo, func() { delete(t.s.requests, q.ID) })
	return q, nil
}

func (t *memTx) ResolveRequest(_ context.Context, id string, status models.RequestStatus, resolvedBy string) (models.AgentRequest, error) {
	q, ok := t.s.requests[id]
	if !ok || q.Status != models.RequestPending {
		return models.AgentRequest{}, apperr.NotFound("No pending request found.")
	}
	prev := *q
	t.undo = append(t.undo, func() { *q = prev })
	now := t.s.now()
	by := resolvedBy
	q.Status = status
	q.ResolvedAt = &now
	q.ResolvedBy = &by
	return *q, nil
}

func (t *memTx) InsertAudit(_ context.Context, l models.AuditLog) error {
	l.ID = strconv.Itoa(len(t.s.audits) + 1)
	l.CreatedAt = t.s.now()
	t.s.audits = append(t.s.audits, l)
	t.undo = append(t.undo, func() { t.s.audits = t.s.audits[:len(t.s.audits)-1] })
	return nil
}
