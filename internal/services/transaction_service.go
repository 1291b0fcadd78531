package services

import (
	"context"
	"strings"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/auth"
	"github.com/baharkarakas/mfs-backend/internal/events"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
)

// TransactionService moves money between accounts. Every operation locks
// the accounts it touches, re-evaluates policy on the locked snapshots,
// applies all balance changes and appends one ledger record in a single
// unit of work.
type TransactionService struct {
	d Deps
}

func NewTransactionService(d Deps) *TransactionService {
	return &TransactionService{d: d.withDefaults()}
}

// MoveInput carries a counterparty mobile number, an amount and the
// actor's PIN.
type MoveInput struct {
	Mobile string
	Amount models.Money
	PIN    string
}

// Receipt is returned to the actor after a committed movement.
type Receipt struct {
	TransactionID string                 `json:"transaction_id"`
	Type          models.TransactionType `json:"type"`
	Amount        models.Money           `json:"amount"`
	Fee           models.Money           `json:"fee"`
	Receiver      *models.Summary        `json:"receiver,omitempty"`
	Agent         *models.Summary        `json:"agent,omitempty"`
	Balance       models.Money           `json:"balance"`
}

// counterparty resolves a mobile number to an account id, or "" when unknown.
func (s *TransactionService) counterparty(ctx context.Context, mobile string) (string, error) {
	a, err := s.d.Repos.Accounts.GetByMobile(ctx, strings.TrimSpace(mobile))
	if apperr.KindOf(err) == apperr.KindNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// lock loads the actor, counterparty and, for fee-bearing operations, the
// admin under lock. A missing counterparty is returned as nil.
func (s *TransactionService) lock(ctx context.Context, tx repo.Tx, withAdmin bool, actorID, otherID string) (actor, other, admin *models.Account, err error) {
	ids := []string{actorID}
	if withAdmin {
		ids = append(ids, s.d.AdminID)
	}
	if otherID != "" {
		ids = append(ids, otherID)
	}
	locked, err := tx.LockAccounts(ctx, ids...)
	if err != nil {
		return nil, nil, nil, err
	}
	actor, ok := locked[actorID]
	if !ok {
		return nil, nil, nil, apperr.Auth("Account not found.")
	}
	if withAdmin {
		if admin, ok = locked[s.d.AdminID]; !ok {
			return nil, nil, nil, apperr.Internal(errMissingAdmin)
		}
	}
	return actor, locked[otherID], admin, nil
}

func (s *TransactionService) commit(ctx context.Context, tx repo.Tx, d deltas, t models.Transaction) (models.Transaction, map[string]models.Account, error) {
	after, err := d.apply(ctx, tx)
	if err != nil {
		return models.Transaction{}, nil, err
	}
	rec, err := appendLedger(ctx, tx, s.d.NewID, t)
	if err != nil {
		return models.Transaction{}, nil, err
	}
	return rec, after, nil
}

func (s *TransactionService) finish(t models.Transaction, err error) {
	if err != nil {
		observeFailure(t.Type, err)
		if apperr.KindOf(err) == apperr.KindInternal {
			s.d.Log.Error("transaction failed", "type", t.Type, "err", err)
			return
		}
		s.d.Log.Info("transaction rejected", "type", t.Type, "kind", apperr.KindOf(err), "reason", apperr.Message(err))
		return
	}
	observeCommit(t)
	s.d.Log.Info("transaction committed",
		"txn_id", t.TransactionID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"fee", t.Fee.String(),
	)
	s.d.Events.Emit(events.KeyTransactionCommitted, events.FromTransaction(t))
}

// Send transfers amount from the actor to the account owning in.Mobile.
// The sender pays amount plus fee and the fee accrues to the admin's income.
func (s *TransactionService) Send(ctx context.Context, actor models.Account, in MoveInput) (rcpt Receipt, err error) {
	rec := models.Transaction{Type: models.TxnSend}
	defer func() { s.finish(rec, err) }()

	pinOK := auth.VerifyPIN(in.PIN, actor.PINHash)
	receiverID, err := s.counterparty(ctx, in.Mobile)
	if err != nil {
		return Receipt{}, err
	}

	err = s.d.Repos.Tx.WithTx(ctx, func(tx repo.Tx) error {
		sender, receiver, admin, err := s.lock(ctx, tx, true, actor.ID, receiverID)
		if err != nil {
			return err
		}
		q, err := s.d.Policy.CanSend(policy.SendInput{Sender: sender, Receiver: receiver, Amount: in.Amount, PINVerified: pinOK})
		if err != nil {
			return err
		}

		d := deltas{}
		d.add(sender.ID, -q.Debit(), 0)
		d.add(receiver.ID, q.Amount, 0)
		d.add(admin.ID, 0, q.Fee)

		var after map[string]models.Account
		rec, after, err = s.commit(ctx, tx, d, models.Transaction{
			Type: models.TxnSend, SenderID: sender.ID, ReceiverID: receiver.ID, Amount: q.Amount, Fee: q.Fee,
		})
		if err != nil {
			return err
		}
		rcpt = Receipt{
			TransactionID: rec.TransactionID,
			Type:          rec.Type,
			Amount:        rec.Amount,
			Fee:           rec.Fee,
			Receiver:      ptr(receiver.Summary()),
			Balance:       after[sender.ID].Balance,
		}
		return nil
	})
	return rcpt, err
}

// CashIn moves an agent's float to a user. No fee.
func (s *TransactionService) CashIn(ctx context.Context, actor models.Account, in MoveInput) (rcpt Receipt, err error) {
	rec := models.Transaction{Type: models.TxnCashIn}
	defer func() { s.finish(rec, err) }()

	if err := policy.Authorize(actor.Role, policy.OpCashIn); err != nil {
		return Receipt{}, err
	}
	pinOK := auth.VerifyPIN(in.PIN, actor.PINHash)
	receiverID, err := s.counterparty(ctx, in.Mobile)
	if err != nil {
		return Receipt{}, err
	}

	err = s.d.Repos.Tx.WithTx(ctx, func(tx repo.Tx) error {
		agent, receiver, _, err := s.lock(ctx, tx, false, actor.ID, receiverID)
		if err != nil {
			return err
		}
		q, err := s.d.Policy.CanCashIn(policy.CashInInput{Agent: agent, Receiver: receiver, Amount: in.Amount, PINVerified: pinOK})
		if err != nil {
			return err
		}

		d := deltas{}
		d.add(agent.ID, -q.Debit(), 0)
		d.add(receiver.ID, q.Amount, 0)

		var after map[string]models.Account
		rec, after, err = s.commit(ctx, tx, d, models.Transaction{
			Type: models.TxnCashIn, SenderID: agent.ID, ReceiverID: receiver.ID, Amount: q.Amount,
		})
		if err != nil {
			return err
		}
		rcpt = Receipt{
			TransactionID: rec.TransactionID,
			Type:          rec.Type,
			Amount:        rec.Amount,
			Receiver:      ptr(receiver.Summary()),
			Balance:       after[agent.ID].Balance,
		}
		return nil
	})
	return rcpt, err
}

// CashOut pays a user's balance out through an agent. The user pays
// amount plus fee; the agent gains amount in balance and its commission
// in income; the admin's income gains the platform share.
func (s *TransactionService) CashOut(ctx context.Context, actor models.Account, in MoveInput) (rcpt Receipt, err error) {
	rec := models.Transaction{Type: models.TxnCashOut}
	defer func() { s.finish(rec, err) }()

	if err := policy.Authorize(actor.Role, policy.OpCashOut); err != nil {
		return Receipt{}, err
	}
	pinOK := auth.VerifyPIN(in.PIN, actor.PINHash)
	agentID, err := s.counterparty(ctx, in.Mobile)
	if err != nil {
		return Receipt{}, err
	}

	err = s.d.Repos.Tx.WithTx(ctx, func(tx repo.Tx) error {
		user, agent, admin, err := s.lock(ctx, tx, true, actor.ID, agentID)
		if err != nil {
			return err
		}
		q, err := s.d.Policy.CanCashOut(policy.CashOutInput{User: user, Agent: agent, Amount: in.Amount, PINVerified: pinOK})
		if err != nil {
			return err
		}

		d := deltas{}
		d.add(user.ID, -q.Debit(), 0)
		d.add(agent.ID, q.Amount, q.AgentCommission)
		d.add(admin.ID, 0, q.AdminShare)

		var after map[string]models.Account
		rec, after, err = s.commit(ctx, tx, d, models.Transaction{
			Type: models.TxnCashOut, SenderID: user.ID, ReceiverID: agent.ID, Amount: q.Amount, Fee: q.Fee,
		})
		if err != nil {
			return err
		}
		rcpt = Receipt{
			TransactionID: rec.TransactionID,
			Type:          rec.Type,
			Amount:        rec.Amount,
			Fee:           rec.Fee,
			Agent:         ptr(agent.Summary()),
			Balance:       after[user.ID].Balance,
		}
		return nil
	})
	return rcpt, err
}
