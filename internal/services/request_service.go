package services

import (
	"context"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/config"
	"github.com/baharkarakas/mfs-backend/internal/events"
	"github.com/baharkarakas/mfs-backend/internal/metrics"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
)

// RequestService runs the agent cash/withdraw request workflow and
// applies the settlement when an admin approves.
type RequestService struct {
	d          Deps
	cashAmount models.Money
	audit      config.SettlementAudit
}

func NewRequestService(d Deps, cashAmount models.Money, audit config.SettlementAudit) *RequestService {
	if audit == "" {
		audit = config.SettlementAuditLog
	}
	return &RequestService{d: d.withDefaults(), cashAmount: cashAmount, audit: audit}
}

// Submit opens a Pending request of kind for the acting agent.
func (s *RequestService) Submit(ctx context.Context, actor models.Account, kind models.RequestKind) (models.AgentRequest, error) {
	if err := policy.Authorize(actor.Role, policy.OpSubmitRequest); err != nil {
		return models.AgentRequest{}, err
	}
	var out models.AgentRequest
	err := s.d.Repos.Tx.WithTx(ctx, func(tx repo.Tx) error {
		locked, err := tx.LockAccounts(ctx, actor.ID)
		if err != nil {
			return err
		}
		agent, ok := locked[actor.ID]
		if !ok {
			return apperr.Auth("Account not found.")
		}
		pending, err := tx.PendingRequest(ctx, actor.ID, kind)
		if err != nil {
			return err
		}
		if err := policy.CanSubmitRequest(agent, kind, pending != nil); err != nil {
			return err
		}
		out, err = tx.InsertRequest(ctx, models.AgentRequest{AccountID: actor.ID, Kind: kind})
		return err
	})
	if err != nil {
		return models.AgentRequest{}, err
	}
	s.d.Log.Info("agent request submitted", "request_id", out.ID, "account_id", actor.ID, "kind", kind)
	return out, nil
}

// Resolution describes an approved or rejected request.
type Resolution struct {
	Request       models.AgentRequest `json:"request"`
	Amount        models.Money        `json:"amount"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Agent         models.Profile      `json:"agent"`
}

// Resolve decides the oldest Pending request of kind for agentID. On
// approval a cash request credits the replenishment amount and a
// withdraw request moves the agent's whole income into its balance.
func (s *RequestService) Resolve(ctx context.Context, actor models.Account, agentID string, kind models.RequestKind, action policy.Action) (Resolution, error) {
	if err := policy.Authorize(actor.Role, policy.OpResolveRequest); err != nil {
		return Resolution{}, err
	}
	var res Resolution
	err := s.d.Repos.Tx.WithTx(ctx, func(tx repo.Tx) error {
		locked, err := tx.LockAccounts(ctx, agentID)
		if err != nil {
			return err
		}
		agent := locked[agentID]
		var pending *models.AgentRequest
		if agent != nil {
			if pending, err = tx.PendingRequest(ctx, agentID, kind); err != nil {
				return err
			}
		}
		if err := policy.CanResolveRequest(actor.Role, agent, pending); err != nil {
			return err
		}

		status := models.RequestRejected
		if action == policy.ActionApprove {
			status = models.RequestApproved
		}
		res.Request, err = tx.ResolveRequest(ctx, pending.ID, status, actor.ID)
		if err != nil {
			return err
		}

		after := *agent
		if status == models.RequestApproved {
			d := repo.Delta{Balance: s.cashAmount}
			if kind == models.RequestWithdraw {
				d = repo.Delta{Balance: agent.Income, Income: -agent.Income}
			}
			res.Amount = d.Balance
			if !d.IsZero() {
				if after, err = tx.ApplyDelta(ctx, agentID, d); err != nil {
					return err
				}
			}
			if s.audit == config.SettlementAuditLedger && res.Amount > 0 {
				typ := models.TxnCashRequest
				if kind == models.RequestWithdraw {
					typ = models.TxnWithdraw
				}
				rec, err := appendLedger(ctx, tx, s.d.NewID, models.Transaction{
					Type: typ, SenderID: actor.ID, ReceiverID: agentID, Amount: res.Amount,
				})
				if err != nil {
					return err
				}
				res.TransactionID = rec.TransactionID
				observeCommit(rec)
			}
		}
		res.Agent = after.Profile()

		if s.audit == config.SettlementAuditNone {
			return nil
		}
		details := map[string]any{"kind": string(kind), "status": string(status), "amount": res.Amount.String()}
		if res.TransactionID != "" {
			details["transaction_id"] = res.TransactionID
		}
		return tx.InsertAudit(ctx, models.AuditLog{
			EntityType: "agent_request",
			EntityID:   &res.Request.ID,
			ActorID:    &actor.ID,
			Action:     string(kind) + "_request_" + string(action),
			Details:    details,
		})
	})
	if err != nil {
		return Resolution{}, err
	}

	metrics.SettlementsTotal.WithLabelValues(string(kind), string(res.Request.Status)).Inc()
	s.d.Log.Info("agent request resolved",
		"request_id", res.Request.ID,
		"account_id", agentID,
		"kind", kind,
		"status", res.Request.Status,
		"amount", res.Amount.String(),
	)
	s.d.Events.Emit(events.KeySettlementApplied, events.SettlementApplied{
		RequestID: res.Request.ID,
		AgentID:   agentID,
		Kind:      kind,
		Status:    res.Request.Status,
		Amount:    res.Amount,
		AdminID:   actor.ID,
	})
	return res, nil
}

// ListPending lists agents with a Pending request of kind. Withdraw
// listings include each agent's income.
func (s *RequestService) ListPending(ctx context.Context, actor models.Account, kind models.RequestKind) ([]models.PendingAgentRequest, error) {
	if err := policy.Authorize(actor.Role, policy.OpAdminListings); err != nil {
		return nil, err
	}
	return s.d.Repos.Requests.ListPending(ctx, kind)
}
