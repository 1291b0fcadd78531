package policy

import (
	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionReject:
		return Action(s), nil
	}
	return "", apperr.Validation("Action must be 'approve' or 'reject'")
}

// CanSubmitRequest gates an agent request. hasPending reports whether a
// Pending request of the same kind already exists.
func CanSubmitRequest(agent *models.Account, kind models.RequestKind, hasPending bool) error {
	if err := Authorize(agent.Role, OpSubmitRequest); err != nil {
		return err
	}
	if hasPending {
		if kind == models.RequestWithdraw {
			return apperr.Conflict("You already have a pending withdraw request.")
		}
		return apperr.Conflict("You already have a pending request.")
	}
	if kind == models.RequestWithdraw && agent.Income <= 0 {
		return apperr.Validation("No income available to withdraw.")
	}
	return nil
}

// CanResolveRequest gates an admin decision on an agent request.
func CanResolveRequest(actor models.Role, agent *models.Account, pending *models.AgentRequest) error {
	if err := Authorize(actor, OpResolveRequest); err != nil {
		return err
	}
	if agent == nil || agent.Role != models.RoleAgent {
		return apperr.NotFound("Agent not found")
	}
	if pending == nil {
		return apperr.NotFound("No pending request")
	}
	return nil
}

// AgentDecision maps an approval action to the agent's next status.
func AgentDecision(target *models.Account, action Action) (models.AccountStatus, error) {
	if target == nil || target.Role != models.RoleAgent {
		return "", apperr.NotFound("Agent not found")
	}
	if action == ActionApprove {
		return models.StatusActive, nil
	}
	return models.StatusBlocked, nil
}

// CanChangeBlock gates block/unblock of a target account.
func CanChangeBlock(actor models.Role, target *models.Account) error {
	if err := Authorize(actor, OpBlockAccount); err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("User not found.")
	}
	if target.Role == models.RoleAdmin {
		return apperr.Forbidden("Admin accounts cannot be blocked.")
	}
	return nil
}
