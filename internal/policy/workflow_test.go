package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

func TestCanSubmitRequest(t *testing.T) {
	agent := acct("ag", models.RoleAgent, 0)

	assert.NoError(t, CanSubmitRequest(agent, models.RequestCash, false))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(CanSubmitRequest(agent, models.RequestCash, true)))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(CanSubmitRequest(agent, models.RequestWithdraw, false)))

	agent.Income = 100
	assert.NoError(t, CanSubmitRequest(agent, models.RequestWithdraw, false))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(CanSubmitRequest(agent, models.RequestWithdraw, true)))

	user := acct("u", models.RoleUser, 0)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(CanSubmitRequest(user, models.RequestCash, false)))
}

func TestCanResolveRequest(t *testing.T) {
	agent := acct("ag", models.RoleAgent, 0)
	req := &models.AgentRequest{ID: "r1", Status: models.RequestPending}

	assert.NoError(t, CanResolveRequest(models.RoleAdmin, agent, req))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(CanResolveRequest(models.RoleAgent, agent, req)))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(CanResolveRequest(models.RoleAdmin, nil, req)))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(CanResolveRequest(models.RoleAdmin, agent, nil)))
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("approve")
	assert.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	_, err = ParseAction("maybe")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAgentDecision(t *testing.T) {
	agent := acct("ag", models.RoleAgent, 0)
	st, err := AgentDecision(agent, ActionApprove)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusActive, st)

	st, err = AgentDecision(agent, ActionReject)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusBlocked, st)

	_, err = AgentDecision(acct("u", models.RoleUser, 0), ActionApprove)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCanChangeBlock(t *testing.T) {
	assert.NoError(t, CanChangeBlock(models.RoleAdmin, acct("u", models.RoleUser, 0)))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(CanChangeBlock(models.RoleAdmin, nil)))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(CanChangeBlock(models.RoleAdmin, acct("ad", models.RoleAdmin, 0))))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(CanChangeBlock(models.RoleUser, acct("u", models.RoleUser, 0))))
}
