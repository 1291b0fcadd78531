package services

import (
	"context"

	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
)

type BalanceService struct{ r repo.Accounts }

func NewBalanceService(r repo.Accounts) *BalanceService { return &BalanceService{r: r} }

// Current reads the actor's balance, plus income for agents and admins.
func (s *BalanceService) Current(ctx context.Context, actor models.Account) (models.Profile, error) {
	if err := policy.Authorize(actor.Role, policy.OpViewBalance); err != nil {
		return models.Profile{}, err
	}
	a, err := s.r.GetByID(ctx, actor.ID)
	if err != nil {
		return models.Profile{}, err
	}
	return a.Profile(), nil
}
