package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/auth"
	"github.com/baharkarakas/mfs-backend/internal/events"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
)

var errMissingAdmin = errors.New("admin account is not provisioned")

// Initial balances by role.
var openingBalance = map[models.Role]models.Money{
	models.RoleUser:  models.FromTaka(40),
	models.RoleAgent: models.FromTaka(100000),
	models.RoleAdmin: 0,
}

type AccountService struct {
	d      Deps
	tokens *auth.TokenManager
}

func NewAccountService(d Deps, tokens *auth.TokenManager) *AccountService {
	return &AccountService{d: d.withDefaults(), tokens: tokens}
}

type RegisterInput struct {
	Name         string
	MobileNumber string
	Email        string
	PIN          string
	NID          string
	Role         models.Role
}

// Session is returned by Register and Login.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   models.Profile `json:"user"`
}

func (s *AccountService) create(ctx context.Context, in RegisterInput, status models.AccountStatus) (models.Account, error) {
	hash, err := auth.HashPIN(in.PIN)
	if err != nil {
		return models.Account{}, apperr.Internal(err)
	}
	return s.d.Repos.Accounts.Create(ctx, models.NewAccount{
		Name:         strings.TrimSpace(in.Name),
		MobileNumber: strings.TrimSpace(in.MobileNumber),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PINHash:      hash,
		NID:          strings.TrimSpace(in.NID),
		Role:         in.Role,
		Status:       status,
		Balance:      openingBalance[in.Role],
	})
}

// Register creates a User (Active) or an Agent (Pending) and starts a
// session for it.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if err := policy.CanRegister(in.Role); err != nil {
		return Session{}, err
	}
	status := models.StatusActive
	if in.Role == models.RoleAgent {
		status = models.StatusPending
	}
	a, err := s.create(ctx, in, status)
	if err != nil {
		return Session{}, err
	}
	s.d.Log.Info("account registered", "account_id", a.ID, "role", a.Role, "status", a.Status)
	s.d.Events.Emit(events.KeyAccountRegistered, events.AccountChanged{AccountID: a.ID, Role: a.Role, Status: a.Status})
	return s.startSession(ctx, a)
}

// RegisterAgent lets an admin onboard an agent that is Active immediately.
func (s *AccountService) RegisterAgent(ctx context.Context, actor models.Account, in RegisterInput) (models.Profile, error) {
	if err := policy.CanRegisterAgent(actor.Role); err != nil {
		return models.Profile{}, err
	}
	in.Role = models.RoleAgent
	a, err := s.create(ctx, in, models.StatusActive)
	if err != nil {
		return models.Profile{}, err
	}
	s.d.Log.Info("agent onboarded", "account_id", a.ID, "actor_id", actor.ID)
	s.d.Events.Emit(events.KeyAccountRegistered, events.AccountChanged{AccountID: a.ID, Role: a.Role, Status: a.Status, ActorID: actor.ID})
	return a.Profile(), nil
}

func (s *AccountService) startSession(ctx context.Context, a models.Account) (Session, error) {
	token, sid, exp, err := s.tokens.Issue(a.ID, string(a.Role))
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	if err := s.d.Repos.Accounts.SetSession(ctx, a.ID, sid); err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, Account: a.Profile()}, nil
}

// Login accepts a mobile number or an email as identifier. A new login
// replaces any previous session.
func (s *AccountService) Login(ctx context.Context, identifier, pin string) (Session, error) {
	a, err := s.d.Repos.Accounts.GetByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return Session{}, err
	}
	if err := policy.CanLogin(&a, auth.VerifyPIN(pin, a.PINHash)); err != nil {
		s.d.Log.Info("login denied", "account_id", a.ID, "reason", apperr.Message(err))
		return Session{}, err
	}
	return s.startSession(ctx, a)
}

func (s *AccountService) Logout(ctx context.Context, actor models.Account) error {
	return s.d.Repos.Accounts.SetSession(ctx, actor.ID, "")
}

// Authenticate resolves a bearer token to its account. The token must
// belong to the account's current session and the account must be Active.
func (s *AccountService) Authenticate(ctx context.Context, token string) (models.Account, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.Account{}, apperr.Auth("Invalid or expired token.")
	}
	a, err := s.d.Repos.Accounts.GetByID(ctx, claims.AccountID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return models.Account{}, apperr.Auth("Invalid or expired token.")
	}
	if err != nil {
		return models.Account{}, err
	}
	if a.SessionID == "" || a.SessionID != claims.SessionID {
		return models.Account{}, apperr.Auth("Session expired. Please log in again.")
	}
	if a.Status != models.StatusActive {
		return models.Account{}, policy.CanLogin(&a, true)
	}
	return a, nil
}

// DecideAgent approves (Active) or rejects (Blocked) an agent.
func (s *AccountService) DecideAgent(ctx context.Context, actor models.Account, agentID string, action policy.Action) (models.Profile, error) {
	if err := policy.CanApproveAgent(actor.Role); err != nil {
		return models.Profile{}, err
	}
	var out models.Account
	err := s.d.Repos.Tx.WithTx(ctx, func(tx repo.Tx) error {
		locked, err := tx.LockAccounts(ctx, agentID)
		if err != nil {
			return err
		}
		status, err := policy.AgentDecision(locked[agentID], action)
		if err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, agentID, status); err != nil {
			return err
		}
		out = *locked[agentID]
		out.Status = status
		return tx.InsertAudit(ctx, models.AuditLog{
			EntityType: "account",
			EntityID:   &agentID,
			ActorID:    &actor.ID,
			Action:     "agent_" + string(action),
			Details:    map[string]any{"status": string(status)},
		})
	})
	if err != nil {
		return models.Profile{}, err
	}
	s.d.Log.Info("agent status changed", "account_id", agentID, "status", out.Status, "actor_id", actor.ID)
	s.d.Events.Emit(events.KeyAccountStatusChanged, events.AccountChanged{AccountID: out.ID, Role: out.Role, Status: out.Status, ActorID: actor.ID})
	return out.Profile(), nil
}

// SetBlocked blocks or unblocks the account owning mobile. Blocking also
// ends its session.
func (s *AccountService) SetBlocked(ctx context.Context, actor models.Account, mobile string, blocked bool) (models.Profile, error) {
	if err := policy.Authorize(actor.Role, policy.OpBlockAccount); err != nil {
		return models.Profile{}, err
	}
	target, err := s.d.Repos.Accounts.GetByMobile(ctx, strings.TrimSpace(mobile))
	if apperr.KindOf(err) == apperr.KindNotFound {
		return models.Profile{}, apperr.NotFound("User not found.")
	}
	if err != nil {
		return models.Profile{}, err
	}

	status, action := models.StatusActive, "unblock"
	if blocked {
		status, action = models.StatusBlocked, "block"
	}
	var out models.Account
	err = s.d.Repos.Tx.WithTx(ctx, func(tx repo.Tx) error {
		locked, err := tx.LockAccounts(ctx, target.ID)
		if err != nil {
			return err
		}
		if err := policy.CanChangeBlock(actor.Role, locked[target.ID]); err != nil {
			return err
		}
		if err := tx.SetStatus(ctx, target.ID, status); err != nil {
			return err
		}
		out = *locked[target.ID]
		out.Status = status
		return tx.InsertAudit(ctx, models.AuditLog{
			EntityType: "account",
			EntityID:   &target.ID,
			ActorID:    &actor.ID,
			Action:     action,
		})
	})
	if err != nil {
		return models.Profile{}, err
	}
	if blocked {
		if err := s.d.Repos.Accounts.SetSession(ctx, out.ID, ""); err != nil {
			s.d.Log.Warn("clear session after block", "account_id", out.ID, "err", err)
		}
	}
	s.d.Log.Info("account "+action+"ed", "account_id", out.ID, "actor_id", actor.ID)
	s.d.Events.Emit(events.KeyAccountStatusChanged, events.AccountChanged{AccountID: out.ID, Role: out.Role, Status: out.Status, ActorID: actor.ID})
	return out.Profile(), nil
}

func (s *AccountService) listProfiles(ctx context.Context, actor models.Account, status models.AccountStatus, role models.Role) ([]models.Profile, error) {
	if err := policy.Authorize(actor.Role, policy.OpAdminListings); err != nil {
		return nil, err
	}
	accts, err := s.d.Repos.Accounts.ListByStatus(ctx, status, role)
	if err != nil {
		return nil, err
	}
	out := make([]models.Profile, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.Profile())
	}
	return out, nil
}

func (s *AccountService) ListPendingAgents(ctx context.Context, actor models.Account) ([]models.Profile, error) {
	return s.listProfiles(ctx, actor, models.StatusPending, models.RoleAgent)
}

func (s *AccountService) ListBlocked(ctx context.Context, actor models.Account) ([]models.Profile, error) {
	return s.listProfiles(ctx, actor, models.StatusBlocked, "")
}

type AdminSeed struct {
	Name         string
	MobileNumber string
	Email        string
	NID          string
	PIN          string
}

// EnsureAdmin returns the id of the platform admin, creating it from seed
// on first start. The admin is looked up by mobile number only.
func EnsureAdmin(ctx context.Context, accounts repo.Accounts, seed AdminSeed) (string, error) {
	a, err := accounts.GetByMobile(ctx, seed.MobileNumber)
	if err == nil {
		if a.Role != models.RoleAdmin {
			return "", errors.New("admin mobile number belongs to a non-admin account")
		}
		return a.ID, nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return "", err
	}
	if seed.PIN == "" {
		return "", errors.New("ADMIN_PIN is required to provision the admin account")
	}
	hash, err := auth.HashPIN(seed.PIN)
	if err != nil {
		return "", err
	}
	a, err = accounts.Create(ctx, models.NewAccount{
		Name:         seed.Name,
		MobileNumber: seed.MobileNumber,
		Email:        strings.ToLower(seed.Email),
		PINHash:      hash,
		NID:          seed.NID,
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
		Balance:      openingBalance[models.RoleAdmin],
	})
	if err != nil {
		return "", err
	}
	return a.ID, nil
}
