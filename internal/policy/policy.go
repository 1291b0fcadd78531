// Package policy decides who may perform which operation and at what
// price. It never touches storage: every decision is made from account
// snapshots passed in by the caller.
package policy

import (
	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

type Operation string

const (
	OpSend            Operation = "send"
	OpCashIn          Operation = "cash_in"
	OpCashOut         Operation = "cash_out"
	OpSubmitRequest   Operation = "submit_request"
	OpResolveRequest  Operation = "resolve_request"
	OpApproveAgent    Operation = "approve_agent"
	OpRegisterAgent   Operation = "register_agent"
	OpBlockAccount    Operation = "block_account"
	OpAdminListings   Operation = "admin_listings"
	OpViewHistory     Operation = "view_history"
	OpViewBalance     Operation = "view_balance"
	OpViewTransaction Operation = "view_transaction"
)

// capabilities lists the roles allowed to start each operation. Target
// checks (ownership, counterparty role) happen in the Can* functions.
var capabilities = map[Operation][]models.Role{
	OpSend:            {models.RoleUser, models.RoleAgent, models.RoleAdmin},
	OpCashIn:          {models.RoleAgent},
	OpCashOut:         {models.RoleUser},
	OpSubmitRequest:   {models.RoleAgent},
	OpResolveRequest:  {models.RoleAdmin},
	OpApproveAgent:    {models.RoleAdmin},
	OpRegisterAgent:   {models.RoleAdmin},
	OpBlockAccount:    {models.RoleAdmin},
	OpAdminListings:   {models.RoleAdmin},
	OpViewHistory:     {models.RoleUser, models.RoleAgent, models.RoleAdmin},
	OpViewBalance:     {models.RoleUser, models.RoleAgent, models.RoleAdmin},
	OpViewTransaction: {models.RoleUser, models.RoleAgent, models.RoleAdmin},
}

var forbiddenMsg = map[Operation]string{
	OpCashIn:        "Only agents can perform cash-in.",
	OpCashOut:       "Only users can perform cash-out.",
	OpSubmitRequest: "Only agents can submit requests.",
}

// Authorize checks the actor's role against the capability table.
func Authorize(actor models.Role, op Operation) error {
	for _, r := range capabilities[op] {
		if r == actor {
			return nil
		}
	}
	if msg, ok := forbiddenMsg[op]; ok {
		return apperr.Forbidden(msg)
	}
	return apperr.Forbidden("Access denied.")
}

type Policy struct {
	fees FeeSchedule
}

func New(fees FeeSchedule) *Policy { return &Policy{fees: fees} }

func (p *Policy) Fees() FeeSchedule { return p.fees }

// SendInput is evaluated in this order: amount, PIN, receiver, funds.
type SendInput struct {
	Sender      *models.Account
	Receiver    *models.Account // nil when the mobile number is unknown
	Amount      models.Money
	PINVerified bool
}

func (p *Policy) CanSend(in SendInput) (Quote, error) {
	if err := Authorize(in.Sender.Role, OpSend); err != nil {
		return Quote{}, err
	}
	if in.Amount < p.fees.SendMinAmount {
		return Quote{}, apperr.Validation("Minimum amount is " + p.fees.SendMinAmount.Decimal().String() + " Taka.")
	}
	if err := checkMax(in.Amount); err != nil {
		return Quote{}, err
	}
	if !in.PINVerified {
		return Quote{}, apperr.Auth("Incorrect PIN.")
	}
	if in.Receiver == nil || in.Receiver.ID == in.Sender.ID {
		return Quote{}, apperr.NotFound("Receiver not found or invalid.")
	}
	q := Quote{Amount: in.Amount, Fee: p.fees.sendFee(in.Amount)}
	if in.Sender.Balance < q.Debit() {
		return Quote{}, apperr.InsufficientBalance("Insufficient balance.")
	}
	return q, nil
}

type CashInInput struct {
	Agent       *models.Account
	Receiver    *models.Account
	Amount      models.Money
	PINVerified bool
}

func (p *Policy) CanCashIn(in CashInInput) (Quote, error) {
	if err := Authorize(in.Agent.Role, OpCashIn); err != nil {
		return Quote{}, err
	}
	if in.Agent.Status != models.StatusActive {
		return Quote{}, apperr.Forbidden("Agent is not active.")
	}
	if in.Amount <= 0 {
		return Quote{}, apperr.Validation("Amount must be greater than zero.")
	}
	if err := checkMax(in.Amount); err != nil {
		return Quote{}, err
	}
	if !in.PINVerified {
		return Quote{}, apperr.Auth("Incorrect PIN.")
	}
	if in.Receiver == nil || in.Receiver.Role != models.RoleUser {
		return Quote{}, apperr.NotFound("User not found.")
	}
	q := Quote{Amount: in.Amount}
	if in.Agent.Balance < q.Debit() {
		return Quote{}, apperr.InsufficientBalance("Insufficient agent balance.")
	}
	return q, nil
}

type CashOutInput struct {
	User        *models.Account
	Agent       *models.Account
	Amount      models.Money
	PINVerified bool
}

func (p *Policy) CanCashOut(in CashOutInput) (Quote, error) {
	if err := Authorize(in.User.Role, OpCashOut); err != nil {
		return Quote{}, err
	}
	if in.Amount <= 0 {
		return Quote{}, apperr.Validation("Amount must be greater than zero.")
	}
	if err := checkMax(in.Amount); err != nil {
		return Quote{}, err
	}
	if !in.PINVerified {
		return Quote{}, apperr.Auth("Incorrect PIN.")
	}
	if in.Agent == nil || in.Agent.Role != models.RoleAgent || in.Agent.Status != models.StatusActive {
		return Quote{}, apperr.NotFound("Agent not found")
	}
	q := Quote{
		Amount:          in.Amount,
		Fee:             percent(in.Amount, p.fees.CashOutFeeRate),
		AgentCommission: percent(in.Amount, p.fees.CashOutAgentRate),
		AdminShare:      percent(in.Amount, p.fees.CashOutAdminRate) + p.fees.CashOutAdminSurcharge,
	}
	if in.User.Balance < q.Debit() {
		return Quote{}, apperr.InsufficientBalance("Insufficient balance.")
	}
	return q, nil
}

// checkMax keeps Quote.Debit and the balance deltas inside int64.
func checkMax(amount models.Money) error {
	if amount > models.MaxAmount {
		return apperr.Validation("Amount exceeds the maximum allowed.")
	}
	return nil
}

// CanRegister rejects self-registration as Admin.
func CanRegister(role models.Role) error {
	if role == models.RoleAdmin {
		return apperr.Forbidden("Admin registration not allowed")
	}
	if !role.Valid() {
		return apperr.Validation("Role must be User or Agent.")
	}
	return nil
}

func CanRegisterAgent(actor models.Role) error { return Authorize(actor, OpRegisterAgent) }

func CanApproveAgent(actor models.Role) error { return Authorize(actor, OpApproveAgent) }

// CanLogin is evaluated after the account was found.
func CanLogin(a *models.Account, pinVerified bool) error {
	if !pinVerified {
		return apperr.Auth("Invalid PIN.")
	}
	switch a.Status {
	case models.StatusPending:
		return apperr.Forbidden("Account is not approved.")
	case models.StatusBlocked:
		return apperr.Forbidden("Account is blocked.")
	}
	return nil
}

// CanViewHistory allows the owner or an Admin.
func CanViewHistory(actor *models.Account, ownerID string) error {
	if actor.ID == ownerID || actor.Role == models.RoleAdmin {
		return nil
	}
	return apperr.Forbidden("Access denied.")
}

func CanViewTransaction(actor *models.Account, t models.Transaction) error {
	if t.Involves(actor.ID) || actor.Role == models.RoleAdmin {
		return nil
	}
	return apperr.NotFound("Transaction not found.")
}
