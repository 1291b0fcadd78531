package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "User"
	RoleAgent Role = "Agent"
	RoleAdmin Role = "Admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

type AccountStatus string

const (
	StatusPending AccountStatus = "Pending"
	StatusActive  AccountStatus = "Active"
	StatusBlocked AccountStatus = "Blocked"
)

// Account is a registered participant. PIN, NID and session are never
// serialized; use Summary or Profile for responses.
type Account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	MobileNumber string        `json:"mobile_number"`
	Email        string        `json:"email"`
	PINHash      string        `json:"-"`
	NID          string        `json:"-"`
	Role         Role          `json:"role"`
	Status       AccountStatus `json:"status"`
	Balance      Money         `json:"balance"`
	Income       Money         `json:"income"`
	SessionID    string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Summary is the counterparty view returned by money-movement operations.
type Summary struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobile_number"`
}

func (a Account) Summary() Summary {
	return Summary{Name: a.Name, MobileNumber: a.MobileNumber}
}

// Profile is the owner/admin view of an account.
type Profile struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	MobileNumber string        `json:"mobile_number"`
	Email        string        `json:"email"`
	Role         Role          `json:"role"`
	Status       AccountStatus `json:"status"`
	Balance      Money         `json:"balance"`
	Income       *Money        `json:"income,omitempty"`
}

func (a Account) Profile() Profile {
	p := Profile{
		ID:           a.ID,
		Name:         a.Name,
		MobileNumber: a.MobileNumber,
		Email:        a.Email,
		Role:         a.Role,
		Status:       a.Status,
		Balance:      a.Balance,
	}
	if a.Role != RoleUser {
		inc := a.Income
		p.Income = &inc
	}
	return p
}

// NewAccount holds the fields required to create an account.
type NewAccount struct {
	Name         string
	MobileNumber string
	Email        string
	PINHash      string
	NID          string
	Role         Role
	Status       AccountStatus
	Balance      Money
}
