package models

import "time"

type RequestKind string

const (
	RequestCash     RequestKind = "cash"
	RequestWithdraw RequestKind = "withdraw"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestApproved RequestStatus = "Approved"
	RequestRejected RequestStatus = "Rejected"
)

// AgentRequest is a float top-up or income-withdraw request. At most one
// Pending request of each kind exists per agent.
type AgentRequest struct {
	ID         string        `json:"id"`
	AccountID  string        `json:"account_id"`
	Kind       RequestKind   `json:"kind"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
	ResolvedBy *string       `json:"resolved_by,omitempty"`
}

// PendingAgentRequest pairs a pending request with its agent for admin listings.
type PendingAgentRequest struct {
	Agent   Summary      `json:"agent"`
	AgentID string       `json:"agent_id"`
	Income  *Money       `json:"income,omitempty"`
	Request AgentRequest `json:"request"`
}
