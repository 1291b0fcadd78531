package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/mfs-backend/internal/api/httpx"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
	"github.com/baharkarakas/mfs-backend/internal/services"
)

type AdminHandler struct {
	Accounts *services.AccountService
	Requests *services.RequestService
}

// decision reads {"action": "approve"|"reject"} from the body.
func decision(w http.ResponseWriter, r *http.Request) (policy.Action, bool) {
	var req decisionRequest
	if !bind(w, r, &req) {
		return "", false
	}
	act, err := policy.ParseAction(req.Action)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return "", false
	}
	return act, true
}

func (h *AdminHandler) PendingAgents(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	agents, err := h.Accounts.ListPendingAgents(r.Context(), a)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, agents)
}

func (h *AdminHandler) DecideAgent(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	act, ok := decision(w, r)
	if !ok {
		return
	}
	p, err := h.Accounts.DecideAgent(r.Context(), a, chi.URLParam(r, "id"), act)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	msg := "Agent approved successfully."
	if act == policy.ActionReject {
		msg = "Agent rejected successfully."
	}
	reply(w, http.StatusOK, msg, p)
}

func (h *AdminHandler) listRequests(w http.ResponseWriter, r *http.Request, kind models.RequestKind) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	items, err := h.Requests.ListPending(r.Context(), a, kind)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) resolve(w http.ResponseWriter, r *http.Request, kind models.RequestKind, label string) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	act, ok := decision(w, r)
	if !ok {
		return
	}
	res, err := h.Requests.Resolve(r.Context(), a, chi.URLParam(r, "id"), kind, act)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	msg := label + " request approved."
	if act == policy.ActionReject {
		msg = label + " request rejected."
	}
	reply(w, http.StatusOK, msg, res)
}

func (h *AdminHandler) CashRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, models.RequestCash)
}

func (h *AdminHandler) ResolveCashRequest(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, models.RequestCash, "Cash")
}

func (h *AdminHandler) WithdrawRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, models.RequestWithdraw)
}

func (h *AdminHandler) ResolveWithdrawRequest(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, models.RequestWithdraw, "Withdraw")
}

func (h *AdminHandler) OnboardAgent(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req registerReq
	req.Role = string(models.RoleAgent)
	if !bind(w, r, &req) {
		return
	}
	p, err := h.Accounts.RegisterAgent(r.Context(), a, req.input())
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	reply(w, http.StatusCreated, "Agent created successfully.", p)
}

func (h *AdminHandler) BlockedUsers(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	items, err := h.Accounts.ListBlocked(r.Context(), a)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *AdminHandler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req mobileRequest
	if !bind(w, r, &req) {
		return
	}
	p, err := h.Accounts.SetBlocked(r.Context(), a, req.MobileNumber, blocked)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	msg := "User unblocked successfully."
	if blocked {
		msg = "User blocked successfully."
	}
	reply(w, http.StatusOK, msg, p)
}

func (h *AdminHandler) BlockUser(w http.ResponseWriter, r *http.Request)   { h.setBlocked(w, r, true) }
func (h *AdminHandler) UnblockUser(w http.ResponseWriter, r *http.Request) { h.setBlocked(w, r, false) }
