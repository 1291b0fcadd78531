package handlers

import (
	"net/http"

	"github.com/baharkarakas/mfs-backend/internal/api/httpx"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/services"
)

type AgentHandler struct {
	Requests *services.RequestService
}

func (h *AgentHandler) submit(w http.ResponseWriter, r *http.Request, kind models.RequestKind, okMsg string) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	req, err := h.Requests.Submit(r.Context(), a, kind)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	reply(w, http.StatusCreated, okMsg, req)
}

func (h *AgentHandler) CashRequest(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, models.RequestCash, "Cash request submitted successfully.")
}

func (h *AgentHandler) WithdrawRequest(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, models.RequestWithdraw, "Withdraw request submitted successfully.")
}
