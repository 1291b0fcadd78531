package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/mfs-backend/internal/api/httpx"
	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/services"
	"github.com/baharkarakas/mfs-backend/internal/statement"
)

type MoneyHandler struct {
	Txns    *services.TransactionService
	Balance *services.BalanceService
	History *services.HistoryService
}

type moveOp func(ctx context.Context, actor models.Account, in services.MoveInput) (services.Receipt, error)

func (h *MoneyHandler) move(w http.ResponseWriter, r *http.Request, okMsg string, op moveOp) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if !bind(w, r, &req) {
		return
	}
	rcpt, err := op(r.Context(), a, services.MoveInput{Mobile: req.MobileNumber, Amount: req.Amount, PIN: req.PIN})
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	reply(w, http.StatusCreated, okMsg, rcpt)
}

func (h *MoneyHandler) SendMoney(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, "Send Money successful", h.Txns.Send)
}

func (h *MoneyHandler) CashIn(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, "Cash-in successful", h.Txns.CashIn)
}

func (h *MoneyHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, "Cash-out successful", h.Txns.CashOut)
}

func (h *MoneyHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	p, err := h.Balance.Current(r.Context(), a)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

// GetHistory lists an account's transactions, newest first. With ?format=pdf
// or ?format=xlsx it returns a statement file instead.
func (h *MoneyHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	ownerID := chi.URLParam(r, "id")
	q := r.URL.Query()

	if raw := q.Get("format"); raw != "" {
		f, err := statement.ParseFormat(raw)
		if err != nil {
			httpx.WriteAppError(w, r, err)
			return
		}
		var buf bytes.Buffer
		if err := h.History.Statement(r.Context(), a, ownerID, f, &buf); err != nil {
			httpx.WriteAppError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="statement-%s.%s"`, ownerID, f))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
		return
	}

	limit, err := intParam(q.Get("limit"), 0)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	page, err := h.History.History(r.Context(), a, ownerID, limit, offset)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *MoneyHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	t, err := h.History.Lookup(r.Context(), a, chi.URLParam(r, "txnID"))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("limit and offset must be integers")
	}
	return n, nil
}
