package handlers

import (
	"net/http"

	"github.com/baharkarakas/mfs-backend/internal/api/httpx"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/services"
)

type AuthHandler struct {
	Accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{Accounts: accounts}
}

type registerReq struct {
	Name         string `json:"name" validate:"required,max=100"`
	MobileNumber string `json:"mobile_number" validate:"required,mobile"`
	Email        string `json:"email" validate:"required,email"`
	PIN          string `json:"pin" validate:"required,pin"`
	NID          string `json:"nid" validate:"required,nid"`
	Role         string `json:"role" validate:"required"`
}

func (req registerReq) input() services.RegisterInput {
	return services.RegisterInput{
		Name:         req.Name,
		MobileNumber: req.MobileNumber,
		Email:        req.Email,
		PIN:          req.PIN,
		NID:          req.NID,
		Role:         models.Role(req.Role),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !bind(w, r, &req) {
		return
	}
	sess, err := h.Accounts.Register(r.Context(), req.input())
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	msg := "User registered successfully"
	if sess.Account.Role == models.RoleAgent {
		msg = "Agent registered successfully. Awaiting admin approval."
	}
	reply(w, http.StatusCreated, msg, sess)
}

type loginReq struct {
	// Identifier is a mobile number or an email.
	Identifier string `json:"identifier" validate:"required"`
	PIN        string `json:"pin" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !bind(w, r, &req) {
		return
	}
	sess, err := h.Accounts.Login(r.Context(), req.Identifier, req.PIN)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	reply(w, http.StatusOK, "Login successful", sess)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.Accounts.Logout(r.Context(), a); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	reply(w, http.StatusOK, "Logged out successfully", nil)
}
