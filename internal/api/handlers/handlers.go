// Package handlers adapts HTTP requests to service calls. Handlers decode
// and validate input, take the actor from the request context and render
// the service result or error.
package handlers

import (
	"net/http"

	"github.com/baharkarakas/mfs-backend/internal/api/httpx"
	"github.com/baharkarakas/mfs-backend/internal/api/validate"
	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/middleware"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

var validator = validate.New()

type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func reply(w http.ResponseWriter, status int, msg string, data any) {
	httpx.WriteJSON(w, status, envelope{Message: msg, Data: data})
}

// bind decodes the JSON body into dst and runs its validate tags.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		httpx.WriteAppError(w, r, err)
		return false
	}
	if err := validator.Struct(dst); err != nil {
		httpx.WriteAppError(w, r, err)
		return false
	}
	return true
}

func actor(w http.ResponseWriter, r *http.Request) (models.Account, bool) {
	a, ok := middleware.AccountFrom(r.Context())
	if !ok {
		httpx.WriteAppError(w, r, apperr.Auth("Missing bearer token."))
	}
	return a, ok
}

type moveRequest struct {
	MobileNumber string       `json:"mobile_number" validate:"required,mobile"`
	Amount       models.Money `json:"amount"`
	PIN          string       `json:"pin" validate:"required"`
}

type decisionRequest struct {
	Action string `json:"action" validate:"required"`
}

type mobileRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required,mobile"`
}
