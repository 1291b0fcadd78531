package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/mfs-backend/internal/api/validate"
	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

const maxBodyBytes = 1 << 20

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:          http.StatusBadRequest,
	apperr.KindAuth:                http.StatusUnauthorized,
	apperr.KindForbidden:           http.StatusForbidden,
	apperr.KindNotFound:            http.StatusNotFound,
	apperr.KindConflict:            http.StatusConflict,
	apperr.KindInsufficientBalance: http.StatusBadRequest,
	apperr.KindInternal:            http.StatusInternalServerError,
}

func StatusOf(err error) int {
	if s, ok := statusByKind[apperr.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WriteAppError maps err to a status and writes it. Validation field
// errors go into details; internal causes are logged, never returned.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	var fields validate.Errs
	if errors.As(err, &fields) {
		WriteError(w, http.StatusBadRequest, string(apperr.KindValidation), "Validation failed", fields)
		return
	}
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	WriteError(w, StatusOf(err), string(kind), apperr.Message(err), nil)
}

// DecodeJSON reads exactly one JSON object from the body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, models.ErrMoneyPrecision) {
			return apperr.Validation("Amount supports at most two decimal places.")
		}
		if errors.Is(err, models.ErrMoneyRange) {
			return apperr.Validation("Amount exceeds the maximum allowed.")
		}
		return apperr.Validation("Invalid request body.")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation("Request body must only contain a single JSON object.")
	}
	return nil
}
