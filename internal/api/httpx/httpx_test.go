package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/mfs-backend/internal/api/validate"
	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

func TestWriteAppErrorStatuses(t *testing.T) {
	cases := map[*apperr.Error]int{
		apperr.Validation("v"):          http.StatusBadRequest,
		apperr.Auth("a"):                http.StatusUnauthorized,
		apperr.Forbidden("f"):           http.StatusForbidden,
		apperr.NotFound("n"):            http.StatusNotFound,
		apperr.Conflict("c"):            http.StatusConflict,
		apperr.InsufficientBalance("i"): http.StatusBadRequest,
	}
	for e, status := range cases {
		rec := httptest.NewRecorder()
		WriteAppError(rec, httptest.NewRequest(http.MethodGet, "/", nil), e)
		assert.Equal(t, status, rec.Code, e.Msg)

		var body APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, e.Msg, body.Error)
		assert.Equal(t, string(e.Kind), body.Code)
	}
}

func TestWriteAppErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAppError(rec, httptest.NewRequest(http.MethodGet, "/", nil), assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestWriteAppErrorValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAppError(rec, httptest.NewRequest(http.MethodGet, "/", nil), validate.Errs{{Field: "pin", Msg: "required"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"pin"`)
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		A int          `json:"a"`
		M models.Money `json:"m"`
	}
	decode := func(body string) error {
		return DecodeJSON(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &v)
	}
	require.NoError(t, decode(`{"a":1}`))
	assert.Equal(t, 1, v.A)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(decode(`{"a":1}{"a":2}`)))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(decode(`{"b":1}`)))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(decode(`nope`)))

	err := decode(`{"m": 184467440737095616.16}`)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Amount exceeds the maximum allowed.", apperr.Message(err))
}
