package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{shared.FieldErrors{"name": "is required"}, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: bad", shared.ErrValidation), http.StatusUnprocessableEntity},
		{fmt.Errorf("order: %w", shared.ErrNotFound), http.StatusNotFound},
		{shared.ErrIllegalTransition, http.StatusConflict},
		{shared.ErrConflict, http.StatusConflict},
		{shared.ErrIdempotencyConflict, http.StatusConflict},
		{shared.ErrForbidden, http.StatusForbidden},
		{shared.ErrUnauthenticated, http.StatusUnauthorized},
		{shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		res := httptest.NewRecorder()
		RespondError(res, tc.err)
		assert.Equal(t, tc.want, res.Code, tc.err.Error())
	}
}

func TestRespondErrorCarriesFields(t *testing.T) {
	res := httptest.NewRecorder()
	RespondError(res, shared.FieldErrors{"lines[0].quantity": "must be greater than 0"})

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "Validation Failed", body.Title)
	assert.Equal(t, "must be greater than 0", body.Fields["lines[0].quantity"])
}

func TestInternalErrorsHideDetail(t *testing.T) {
	res := httptest.NewRecorder()
	RespondError(res, errors.New("pq: password authentication failed"))
	assert.NotContains(t, res.Body.String(), "password")
	assert.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	err := DecodeJSON(req, &target)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "a", target.Name)
}
