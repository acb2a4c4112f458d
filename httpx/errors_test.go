package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/survey-templates/store"
)

func TestError(t *testing.T) {
	type named struct {
		Name string `validate:"required"`
	}
	invalid := validator.New().Struct(named{})

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", invalid, http.StatusBadRequest, "invalid input: named.Name failed required"},
		{"invalid", fmt.Errorf("%w: name is required", store.ErrInvalid), http.StatusBadRequest, "invalid input: name is required"},
		{"not found", fmt.Errorf("%w: survey 3", store.ErrNotFound), http.StatusNotFound, "not found: survey 3"},
		{"conflict", fmt.Errorf("wrapped: %w", store.ErrConflict), http.StatusConflict, "wrapped: conflict"},
		{"internal", errors.New("disk full"), http.StatusInternalServerError, "Internal Server Error (test.op)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), "test.op", tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			body := ErrorResponse{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

func TestLogNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	LogNotFound(rec, httptest.NewRequest(http.MethodGet, "/", nil), "get_question", "question 7")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"question 7 not found"}`, rec.Body.String())
}
