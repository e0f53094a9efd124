package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"record not found", gorm.ErrRecordNotFound, fiber.StatusNotFound},
		{"wrapped record not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), fiber.StatusNotFound},
		{"validation", NewValidationError("bad"), fiber.StatusBadRequest},
		{"field validation", NewFieldValidationError(map[string][]string{"title": {"x"}}), fiber.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{"permission denied", NewPermissionDeniedError("no"), fiber.StatusForbidden},
		{"not found", NewNotFoundError("Suggestion", 7), fiber.StatusNotFound},
		{"internal", NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestRespondWithError_IncludesFields(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		err := NewFieldValidationError(map[string][]string{"title": {"This field is required."}})
		return RespondWithError(c, StatusFor(err), err)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "VALIDATION_ERROR", out.Code)
	assert.Equal(t, []string{"This field is required."}, out.Fields["title"])
}

func TestRespondWithError_HidesInternalCause(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("dsn=secret")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "secret")
	assert.Contains(t, string(body), "INTERNAL_ERROR")
}

func TestSuggestionState_Valid(t *testing.T) {
	assert.True(t, SuggestionOpen.Valid())
	assert.True(t, SuggestionClosed.Valid())
	assert.False(t, SuggestionState("archived").Valid())
	assert.False(t, SuggestionState("").Valid())
}
