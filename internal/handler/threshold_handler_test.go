package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/evalworks/audit-api/internal/dto"
	"github.com/evalworks/audit-api/internal/handler"
	"github.com/evalworks/audit-api/internal/models"
	"github.com/evalworks/audit-api/internal/service"
)

func newThresholdApp(threshold service.ThresholdService) *fiber.App {
	app := fiber.New()
	handler.NewThresholdHandler(threshold, zerolog.New(io.Discard)).Register(app.Group("/api/v1/thresholds"))
	return app
}

func TestThresholdHandler_ClassifySuccess(t *testing.T) {
	threshold := &mockThresholdService{decision: dto.ThresholdDecision{Outcome: models.OutcomeRetrain, SpawnSecondAudit: true, RuleID: 2}}
	app := newThresholdApp(threshold)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/thresholds/classify?audit_type=WEEKLY&score=2.5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                  `json:"success"`
		Data    dto.ThresholdDecision `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, models.OutcomeRetrain, response.Data.Outcome)
	require.True(t, response.Data.SpawnSecondAudit)
}

func TestThresholdHandler_ClassifyValidation(t *testing.T) {
	app := newThresholdApp(&mockThresholdService{})

	cases := []struct {
		name string
		path string
	}{
		{name: "missing audit_type", path: "/api/v1/thresholds/classify?score=2.5"},
		{name: "unknown audit_type", path: "/api/v1/thresholds/classify?audit_type=YEARLY&score=2.5"},
		{name: "missing score", path: "/api/v1/thresholds/classify?audit_type=WEEKLY"},
		{name: "malformed score", path: "/api/v1/thresholds/classify?audit_type=WEEKLY&score=high"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.NoError(t, err)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestThresholdHandler_ConfigurationGap(t *testing.T) {
	app := newThresholdApp(&mockThresholdService{err: service.ErrNoMatchingThreshold})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/thresholds/classify?audit_type=WEEKLY&score=2.5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
