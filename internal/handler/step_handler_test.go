package handler_test

import (
	"context"
	"encoding/json"
	"errors"
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

type mockCascadeService struct {
	startResponse    dto.StartStepResponse
	completeResponse dto.CompleteStepResponse
	applyResponse    dto.ApplyItemScoresResponse
	lastPayload      dto.ApplyItemScoresRequest
	lastActor        string
	err              error
}

func (m *mockCascadeService) StartStep(_ context.Context, stepCode, actorRef string) (dto.StartStepResponse, error) {
	m.lastActor = actorRef
	if m.err != nil {
		return dto.StartStepResponse{}, m.err
	}
	return m.startResponse, nil
}

func (m *mockCascadeService) CompleteStep(_ context.Context, stepCode, actorRef string) (dto.CompleteStepResponse, error) {
	m.lastActor = actorRef
	if m.err != nil {
		return dto.CompleteStepResponse{}, m.err
	}
	return m.completeResponse, nil
}

func (m *mockCascadeService) ApplyItemScores(_ context.Context, payload dto.ApplyItemScoresRequest) (dto.ApplyItemScoresResponse, error) {
	m.lastPayload = payload
	if m.err != nil {
		return dto.ApplyItemScoresResponse{}, m.err
	}
	return m.applyResponse, nil
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

func newStepApp(svc service.CascadeService) *fiber.App {
	app := fiber.New()
	handler.NewStepHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/steps"))
	return app
}

func TestStepHandler_StartSuccess(t *testing.T) {
	svc := &mockCascadeService{startResponse: dto.StartStepResponse{
		Step:    dto.StepSnapshot{Code: "S1", ProcessCode: "P1", Status: models.StatusAuditing, Progress: models.ProgressStarted},
		Process: dto.ProcessSnapshot{Code: "P1", Status: models.StatusAuditing},
	}}
	app := newStepApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/steps/S1/start", nil)
	req.Header.Set("X-Actor-Ref", "auditor-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "auditor-1", svc.lastActor)

	var response struct {
		Success bool                  `json:"success"`
		Data    dto.StartStepResponse `json:"data"`
		Message string                `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "step started", response.Message)
	require.Equal(t, models.StatusAuditing, response.Data.Step.Status)
	require.Equal(t, models.StatusAuditing, response.Data.Process.Status)
}

func TestStepHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "not found", err: service.ErrStepNotFound, statusCode: fiber.StatusNotFound},
		{name: "already started", err: service.ErrStepAlreadyStarted, statusCode: fiber.StatusConflict},
		{name: "not started", err: service.ErrStepNotStarted, statusCode: fiber.StatusConflict},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newStepApp(&mockCascadeService{err: tc.err})

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/steps/S1/start", nil))
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestStepHandler_CompleteBlockedByUnscoredItems(t *testing.T) {
	svc := &mockCascadeService{err: &service.IncompleteScoringError{Remaining: 3}}
	app := newStepApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/steps/S1/complete", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Remaining int64 `json:"remaining"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success)
	require.Equal(t, int64(3), response.Data.Remaining)
}
