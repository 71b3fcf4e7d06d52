package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classops-api/internal/dto"
	"github.com/noah-isme/classops-api/internal/handler"
	"github.com/noah-isme/classops-api/internal/service"
)

type mockSubmissionService struct {
	created     dto.SubmissionResponse
	createErr   error
	lastCaller  uint
	lastContent string
	lastFile    *multipart.FileHeader
	listed      []dto.SubmissionDetailResponse
	latestFirst bool
}

func (m *mockSubmissionService) Create(_ context.Context, _ uint, callerID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	m.lastCaller = callerID
	m.lastContent = payload.Content
	m.lastFile = file
	return m.created, m.createErr
}

func (m *mockSubmissionService) Edit(_ context.Context, _ uint, _ uint, _ dto.SubmissionUpdateRequest, _ *multipart.FileHeader) (dto.SubmissionResponse, error) {
	return dto.SubmissionResponse{}, nil
}

func (m *mockSubmissionService) Delete(_ context.Context, _ uint, _ uint) error {
	return nil
}

func (m *mockSubmissionService) GetMine(_ context.Context, _ uint, _ uint) (*dto.SubmissionResponse, error) {
	return nil, nil
}

func (m *mockSubmissionService) ListForAssignment(_ context.Context, _ uint, _ uint, latestFirst bool) ([]dto.SubmissionDetailResponse, error) {
	m.latestFirst = latestFirst
	return m.listed, nil
}

func newSubmissionTestApp(svc service.SubmissionService) *fiber.App {
	app := fiber.New()
	authed := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		return c.Next()
	})

	h := handler.NewSubmissionHandler(svc, zerolog.New(io.Discard))
	h.RegisterAssignmentRoutes(authed.Group("/assignments"))
	h.RegisterSubmissionRoutes(authed.Group("/submissions"))

	return app
}

func TestSubmissionHandlerCreate(t *testing.T) {
	svc := &mockSubmissionService{created: dto.SubmissionResponse{ID: 3, AssignmentID: 5, Content: "answer"}}
	app := newSubmissionTestApp(svc)

	body, err := json.Marshal(dto.SubmissionCreateRequest{Content: "answer"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/5/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(7), svc.lastCaller)
	require.Equal(t, "answer", svc.lastContent)
}

func TestSubmissionHandlerCreateConflict(t *testing.T) {
	svc := &mockSubmissionService{createErr: service.ErrAlreadySubmitted}
	app := newSubmissionTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/5/submissions", bytes.NewReader([]byte(`{"content":"x"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSubmissionHandlerCreateLeaderOnly(t *testing.T) {
	svc := &mockSubmissionService{createErr: service.ErrOnlyLeaderMaySubmit}
	app := newSubmissionTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/5/submissions", bytes.NewReader([]byte(`{"content":"x"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestSubmissionHandlerListSortBy(t *testing.T) {
	svc := &mockSubmissionService{}
	app := newSubmissionTestApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/assignments/5/submissions?sortBy=earliest", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.False(t, svc.latestFirst)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/assignments/5/submissions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, svc.latestFirst, "latest is the default ordering")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/assignments/5/submissions?sortBy=bogus", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerGetMineEmpty(t *testing.T) {
	app := newSubmissionTestApp(&mockSubmissionService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/assignments/5/submissions/mine", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.Empty(t, envelope.Data, "absence of a submission is a success with no data")
}

func TestSubmissionHandlerBadID(t *testing.T) {
	app := newSubmissionTestApp(&mockSubmissionService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/submissions/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
