package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/identity"
)

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, nil)

	r := chi.NewRouter()
	r.Use(identity.Middleware)
	r.Route("/api/requests", handler.MountRoutes)
	return r, svc
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, userID, role string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(identity.HeaderUserID, userID)
	req.Header.Set(identity.HeaderUserRole, role)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndSubmitOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/requests", draftRequest(), "7", "lsr")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created LoadRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, StatusDraft, created.Status)
	require.NotEmpty(t, created.RequestNumber)

	rec = doJSON(t, router, http.MethodPost, "/api/requests/"+created.ID.String()+"/submit", nil, "7", "lsr")
	require.Equal(t, http.StatusOK, rec.Code)

	var submitted LoadRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	require.Equal(t, StatusSubmitted, submitted.Status)
}

func TestLifecycleRoutesEnforceRoles(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)

	// Officers cannot create; representatives cannot decide.
	rec := doJSON(t, router, http.MethodPost, "/api/requests", draftRequest(), "99", "officer")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/requests/"+created.ID.String()+"/approve", nil, "7", "lsr")
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/requests/"+created.ID.String()+"/approve", nil, "99", "officer")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestConcurrentDecisionRespondsConflict(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, created.ID, 98, nil)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/requests/"+created.ID.String()+"/reject",
		rejectBody{Reason: "too late"}, "99", "officer")
	require.Equal(t, http.StatusConflict, rec.Code)

	var problem struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, "Already Processed", problem.Title)
}

func TestRejectWithBlankReasonRespondsBadRequest(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/requests/"+created.ID.String()+"/reject",
		rejectBody{Reason: "   "}, "99", "officer")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, got.Status)
}

func TestRepresentativesOnlySeeTheirOwnRequests(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	mine, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Create(ctx, 8, draftRequest())
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/api/requests", nil, "7", "lsr")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Requests []LoadRequest `json:"requests"`
		Total    int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Equal(t, 1, listing.Total)
	require.Equal(t, int64(7), listing.Requests[0].LSRID)

	// Detail of a foreign request is forbidden too.
	rec = doJSON(t, router, http.MethodGet, "/api/requests/"+mine.ID.String(), nil, "8", "lsr")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBulkApproveRespondsPerItemOutcomes(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	ready, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, ready.ID, 7)
	require.NoError(t, err)
	stuck, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/api/requests/bulk-approve",
		bulkApproveBody{IDs: []uuid.UUID{ready.ID, stuck.ID}}, "99", "officer")
	require.Equal(t, http.StatusOK, rec.Code)

	var result BulkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Succeeded, 1)
	require.Len(t, result.Failed, 1)
	require.Equal(t, stuck.ID, result.Failed[0].ID)
}
