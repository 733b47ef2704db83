package review

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/identity"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/httpx"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/requests"
)

// Handler manages review workspace HTTP endpoints. The whole surface is
// officer-only.
type Handler struct {
	logger    *slog.Logger
	workspace *Workspace
	requests  *requests.Service
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, workspace *Workspace, requestService *requests.Service) *Handler {
	return &Handler{logger: logger, workspace: workspace, requests: requestService}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(identity.RequireRole(identity.RoleOfficer))
	r.Get("/queue", h.queue)
	r.Post("/{id}/edit", h.enterEdit)
	r.Put("/{id}/lines", h.updateLine)
	r.Post("/{id}/save", h.saveQuantities)
	r.Post("/{id}/cancel", h.cancelEdit)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Post("/bulk-approve", h.bulkApprove)
}

// queue lists the SUBMITTED set with read-side filters applied.
func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	status := requests.StatusSubmitted
	items, _, err := h.requests.List(r.Context(), requests.ListFilter{Status: &status, Limit: 500})
	if err != nil {
		h.logger.Error("list submitted queue", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	}

	filter := Filter{
		SKU:      r.URL.Query().Get("sku"),
		FreeText: r.URL.Query().Get("q"),
	}
	if v := r.URL.Query().Get("lsr_id"); v != "" {
		if lsrID, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.LSRID = &lsrID
		}
	}
	if p := r.URL.Query().Get("priority"); p != "" {
		priority := requests.Priority(p)
		if !priority.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown priority "+p)
			return
		}
		filter.Priority = &priority
	}
	if d := parseDate(r.URL.Query().Get("date_from")); d != nil {
		filter.DateFrom = d
	}
	if d := parseDate(r.URL.Query().Get("date_to")); d != nil {
		end := d.Add(24 * time.Hour)
		filter.DateTo = &end
	}

	filtered := Apply(items, filter)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"requests": filtered,
		"total":    len(filtered),
	})
}

func (h *Handler) enterEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.workspace.EnterEditMode(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

type updateLineBody struct {
	Kind LineKind `json:"kind"`
	Ref  string   `json:"ref"`
	Qty  int      `json:"qty"`
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	var body updateLineBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	req, err := h.workspace.UpdateLineQty(id, body.Kind, body.Ref, body.Qty)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) saveQuantities(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.workspace.SaveQuantities(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	// Saved quantities are a pending view only; approving with
	// use_modified is what persists them.
	httpx.JSON(w, http.StatusOK, map[string]any{
		"request":   req,
		"committed": false,
	})
}

func (h *Handler) cancelEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.workspace.CancelEdit(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

type approveBody struct {
	UseModified bool `json:"use_modified"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	user, _ := identity.UserFromContext(r.Context())

	var body approveBody
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
			return
		}
	}

	approved, err := h.workspace.Approve(r.Context(), id, user.ID, body.UseModified)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, approved)
}

type rejectBody struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	user, _ := identity.UserFromContext(r.Context())

	var body rejectBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	rejected, err := h.workspace.Reject(r.Context(), id, user.ID, body.Reason)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rejected)
}

type bulkApproveBody struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) bulkApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.UserFromContext(r.Context())

	var body bulkApproveBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if len(body.IDs) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "ids must not be empty")
		return
	}

	result := h.workspace.BulkApprove(r.Context(), body.IDs, user.ID)
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, requests.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNoEditSession),
		errors.Is(err, ErrNoSavedEdits),
		errors.Is(err, ErrLineNotFound),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, requests.ErrBlankReason):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDecisionInFlight),
		errors.Is(err, requests.ErrAlreadyProcessed),
		errors.Is(err, requests.ErrNotSubmitted):
		httpx.Problem(w, http.StatusConflict, "Already Processed", err.Error())
	default:
		h.logger.Error("review operation failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
