package requests

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/identity"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/httpx"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/shared"
)

// Handler manages load request HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	approvals *shared.ApprovalRecorder
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service, approvals *shared.ApprovalRecorder) *Handler {
	return &Handler{logger: logger, service: service, approvals: approvals}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Get("/{id}/history", h.history)

	r.Group(func(r chi.Router) {
		r.Use(identity.RequireRole(identity.RoleLSR))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/{id}/submit", h.submit)
	})

	r.Group(func(r chi.Router) {
		r.Use(identity.RequireRole(identity.RoleOfficer))
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
		r.Post("/bulk-approve", h.bulkApprove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.UserFromContext(r.Context())

	filter := ListFilter{Limit: 50}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := Status(s)
		if !status.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status "+s)
			return
		}
		filter.Status = &status
	}
	if p := r.URL.Query().Get("priority"); p != "" {
		priority := Priority(p)
		if !priority.Valid() {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown priority "+p)
			return
		}
		filter.Priority = &priority
	}
	if q := r.URL.Query().Get("q"); q != "" {
		filter.Search = &q
	}
	if d := parseDate(r.URL.Query().Get("date_from")); d != nil {
		filter.DateFrom = d
	}
	if d := parseDate(r.URL.Query().Get("date_to")); d != nil {
		end := d.Add(24 * time.Hour)
		filter.DateTo = &end
	}

	// Representatives only ever see their own requests.
	if user.Role == identity.RoleLSR {
		filter.LSRID = &user.ID
	} else if v := r.URL.Query().Get("lsr_id"); v != "" {
		if lsrID, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.LSRID = &lsrID
		}
	}

	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if items == nil {
		items = []LoadRequest{}
	}
	page := 1
	if filter.Limit > 0 {
		page = filter.Offset/filter.Limit + 1
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"requests":   items,
		"total":      total,
		"pagination": shared.NewPagination(page, filter.Limit, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	user, _ := identity.UserFromContext(r.Context())
	if user.Role == identity.RoleLSR && req.LSRID != user.ID {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	logs, err := h.approvals.List(r.Context(), id)
	if err != nil {
		h.logger.Error("list approval history", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	}
	if logs == nil {
		logs = []shared.ApprovalLog{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": logs})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.UserFromContext(r.Context())

	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	created, err := h.service.Create(r.Context(), user.ID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	user, _ := identity.UserFromContext(r.Context())

	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, user.ID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	user, _ := identity.UserFromContext(r.Context())

	submitted, err := h.service.Submit(r.Context(), id, user.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, submitted)
}

type approveBody struct {
	Modified *ModifiedLines `json:"modified,omitempty"`
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

	approved, err := h.service.Approve(r.Context(), id, user.ID, body.Modified)
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

	rejected, err := h.service.Reject(r.Context(), id, user.ID, body.Reason)
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

	result := h.service.BulkApprove(r.Context(), body.IDs, user.ID)
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

// respondError maps domain errors onto the response taxonomy.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNotOwner):
		httpx.RespondError(w, httpx.ErrForbidden)
	case errors.Is(err, ErrEmptyLines),
		errors.Is(err, ErrBlankReason),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidPriority),
		errors.As(err, &validationErrs):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrAlreadyProcessed),
		errors.Is(err, ErrNotSubmitted),
		errors.Is(err, ErrNotDraft):
		httpx.Problem(w, http.StatusConflict, "Already Processed", err.Error())
	default:
		h.logger.Error("load request operation failed", slog.Any("error", err))
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
