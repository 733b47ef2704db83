// Package review implements the logistics officer's workspace over submitted
// load requests: scratch-buffer quantity edits and the final decision.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/requests"
)

// Domain errors for review sessions.
var (
	// ErrNoEditSession indicates no edit mode is open for the request.
	ErrNoEditSession = errors.New("no edit session for request")
	// ErrNoSavedEdits indicates approve asked for modified quantities but
	// none were saved.
	ErrNoSavedEdits = errors.New("no saved quantity edits for request")
	// ErrLineNotFound indicates a quantity edit referenced no line.
	ErrLineNotFound = errors.New("line not found on request")
	// ErrDecisionInFlight rejects a second decision while one is pending.
	ErrDecisionInFlight = errors.New("a decision for this request is already in flight")
	// ErrInvalidQuantity rejects non-positive quantity edits.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// LineKind selects which collection a quantity edit targets.
type LineKind string

const (
	// KindCommercial targets a priced product line, referenced by SKU.
	KindCommercial LineKind = "commercial"
	// KindPosm targets a POSM line, referenced by code.
	KindPosm LineKind = "posm"
)

// session holds one open edit over a submitted request. The original is
// untouched until a decision commits; edits live in the scratch clone.
type session struct {
	original *requests.LoadRequest
	scratch  *requests.LoadRequest
	saved    bool
}

// Workspace coordinates edit sessions and decisions. Sessions are in-process
// state: an abandoned session simply evaporates with the process, the stored
// request is never dirtied by one.
type Workspace struct {
	service *requests.Service
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	inFlight map[uuid.UUID]struct{}
}

// NewWorkspace constructs the review workspace.
func NewWorkspace(service *requests.Service, logger *slog.Logger) *Workspace {
	return &Workspace{
		service:  service,
		logger:   logger,
		sessions: make(map[uuid.UUID]*session),
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// EnterEditMode clones the request's line collections into a scratch buffer.
// Only SUBMITTED requests are editable.
func (ws *Workspace) EnterEditMode(ctx context.Context, id uuid.UUID) (*requests.LoadRequest, error) {
	req, err := ws.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requests.CanDecide(req); err != nil {
		return nil, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.sessions[id] = &session{original: req, scratch: req.Clone()}
	return req.Clone(), nil
}

// UpdateLineQty edits one line quantity in the scratch buffer. Commercial
// line totals are recomputed immediately; POSM lines have no price.
func (ws *Workspace) UpdateLineQty(id uuid.UUID, kind LineKind, ref string, qty int) (*requests.LoadRequest, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%s %s: %w", kind, ref, ErrInvalidQuantity)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	sess, ok := ws.sessions[id]
	if !ok {
		return nil, ErrNoEditSession
	}

	switch kind {
	case KindCommercial:
		for i := range sess.scratch.CommercialProducts {
			if sess.scratch.CommercialProducts[i].SKU == ref {
				sess.scratch.CommercialProducts[i].Qty = qty
				sess.scratch.CommercialProducts[i].Recompute()
				sess.saved = false
				return sess.scratch.Clone(), nil
			}
		}
	case KindPosm:
		for i := range sess.scratch.PosmItems {
			if sess.scratch.PosmItems[i].Code == ref {
				sess.scratch.PosmItems[i].Qty = qty
				sess.saved = false
				return sess.scratch.Clone(), nil
			}
		}
	}
	return nil, fmt.Errorf("%s %s: %w", kind, ref, ErrLineNotFound)
}

// SaveQuantities promotes the scratch buffer to the pending view. Nothing is
// persisted yet; an approve with useModified commits it.
func (ws *Workspace) SaveQuantities(id uuid.UUID) (*requests.LoadRequest, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	sess, ok := ws.sessions[id]
	if !ok {
		return nil, ErrNoEditSession
	}
	sess.saved = true
	return sess.scratch.Clone(), nil
}

// CancelEdit discards the scratch buffer and reverts to the original values.
func (ws *Workspace) CancelEdit(id uuid.UUID) (*requests.LoadRequest, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	sess, ok := ws.sessions[id]
	if !ok {
		return nil, ErrNoEditSession
	}
	delete(ws.sessions, id)
	return sess.original.Clone(), nil
}

// Approve commits the decision. With useModified the saved pending view
// overwrites the request's lines; otherwise the original lines stand. The
// session is closed only on success so a failed call leaves local state
// exactly as it was.
func (ws *Workspace) Approve(ctx context.Context, id uuid.UUID, officerID int64, useModified bool) (*requests.LoadRequest, error) {
	if err := ws.beginDecision(id); err != nil {
		return nil, err
	}
	defer ws.endDecision(id)

	var modified *requests.ModifiedLines
	if useModified {
		m, err := ws.savedLines(id)
		if err != nil {
			return nil, err
		}
		modified = m
	}

	approved, err := ws.service.Approve(ctx, id, officerID, modified)
	if err != nil {
		return nil, err
	}
	ws.closeSession(id)
	return approved, nil
}

// Reject commits a rejection. The reason guard runs inside the lifecycle
// service; a blank reason never reaches persistence.
func (ws *Workspace) Reject(ctx context.Context, id uuid.UUID, officerID int64, reason string) (*requests.LoadRequest, error) {
	if err := ws.beginDecision(id); err != nil {
		return nil, err
	}
	defer ws.endDecision(id)

	rejected, err := ws.service.Reject(ctx, id, officerID, reason)
	if err != nil {
		return nil, err
	}
	ws.closeSession(id)
	return rejected, nil
}

// BulkApprove forwards to the lifecycle service, guarding each id against a
// concurrent single decision. Guarded ids are reported as failed, the rest
// proceed serially.
func (ws *Workspace) BulkApprove(ctx context.Context, ids []uuid.UUID, officerID int64) requests.BulkResult {
	result := requests.BulkResult{Succeeded: []uuid.UUID{}, Failed: []requests.BulkFailed{}}
	for _, id := range ids {
		if err := ws.beginDecision(id); err != nil {
			result.Failed = append(result.Failed, requests.BulkFailed{ID: id, Error: err.Error()})
			continue
		}
		if _, err := ws.service.Approve(ctx, id, officerID, nil); err != nil {
			result.Failed = append(result.Failed, requests.BulkFailed{ID: id, Error: err.Error()})
			ws.endDecision(id)
			continue
		}
		ws.closeSession(id)
		ws.endDecision(id)
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

func (ws *Workspace) savedLines(id uuid.UUID) (*requests.ModifiedLines, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	sess, ok := ws.sessions[id]
	if !ok {
		return nil, ErrNoEditSession
	}
	if !sess.saved {
		return nil, ErrNoSavedEdits
	}

	modified := &requests.ModifiedLines{}
	for _, l := range sess.scratch.CommercialProducts {
		modified.CommercialProducts = append(modified.CommercialProducts, requests.CommercialLineReq{
			SKU:       l.SKU,
			Name:      l.Name,
			UOM:       l.UOM,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
		})
	}
	for _, l := range sess.scratch.PosmItems {
		modified.PosmItems = append(modified.PosmItems, requests.PosmLineReq{
			Code:        l.Code,
			Description: l.Description,
			Qty:         l.Qty,
		})
	}
	return modified, nil
}

func (ws *Workspace) beginDecision(id uuid.UUID) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if _, busy := ws.inFlight[id]; busy {
		return ErrDecisionInFlight
	}
	ws.inFlight[id] = struct{}{}
	return nil
}

func (ws *Workspace) endDecision(id uuid.UUID) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.inFlight, id)
}

func (ws *Workspace) closeSession(id uuid.UUID) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.sessions, id)
}
