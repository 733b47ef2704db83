package requests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/shared"
)

type memoryRepo struct {
	requests  map[uuid.UUID]*LoadRequest
	counters  map[string]int
	getCalls  int
	txCalls   int
	// staleStatus makes Get report an outdated status for the given id while
	// the stored row keeps its real one, simulating a concurrent decision
	// landing between read and guarded update.
	staleStatus map[uuid.UUID]Status
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		requests:    make(map[uuid.UUID]*LoadRequest),
		counters:    make(map[string]int),
		staleStatus: make(map[uuid.UUID]Status),
	}
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (*LoadRequest, error) {
	r.getCalls++
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := req.Clone()
	if stale, ok := r.staleStatus[id]; ok {
		out.Status = stale
	}
	return out, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]LoadRequest, int, error) {
	var out []LoadRequest
	for _, req := range r.requests {
		if filter.LSRID != nil && req.LSRID != *filter.LSRID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		out = append(out, *req.Clone())
	}
	return out, len(out), nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.txCalls++
	return fn(ctx, &memoryTx{repo: r})
}

func (t *memoryTx) GenerateNumber(ctx context.Context, at time.Time) (string, error) {
	period := at.Format("200601")
	t.repo.counters[period]++
	return fmt.Sprintf("LR-%s-%04d", period, t.repo.counters[period]), nil
}

func (t *memoryTx) Insert(ctx context.Context, req LoadRequest) error {
	t.repo.requests[req.ID] = req.Clone()
	return nil
}

func (t *memoryTx) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	req, ok := t.repo.requests[id]
	if !ok {
		return ErrNotFound
	}
	applyFields(req, updates)
	return nil
}

func (t *memoryTx) ReplaceLines(ctx context.Context, id uuid.UUID, commercial []CommercialLine, posm []PosmLine) error {
	req, ok := t.repo.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.CommercialProducts = append([]CommercialLine(nil), commercial...)
	req.PosmItems = append([]PosmLine(nil), posm...)
	return nil
}

func (t *memoryTx) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, updates map[string]interface{}) (bool, error) {
	req, ok := t.repo.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	applyFields(req, updates)
	return true, nil
}

func applyFields(req *LoadRequest, updates map[string]interface{}) {
	for col, val := range updates {
		switch col {
		case "route":
			req.Route = val.(string)
		case "priority":
			req.Priority = Priority(val.(string))
		case "notes":
			notes := val.(string)
			req.Notes = &notes
		case "expected_delivery_date":
			d := val.(time.Time)
			req.ExpectedDeliveryDate = &d
		case "submitted_at":
			at := val.(time.Time)
			req.SubmittedAt = &at
		case "decided_at":
			at := val.(time.Time)
			req.DecidedAt = &at
		case "decision_reason":
			reason := val.(string)
			req.DecisionReason = &reason
		case "approver_id":
			approver := val.(int64)
			req.ApproverID = &approver
		}
	}
}

type recordingNotifier struct {
	messages []string
	fail     bool
}

func (n *recordingNotifier) Emit(ctx context.Context, recipientUserID int64, message string) error {
	if n.fail {
		return errors.New("notifier down")
	}
	n.messages = append(n.messages, message)
	return nil
}

type recordingApprovals struct {
	logs []shared.ApprovalLog
}

func (a *recordingApprovals) Record(ctx context.Context, log shared.ApprovalLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(repo *memoryRepo) (*Service, *recordingNotifier, *recordingApprovals) {
	notifier := &recordingNotifier{}
	approvals := &recordingApprovals{}
	svc := NewService(repo, approvals, notifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.WithNow(func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) })
	return svc, notifier, approvals
}

func draftRequest() CreateRequest {
	return CreateRequest{
		Route:    "Route 12 North",
		Priority: PriorityMedium,
		CommercialProducts: []CommercialLineReq{
			{SKU: "SKU-001", Name: "Cola 330ml", UOM: "CASE", Qty: 10, UnitPrice: 12.5},
			{SKU: "SKU-002", Name: "Water 500ml", UOM: "CASE", Qty: 4, UnitPrice: 6},
		},
		PosmItems: []PosmLineReq{
			{Code: "POSM-7", Description: "Shelf strip", Qty: 3},
		},
	}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	second, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)

	require.Equal(t, "LR-202608-0001", first.RequestNumber)
	require.Equal(t, "LR-202608-0002", second.RequestNumber)
	require.Equal(t, StatusDraft, first.Status)
}

func TestCreateRecomputesLineTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)

	created, err := svc.Create(context.Background(), 7, draftRequest())
	require.NoError(t, err)
	require.Len(t, created.CommercialProducts, 2)
	require.Equal(t, 125.0, created.CommercialProducts[0].TotalValue)
	require.Equal(t, 24.0, created.CommercialProducts[1].TotalValue)
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)

	req := draftRequest()
	req.CommercialProducts[0].Qty = 0
	_, err := svc.Create(context.Background(), 7, req)
	require.Error(t, err)
	require.Zero(t, repo.txCalls)
}

func TestUpdateReplacesLinesAndRecomputes(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)

	lines := []CommercialLineReq{{SKU: "SKU-009", Name: "Juice 1L", UOM: "CASE", Qty: 5, UnitPrice: 20}}
	updated, err := svc.Update(ctx, created.ID, 7, UpdateRequest{CommercialProducts: &lines})
	require.NoError(t, err)
	require.Len(t, updated.CommercialProducts, 1)
	require.Equal(t, 100.0, updated.CommercialProducts[0].TotalValue)
	// POSM collection untouched when not supplied.
	require.Len(t, updated.PosmItems, 1)
}

func TestUpdateRejectsForeignOwner(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)

	route := "Hijacked"
	_, err = svc.Update(ctx, created.ID, 8, UpdateRequest{Route: &route})
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestSubmitRequiresDraft(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	_, err = svc.Submit(ctx, created.ID, 7)
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestSubmitRejectsEmptyRequest(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	req := draftRequest()
	req.CommercialProducts = nil
	req.PosmItems = nil
	created, err := svc.Create(ctx, 7, req)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, created.ID, 7)
	require.ErrorIs(t, err, ErrEmptyLines)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
}

func TestTerminalRequestsAreImmutable(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, created.ID, 99, nil)
	require.NoError(t, err)

	route := "Route 13"
	_, err = svc.Update(ctx, created.ID, 7, UpdateRequest{Route: &route})
	require.ErrorIs(t, err, ErrNotDraft)

	_, err = svc.Approve(ctx, created.ID, 99, nil)
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = svc.Reject(ctx, created.ID, 99, "late")
	require.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestApproveRecordsDecisionAndNotifies(t *testing.T) {
	repo := newMemoryRepo()
	svc, notifier, approvals := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, created.ID, 99, nil)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.DecidedAt)
	require.NotNil(t, approved.ApproverID)
	require.Equal(t, int64(99), *approved.ApproverID)

	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], approved.RequestNumber)
	require.Contains(t, notifier.messages[0], "approved")

	// SUBMIT then APPROVE in the history trail.
	require.Len(t, approvals.logs, 2)
	require.Equal(t, shared.ApprovalApprove, approvals.logs[1].Action)
}

func TestApproveWithModifiedLinesOverwritesCollections(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)

	modified := &ModifiedLines{
		CommercialProducts: []CommercialLineReq{
			{SKU: "SKU-001", Name: "Cola 330ml", UOM: "CASE", Qty: 6, UnitPrice: 12.5},
		},
	}
	approved, err := svc.Approve(ctx, created.ID, 99, modified)
	require.NoError(t, err)
	require.Len(t, approved.CommercialProducts, 1)
	require.Equal(t, 6, approved.CommercialProducts[0].Qty)
	require.Equal(t, 75.0, approved.CommercialProducts[0].TotalValue)
	require.Empty(t, approved.PosmItems)
}

func TestApproveRejectsEmptyModifiedLines(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, created.ID, 99, &ModifiedLines{})
	require.ErrorIs(t, err, ErrEmptyLines)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, got.Status)
}

func TestRejectBlankReasonNeverTouchesRepository(t *testing.T) {
	repo := newMemoryRepo()
	svc, notifier, _ := newTestService(repo)

	_, err := svc.Reject(context.Background(), uuid.New(), 99, "   ")
	require.ErrorIs(t, err, ErrBlankReason)
	require.Zero(t, repo.getCalls)
	require.Zero(t, repo.txCalls)
	require.Empty(t, notifier.messages)
}

func TestRejectStoresReasonAndNotifies(t *testing.T) {
	repo := newMemoryRepo()
	svc, notifier, _ := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, created.ID, 99, "over capacity")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.DecisionReason)
	require.Equal(t, "over capacity", *rejected.DecisionReason)

	require.Len(t, notifier.messages, 1)
	require.Contains(t, notifier.messages[0], "rejected: over capacity")
}

func TestConcurrentDecisionHitsGuardedUpdate(t *testing.T) {
	repo := newMemoryRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)
	_, err = svc.Reject(ctx, created.ID, 98, "duplicate route")
	require.NoError(t, err)

	// A second reviewer read the request while it was still SUBMITTED.
	repo.staleStatus[created.ID] = StatusSubmitted
	_, err = svc.Approve(ctx, created.ID, 99, nil)
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	delete(repo.staleStatus, created.ID)
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, got.Status)
	require.Equal(t, int64(98), *got.ApproverID)
}

func TestBulkApproveReportsPerItemOutcomes(t *testing.T) {
	repo := newMemoryRepo()
	svc, notifier, _ := newTestService(repo)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		created, err := svc.Create(ctx, 7, draftRequest())
		require.NoError(t, err)
		_, err = svc.Submit(ctx, created.ID, 7)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	// One id still in DRAFT, one unknown.
	stuck, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	ids = append(ids, stuck.ID, uuid.New())

	result := svc.BulkApprove(ctx, ids, 99)
	require.Len(t, result.Succeeded, 3)
	require.Len(t, result.Failed, 2)
	require.Len(t, notifier.messages, 3)

	for _, id := range result.Succeeded {
		got, err := svc.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, StatusApproved, got.Status)
	}
	got, err := svc.Get(ctx, stuck.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
}

func TestNotifierFailureDoesNotFailDecision(t *testing.T) {
	repo := newMemoryRepo()
	svc, notifier, _ := newTestService(repo)
	notifier.fail = true
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, draftRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID, 7)
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, created.ID, 99, nil)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
}
