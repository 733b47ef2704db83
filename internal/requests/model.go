package requests

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates the load request lifecycle states.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Priority enumerates request priorities.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// CommercialLine is a priced product line on a load request.
// TotalValue is derived and recomputed on every quantity change.
type CommercialLine struct {
	SKU        string  `json:"sku" db:"sku"`
	Name       string  `json:"name" db:"name"`
	UOM        string  `json:"uom" db:"uom"`
	Qty        int     `json:"qty" db:"qty"`
	UnitPrice  float64 `json:"unit_price" db:"unit_price"`
	TotalValue float64 `json:"total_value" db:"total_value"`
}

// Recompute refreshes the derived line total.
func (l *CommercialLine) Recompute() {
	l.TotalValue = float64(l.Qty) * l.UnitPrice
}

// PosmLine is a point-of-sale material line. POSM lines carry no price.
type PosmLine struct {
	Code        string `json:"code" db:"code"`
	Description string `json:"description" db:"description"`
	Qty         int    `json:"qty" db:"qty"`
}

// LoadRequest is the central entity of the approval workflow.
type LoadRequest struct {
	ID                   uuid.UUID        `json:"id" db:"id"`
	RequestNumber        string           `json:"request_number" db:"request_number"`
	LSRID                int64            `json:"lsr_id" db:"lsr_id"`
	Status               Status           `json:"status" db:"status"`
	Route                string           `json:"route" db:"route"`
	Priority             Priority         `json:"priority" db:"priority"`
	Notes                *string          `json:"notes,omitempty" db:"notes"`
	ExpectedDeliveryDate *time.Time       `json:"expected_delivery_date,omitempty" db:"expected_delivery_date"`
	CommercialProducts   []CommercialLine `json:"commercial_products" db:"-"`
	PosmItems            []PosmLine       `json:"posm_items" db:"-"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
	SubmittedAt          *time.Time       `json:"submitted_at,omitempty" db:"submitted_at"`
	DecidedAt            *time.Time       `json:"decided_at,omitempty" db:"decided_at"`
	DecisionReason       *string          `json:"decision_reason,omitempty" db:"decision_reason"`
	ApproverID           *int64           `json:"approver_id,omitempty" db:"approver_id"`
}

// LineCount returns the combined number of line items.
func (r *LoadRequest) LineCount() int {
	return len(r.CommercialProducts) + len(r.PosmItems)
}

// Clone returns a deep copy. The review workspace edits clones so the stored
// request stays untouched until a decision commits.
func (r *LoadRequest) Clone() *LoadRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.CommercialProducts = append([]CommercialLine(nil), r.CommercialProducts...)
	out.PosmItems = append([]PosmLine(nil), r.PosmItems...)
	if r.Notes != nil {
		notes := *r.Notes
		out.Notes = &notes
	}
	if r.ExpectedDeliveryDate != nil {
		d := *r.ExpectedDeliveryDate
		out.ExpectedDeliveryDate = &d
	}
	if r.SubmittedAt != nil {
		t := *r.SubmittedAt
		out.SubmittedAt = &t
	}
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		out.DecidedAt = &t
	}
	if r.DecisionReason != nil {
		reason := *r.DecisionReason
		out.DecisionReason = &reason
	}
	if r.ApproverID != nil {
		id := *r.ApproverID
		out.ApproverID = &id
	}
	return &out
}
