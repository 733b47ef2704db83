package requests

import (
	"fmt"
	"strings"
)

// Lifecycle guards. These are pure checks over the entity; the service applies
// them before touching persistence so a failed transition never mutates state.

// CanUpdate reports whether mutable metadata and lines may still change.
func CanUpdate(r *LoadRequest) error {
	if r.Status != StatusDraft {
		return fmt.Errorf("%w: status is %s", ErrNotDraft, r.Status)
	}
	return nil
}

// CanSubmit checks the DRAFT -> SUBMITTED guard.
func CanSubmit(r *LoadRequest) error {
	if r.Status != StatusDraft {
		if r.Status.Terminal() {
			return fmt.Errorf("%w: status is %s", ErrAlreadyProcessed, r.Status)
		}
		return fmt.Errorf("%w: status is %s", ErrNotDraft, r.Status)
	}
	if r.LineCount() == 0 {
		return ErrEmptyLines
	}
	return nil
}

// CanDecide checks the SUBMITTED -> APPROVED/REJECTED guard.
func CanDecide(r *LoadRequest) error {
	if r.Status == StatusSubmitted {
		return nil
	}
	if r.Status.Terminal() {
		return fmt.Errorf("%w: status is %s", ErrAlreadyProcessed, r.Status)
	}
	return fmt.Errorf("%w: status is %s", ErrNotSubmitted, r.Status)
}

// ValidateReason enforces a non-blank rejection reason. Whitespace-only
// reasons are rejected locally, before any backend call.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrBlankReason
	}
	return nil
}

// NormalizeLines recomputes derived totals on every commercial line so no
// stale TotalValue survives a quantity change.
func NormalizeLines(lines []CommercialLine) []CommercialLine {
	for i := range lines {
		lines[i].Recompute()
	}
	return lines
}

// ValidateLines rejects non-positive quantities on either line kind.
func ValidateLines(commercial []CommercialLine, posm []PosmLine) error {
	for i, l := range commercial {
		if l.Qty <= 0 {
			return fmt.Errorf("commercial line %d (%s): %w", i+1, l.SKU, ErrInvalidQuantity)
		}
	}
	for i, l := range posm {
		if l.Qty <= 0 {
			return fmt.Errorf("posm line %d (%s): %w", i+1, l.Code, ErrInvalidQuantity)
		}
	}
	return nil
}
