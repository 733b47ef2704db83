package review

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/requests"
)

// Filter narrows the submitted queue. It is a pure read-side projection:
// applying a filter never mutates a request and never issues a decision.
type Filter struct {
	SKU      string     `json:"sku,omitempty"`
	LSRID    *int64     `json:"lsr_id,omitempty"`
	Priority *requests.Priority `json:"priority,omitempty"`
	FreeText string     `json:"free_text,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}

// Apply projects the slice down to matching requests.
func Apply(items []requests.LoadRequest, f Filter) []requests.LoadRequest {
	out := make([]requests.LoadRequest, 0, len(items))
	for _, item := range items {
		if matches(&item, f) {
			out = append(out, item)
		}
	}
	return out
}

func matches(r *requests.LoadRequest, f Filter) bool {
	if f.LSRID != nil && r.LSRID != *f.LSRID {
		return false
	}
	if f.Priority != nil && r.Priority != *f.Priority {
		return false
	}
	if f.DateFrom != nil && r.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && r.CreatedAt.After(*f.DateTo) {
		return false
	}
	if f.SKU != "" && !hasSKU(r, f.SKU) {
		return false
	}
	if f.FreeText != "" && !matchesText(r, f.FreeText) {
		return false
	}
	return true
}

func hasSKU(r *requests.LoadRequest, sku string) bool {
	want := fold(sku)
	for _, l := range r.CommercialProducts {
		if fold(l.SKU) == want {
			return true
		}
	}
	for _, l := range r.PosmItems {
		if fold(l.Code) == want {
			return true
		}
	}
	return false
}

func matchesText(r *requests.LoadRequest, text string) bool {
	needle := fold(text)
	haystacks := []string{r.RequestNumber, r.Route}
	if r.Notes != nil {
		haystacks = append(haystacks, *r.Notes)
	}
	for _, l := range r.CommercialProducts {
		haystacks = append(haystacks, l.SKU, l.Name)
	}
	for _, l := range r.PosmItems {
		haystacks = append(haystacks, l.Code, l.Description)
	}
	for _, h := range haystacks {
		if strings.Contains(fold(h), needle) {
			return true
		}
	}
	return false
}
