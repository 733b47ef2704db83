package requests

import (
	"time"

	"github.com/google/uuid"
)

type CommercialLineReq struct {
	SKU       string  `json:"sku" validate:"required,max=40"`
	Name      string  `json:"name" validate:"required,max=200"`
	UOM       string  `json:"uom" validate:"required,max=20"`
	Qty       int     `json:"qty" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

type PosmLineReq struct {
	Code        string `json:"code" validate:"required,max=40"`
	Description string `json:"description" validate:"required,max=200"`
	Qty         int    `json:"qty" validate:"required,gt=0"`
}

type CreateRequest struct {
	Route                string              `json:"route" validate:"required,max=120"`
	Priority             Priority            `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Notes                *string             `json:"notes,omitempty"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	CommercialProducts   []CommercialLineReq `json:"commercial_products" validate:"dive"`
	PosmItems            []PosmLineReq       `json:"posm_items" validate:"dive"`
}

// UpdateRequest mutates a DRAFT request. Nil fields are left unchanged; a
// non-nil line slice replaces the collection wholesale.
type UpdateRequest struct {
	Route                *string              `json:"route,omitempty" validate:"omitempty,max=120"`
	Priority             *Priority            `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Notes                *string              `json:"notes,omitempty"`
	ExpectedDeliveryDate *time.Time           `json:"expected_delivery_date,omitempty"`
	CommercialProducts   *[]CommercialLineReq `json:"commercial_products,omitempty" validate:"omitempty,dive"`
	PosmItems            *[]PosmLineReq       `json:"posm_items,omitempty" validate:"omitempty,dive"`
}

// ModifiedLines carries the officer's quantity edits committed alongside an
// approval. When present it overwrites both line collections.
type ModifiedLines struct {
	CommercialProducts []CommercialLineReq `json:"commercial_products" validate:"dive"`
	PosmItems          []PosmLineReq       `json:"posm_items" validate:"dive"`
}

type ListFilter struct {
	LSRID    *int64     `json:"lsr_id,omitempty"`
	Status   *Status    `json:"status,omitempty"`
	Priority *Priority  `json:"priority,omitempty"`
	Search   *string    `json:"search,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}

// BulkResult reports per-item outcomes of a bulk approval. Bulk approval is a
// serial sequence of independent approvals, never transactional across ids.
type BulkResult struct {
	Succeeded []uuid.UUID  `json:"succeeded"`
	Failed    []BulkFailed `json:"failed"`
}

type BulkFailed struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

func (ml *ModifiedLines) toModel() ([]CommercialLine, []PosmLine) {
	return toCommercialLines(ml.CommercialProducts), toPosmLines(ml.PosmItems)
}

func toCommercialLines(reqs []CommercialLineReq) []CommercialLine {
	lines := make([]CommercialLine, 0, len(reqs))
	for _, lr := range reqs {
		line := CommercialLine{
			SKU:       lr.SKU,
			Name:      lr.Name,
			UOM:       lr.UOM,
			Qty:       lr.Qty,
			UnitPrice: lr.UnitPrice,
		}
		line.Recompute()
		lines = append(lines, line)
	}
	return lines
}

func toPosmLines(reqs []PosmLineReq) []PosmLine {
	lines := make([]PosmLine, 0, len(reqs))
	for _, lr := range reqs {
		lines = append(lines, PosmLine{Code: lr.Code, Description: lr.Description, Qty: lr.Qty})
	}
	return lines
}
