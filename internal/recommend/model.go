package recommend

import "errors"

// Domain errors for the load builder.
var (
	// ErrInvalidQuantity rejects non-positive manual quantities.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrDuplicateItem rejects adding a SKU or POSM code already selected.
	// The add is a no-op; the item stays available for re-add after removal.
	ErrDuplicateItem = errors.New("item already selected")
	// ErrUnknownLine indicates a buffer edit or removal referenced no line.
	ErrUnknownLine = errors.New("line not found in selection")
	// ErrNoTruck indicates the representative has no assigned vehicle.
	ErrNoTruck = errors.New("no truck assigned to representative")
)

// LineSource tags where a commercial line came from. The two sources never
// mix: the first manual add replaces every recommended line.
type LineSource string

const (
	// SourceRecommended marks a line seeded from catalog baselines.
	SourceRecommended LineSource = "recommended"
	// SourceManual marks a line added through product search.
	SourceManual LineSource = "manual"
)

// LoadLine is one commercial line in a building load.
type LoadLine struct {
	Source         LineSource `json:"source"`
	SKU            string     `json:"sku"`
	SKUName        string     `json:"sku_name"`
	Brand          string     `json:"brand"`
	UOM            string     `json:"uom"`
	UnitPrice      float64    `json:"unit_price"`
	OutletID       int64      `json:"outlet_id,omitempty"`
	OrderType      string     `json:"order_type,omitempty"`
	RequestedQty   int        `json:"requested_qty"`
	RecommendedQty int        `json:"recommended_qty"` // informational, excluded from Total
	AvailableStock int        `json:"available_stock"`
	PreOrderQty    int        `json:"pre_order_qty"`
	BufferQty      int        `json:"buffer_qty"`
	Buffer         int        `json:"buffer"` // per-line manual adjustment, may be negative
	Total          int        `json:"total"`
}

// PosmSelection is one POSM line in a building load.
type PosmSelection struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Qty         int    `json:"qty"`
}

// RecommendedLoad is the ephemeral per-LSR baseline set. It is fetched fresh
// per session and never stored as a request; acting on it produces the
// initial line items of a new load request.
type RecommendedLoad struct {
	LSRID       int64      `json:"lsr_id"`
	TruckID     int64      `json:"truck_id"`
	TruckNumber string     `json:"truck_number"`
	Capacity    int        `json:"capacity"`
	Load        []LoadLine `json:"load"`
}

// Totals is the summary aggregation for display. It is derived, never stored.
type Totals struct {
	TotalItems          int     `json:"total_items"`
	TotalQuantity       int     `json:"total_quantity"`
	CapacityUtilization float64 `json:"capacity_utilization"`
}
