package recommend

import (
	"fmt"
	"math"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/catalog"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/requests"
)

// Pre-order and buffer shares of the recommended quantity. The recommended
// quantity itself is display-only and excluded from the line total; only its
// derived pre-order and buffer portions are loaded.
const (
	preOrderShare = 0.15
	bufferShare   = 0.10
)

// DerivePreOrderQty computes the pre-order portion of a recommended quantity.
func DerivePreOrderQty(recommendedQty int) int {
	return int(math.Ceil(float64(recommendedQty) * preOrderShare))
}

// DeriveBufferQty computes the buffer portion of a recommended quantity.
func DeriveBufferQty(recommendedQty int) int {
	return int(math.Ceil(float64(recommendedQty) * bufferShare))
}

// Builder accumulates one request-build session. Construction follows two
// mutually exclusive paths: catalog recommendations, or search-and-add. The
// first manual add runs ReplaceAllRecommendedWithManual; the paths never merge.
type Builder struct {
	truckID          int64
	truckNumber      string
	capacity         int
	lines            []LoadLine
	posm             []PosmSelection
	manualPath       bool
	bufferAdjustment int
}

// NewBuilder seeds a builder with the representative's recommended load.
func NewBuilder(load *RecommendedLoad) *Builder {
	b := &Builder{
		truckID:     load.TruckID,
		truckNumber: load.TruckNumber,
		capacity:    load.Capacity,
	}
	for _, l := range load.Load {
		line := l
		line.Source = SourceRecommended
		line.PreOrderQty = DerivePreOrderQty(line.RecommendedQty)
		line.BufferQty = DeriveBufferQty(line.RecommendedQty)
		line.Buffer = 0
		line.recompute()
		b.lines = append(b.lines, line)
	}
	return b
}

func (l *LoadLine) recompute() {
	switch l.Source {
	case SourceManual:
		l.Total = l.RequestedQty + l.Buffer
	default:
		l.Total = l.PreOrderQty + l.BufferQty + l.Buffer
	}
	if l.Total < 0 {
		l.Total = 0
	}
}

// Lines returns the current commercial selection.
func (b *Builder) Lines() []LoadLine {
	return b.lines
}

// PosmSelections returns the current POSM selection.
func (b *Builder) PosmSelections() []PosmSelection {
	return b.posm
}

// ManualPath reports whether the session has switched to search-and-add.
func (b *Builder) ManualPath() bool {
	return b.manualPath
}

// ReplaceAllRecommendedWithManual discards every recommended line and flips
// the session to the manual path. Deliberate all-or-nothing swap; the
// recommended set is not merged with manual picks.
func (b *Builder) ReplaceAllRecommendedWithManual() {
	if b.manualPath {
		return
	}
	kept := b.lines[:0]
	for _, l := range b.lines {
		if l.Source == SourceManual {
			kept = append(kept, l)
		}
	}
	b.lines = kept
	b.manualPath = true
}

// AddManual adds a product found through search. The first manual add
// replaces the entire recommended selection.
func (b *Builder) AddManual(product catalog.Product, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%s: %w", product.SKU, ErrInvalidQuantity)
	}
	for _, l := range b.lines {
		if l.SKU == product.SKU {
			return fmt.Errorf("%s: %w", product.SKU, ErrDuplicateItem)
		}
	}
	b.ReplaceAllRecommendedWithManual()
	line := LoadLine{
		Source:       SourceManual,
		SKU:          product.SKU,
		SKUName:      product.Name,
		Brand:        product.Brand,
		UOM:          product.UOM,
		UnitPrice:    product.UnitPrice,
		RequestedQty: qty,
	}
	line.recompute()
	b.lines = append(b.lines, line)
	return nil
}

// AddPosm adds a POSM item to the selection.
func (b *Builder) AddPosm(item catalog.PosmItem, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%s: %w", item.Code, ErrInvalidQuantity)
	}
	for _, p := range b.posm {
		if p.Code == item.Code {
			return fmt.Errorf("%s: %w", item.Code, ErrDuplicateItem)
		}
	}
	b.posm = append(b.posm, PosmSelection{Code: item.Code, Description: item.Description, Qty: qty})
	return nil
}

// SetLineBuffer applies a signed per-line adjustment and recomputes the total.
func (b *Builder) SetLineBuffer(sku string, buffer int) error {
	for i := range b.lines {
		if b.lines[i].SKU == sku {
			b.lines[i].Buffer = buffer
			b.lines[i].recompute()
			return nil
		}
	}
	return fmt.Errorf("%s: %w", sku, ErrUnknownLine)
}

// Remove drops a commercial line. The SKU becomes addable again.
func (b *Builder) Remove(sku string) error {
	for i := range b.lines {
		if b.lines[i].SKU == sku {
			b.lines = append(b.lines[:i], b.lines[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s: %w", sku, ErrUnknownLine)
}

// RemovePosm drops a POSM selection.
func (b *Builder) RemovePosm(code string) error {
	for i := range b.posm {
		if b.posm[i].Code == code {
			b.posm = append(b.posm[:i], b.posm[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s: %w", code, ErrUnknownLine)
}

// SetBufferAdjustment sets the request-global adjustment applied to every
// line total when the draft is built.
func (b *Builder) SetBufferAdjustment(n int) {
	b.bufferAdjustment = n
}

// Totals aggregates the current selection for summary display.
func (b *Builder) Totals() Totals {
	t := Totals{TotalItems: len(b.lines) + len(b.posm)}
	for _, l := range b.lines {
		t.TotalQuantity += l.Total
	}
	for _, p := range b.posm {
		t.TotalQuantity += p.Qty
	}
	if b.capacity > 0 {
		t.CapacityUtilization = float64(t.TotalQuantity) / float64(b.capacity)
	}
	return t
}

// Draft converts the selection into the initial create payload for a load
// request. The global buffer adjustment is applied to each commercial line
// at this point, not earlier.
func (b *Builder) Draft() requests.CreateRequest {
	var req requests.CreateRequest
	for _, l := range b.lines {
		qty := l.Total + b.bufferAdjustment
		if qty <= 0 {
			continue
		}
		req.CommercialProducts = append(req.CommercialProducts, requests.CommercialLineReq{
			SKU:       l.SKU,
			Name:      l.SKUName,
			UOM:       l.UOM,
			Qty:       qty,
			UnitPrice: l.UnitPrice,
		})
	}
	for _, p := range b.posm {
		req.PosmItems = append(req.PosmItems, requests.PosmLineReq{
			Code:        p.Code,
			Description: p.Description,
			Qty:         p.Qty,
		})
	}
	return req
}
