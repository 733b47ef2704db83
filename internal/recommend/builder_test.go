package recommend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/catalog"
)

func recommendedLoad() *RecommendedLoad {
	return &RecommendedLoad{
		LSRID:       7,
		TruckID:     3,
		TruckNumber: "TRK-031",
		Capacity:    200,
		Load: []LoadLine{
			{SKU: "SKU-001", SKUName: "Cola 330ml", UOM: "CASE", UnitPrice: 12.5, RecommendedQty: 100},
			{SKU: "SKU-002", SKUName: "Water 500ml", UOM: "CASE", UnitPrice: 6, RecommendedQty: 33},
		},
	}
}

func TestDerivedQuantitiesRoundUp(t *testing.T) {
	require.Equal(t, 15, DerivePreOrderQty(100))
	require.Equal(t, 10, DeriveBufferQty(100))
	// 33 * 0.15 = 4.95 and 33 * 0.10 = 3.3, both rounded up.
	require.Equal(t, 5, DerivePreOrderQty(33))
	require.Equal(t, 4, DeriveBufferQty(33))
	require.Equal(t, 0, DerivePreOrderQty(0))
}

func TestBuilderSeedsDerivedTotals(t *testing.T) {
	b := NewBuilder(recommendedLoad())
	lines := b.Lines()
	require.Len(t, lines, 2)

	// The recommended quantity is display-only: only its pre-order and
	// buffer portions count toward the line total.
	require.Equal(t, SourceRecommended, lines[0].Source)
	require.Equal(t, 15, lines[0].PreOrderQty)
	require.Equal(t, 10, lines[0].BufferQty)
	require.Equal(t, 25, lines[0].Total)
	require.Equal(t, 9, lines[1].Total)
}

func TestFirstManualAddReplacesRecommendedLines(t *testing.T) {
	b := NewBuilder(recommendedLoad())
	require.False(t, b.ManualPath())

	err := b.AddManual(catalog.Product{SKU: "SKU-009", Name: "Juice 1L", UOM: "CASE", UnitPrice: 20}, 5)
	require.NoError(t, err)

	require.True(t, b.ManualPath())
	require.Len(t, b.Lines(), 1)
	require.Equal(t, SourceManual, b.Lines()[0].Source)
	require.Equal(t, 5, b.Lines()[0].Total)

	// A formerly recommended SKU is addable again after the swap.
	err = b.AddManual(catalog.Product{SKU: "SKU-001", Name: "Cola 330ml", UOM: "CASE", UnitPrice: 12.5}, 2)
	require.NoError(t, err)
	require.Len(t, b.Lines(), 2)
}

func TestAddManualRejectsDuplicatesAndBadQuantities(t *testing.T) {
	b := NewBuilder(recommendedLoad())

	err := b.AddManual(catalog.Product{SKU: "SKU-001"}, 5)
	require.ErrorIs(t, err, ErrDuplicateItem)
	require.False(t, b.ManualPath())

	err = b.AddManual(catalog.Product{SKU: "SKU-009"}, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.False(t, b.ManualPath())
}

func TestSetLineBufferRecomputesTotal(t *testing.T) {
	b := NewBuilder(recommendedLoad())

	require.NoError(t, b.SetLineBuffer("SKU-001", 5))
	require.Equal(t, 30, b.Lines()[0].Total)

	require.NoError(t, b.SetLineBuffer("SKU-001", -30))
	require.Equal(t, 0, b.Lines()[0].Total, "totals clamp at zero")

	require.ErrorIs(t, b.SetLineBuffer("SKU-404", 1), ErrUnknownLine)
}

func TestRemoveMakesSKUAddableAgain(t *testing.T) {
	b := NewBuilder(recommendedLoad())

	require.NoError(t, b.Remove("SKU-001"))
	require.Len(t, b.Lines(), 1)
	require.ErrorIs(t, b.Remove("SKU-001"), ErrUnknownLine)

	err := b.AddManual(catalog.Product{SKU: "SKU-001", Name: "Cola 330ml"}, 3)
	require.NoError(t, err)
}

func TestPosmSelection(t *testing.T) {
	b := NewBuilder(recommendedLoad())

	require.NoError(t, b.AddPosm(catalog.PosmItem{Code: "POSM-7", Description: "Shelf strip"}, 3))
	require.ErrorIs(t, b.AddPosm(catalog.PosmItem{Code: "POSM-7"}, 1), ErrDuplicateItem)
	require.ErrorIs(t, b.AddPosm(catalog.PosmItem{Code: "POSM-8"}, 0), ErrInvalidQuantity)

	require.NoError(t, b.RemovePosm("POSM-7"))
	require.ErrorIs(t, b.RemovePosm("POSM-7"), ErrUnknownLine)
}

func TestTotalsIncludePosmAndUtilization(t *testing.T) {
	b := NewBuilder(recommendedLoad())
	require.NoError(t, b.AddPosm(catalog.PosmItem{Code: "POSM-7"}, 6))

	totals := b.Totals()
	require.Equal(t, 3, totals.TotalItems)
	require.Equal(t, 25+9+6, totals.TotalQuantity)
	require.InDelta(t, 0.2, totals.CapacityUtilization, 0.0001)
}

func TestDraftAppliesGlobalBufferAdjustment(t *testing.T) {
	b := NewBuilder(recommendedLoad())
	b.SetBufferAdjustment(2)

	draft := b.Draft()
	require.Len(t, draft.CommercialProducts, 2)
	require.Equal(t, 27, draft.CommercialProducts[0].Qty)
	require.Equal(t, 11, draft.CommercialProducts[1].Qty)

	// Builder totals stay unadjusted; the adjustment lands only in the draft.
	require.Equal(t, 25, b.Lines()[0].Total)
}

func TestDraftDropsLinesAdjustedToZero(t *testing.T) {
	b := NewBuilder(recommendedLoad())
	b.SetBufferAdjustment(-9)

	draft := b.Draft()
	require.Len(t, draft.CommercialProducts, 1)
	require.Equal(t, "SKU-001", draft.CommercialProducts[0].SKU)
	require.Equal(t, 16, draft.CommercialProducts[0].Qty)
}
