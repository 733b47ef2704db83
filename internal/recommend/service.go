package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/catalog"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/requests"
)

// Service assembles recommended loads and runs build sessions against them.
type Service struct {
	catalog *catalog.Service
	cache   *catalog.Cache
	group   singleflight.Group
}

// NewService constructs the recommend service. The cache may share the
// catalog cache so catalog invalidation also drops assembled loads.
func NewService(catalogSvc *catalog.Service, cache *catalog.Cache) *Service {
	return &Service{catalog: catalogSvc, cache: cache}
}

// Fetch assembles the recommended load for one representative. Concurrent
// fetches for the same LSR collapse into a single assembly.
func (s *Service) Fetch(ctx context.Context, lsrID int64) (*RecommendedLoad, error) {
	key := "recommend:lsr:" + strconv.FormatInt(lsrID, 10)
	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.fetch(ctx, lsrID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*RecommendedLoad), nil
}

func (s *Service) fetch(ctx context.Context, lsrID int64) (*RecommendedLoad, error) {
	cacheKey, err := s.cache.BuildKey(ctx, "recommend", "lsr", strconv.FormatInt(lsrID, 10))
	if err != nil {
		return nil, fmt.Errorf("recommend cache key: %w", err)
	}
	var load RecommendedLoad
	err = s.cache.FetchJSON(ctx, cacheKey, &load, func(ctx context.Context) (interface{}, error) {
		return s.assemble(ctx, lsrID)
	})
	if err != nil {
		return nil, err
	}
	return &load, nil
}

// assemble loads truck, baselines and product prices concurrently and joins
// them into the per-session load.
func (s *Service) assemble(ctx context.Context, lsrID int64) (*RecommendedLoad, error) {
	var truck *catalog.Truck
	var baselines []catalog.Baseline
	var products []catalog.Product

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.catalog.TruckForLSR(gctx, lsrID)
		if err != nil {
			if errors.Is(err, catalog.ErrTruckNotAssigned) {
				return fmt.Errorf("lsr %d: %w", lsrID, ErrNoTruck)
			}
			return fmt.Errorf("load truck: %w", err)
		}
		truck = t
		return nil
	})
	g.Go(func() error {
		b, err := s.catalog.BaselinesForLSR(gctx, lsrID)
		if err != nil {
			return fmt.Errorf("load baselines: %w", err)
		}
		baselines = b
		return nil
	})
	g.Go(func() error {
		p, err := s.catalog.Products(gctx)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		products = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byViewSKU := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byViewSKU[p.SKU] = p
	}

	load := &RecommendedLoad{
		LSRID:       lsrID,
		TruckID:     truck.ID,
		TruckNumber: truck.TruckNumber,
		Capacity:    truck.Capacity,
	}
	for _, b := range baselines {
		line := LoadLine{
			Source:         SourceRecommended,
			SKU:            b.SKU,
			SKUName:        b.SKUName,
			Brand:          b.Brand,
			OutletID:       b.OutletID,
			OrderType:      b.OrderType,
			RequestedQty:   b.RequestedQty,
			RecommendedQty: b.RecommendedQty,
			AvailableStock: b.AvailableStock,
			PreOrderQty:    DerivePreOrderQty(b.RecommendedQty),
			BufferQty:      DeriveBufferQty(b.RecommendedQty),
		}
		if p, ok := byViewSKU[b.SKU]; ok {
			line.UOM = p.UOM
			line.UnitPrice = p.UnitPrice
		}
		line.recompute()
		load.Load = append(load.Load, line)
	}
	return load, nil
}

// Warm pre-assembles the recommended load for one representative so the
// first dashboard hit of the day is served from cache.
func (s *Service) Warm(ctx context.Context, lsrID int64) error {
	_, err := s.Fetch(ctx, lsrID)
	return err
}

// BuildRequest replays one build session against a fresh recommended load.
// Actions apply in order: manual adds (the first flips the session to the
// manual path and discards every recommended line), removals, per-line
// buffers, POSM adds, then the global buffer adjustment.
type BuildRequest struct {
	ManualProducts   []ManualAdd    `json:"manual_products,omitempty"`
	RemoveSKUs       []string       `json:"remove_skus,omitempty"`
	LineBuffers      map[string]int `json:"line_buffers,omitempty"`
	Posm             []PosmAdd      `json:"posm,omitempty"`
	BufferAdjustment int            `json:"buffer_adjustment"`
}

type ManualAdd struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type PosmAdd struct {
	Code string `json:"code"`
	Qty  int    `json:"qty"`
}

// BuildResult is the server-authoritative outcome of a build session.
type BuildResult struct {
	Lines  []LoadLine             `json:"lines"`
	Posm   []PosmSelection        `json:"posm"`
	Totals Totals                 `json:"totals"`
	Draft  requests.CreateRequest `json:"draft"`
}

// Build replays the session and returns the draft payload the client
// submits through the requests API.
func (s *Service) Build(ctx context.Context, lsrID int64, req BuildRequest) (*BuildResult, error) {
	load, err := s.Fetch(ctx, lsrID)
	if err != nil {
		return nil, err
	}
	builder := NewBuilder(load)

	for _, add := range req.ManualProducts {
		product, err := s.catalog.GetProduct(ctx, add.SKU)
		if err != nil {
			return nil, fmt.Errorf("manual product %s: %w", add.SKU, err)
		}
		if err := builder.AddManual(*product, add.Qty); err != nil {
			return nil, err
		}
	}
	for _, sku := range req.RemoveSKUs {
		if err := builder.Remove(sku); err != nil {
			return nil, err
		}
	}
	for sku, buffer := range req.LineBuffers {
		if err := builder.SetLineBuffer(sku, buffer); err != nil {
			return nil, err
		}
	}
	for _, add := range req.Posm {
		item, err := s.catalog.GetPosmItem(ctx, add.Code)
		if err != nil {
			return nil, fmt.Errorf("posm %s: %w", add.Code, err)
		}
		if err := builder.AddPosm(*item, add.Qty); err != nil {
			return nil, err
		}
	}
	builder.SetBufferAdjustment(req.BufferAdjustment)

	result := &BuildResult{
		Lines:  builder.Lines(),
		Posm:   builder.PosmSelections(),
		Totals: builder.Totals(),
		Draft:  builder.Draft(),
	}
	if result.Lines == nil {
		result.Lines = []LoadLine{}
	}
	if result.Posm == nil {
		result.Posm = []PosmSelection{}
	}
	return result, nil
}
