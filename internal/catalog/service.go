package catalog

import (
	"context"
	"fmt"
)

// Service serves catalog reads, caching full list responses.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService constructs the catalog service.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Products returns the active commercial catalog.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	key, err := s.cache.BuildKey(ctx, "catalog", "products")
	if err != nil {
		return nil, fmt.Errorf("catalog cache key: %w", err)
	}
	var out []Product
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.ListProducts(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// GetProduct returns one active product by SKU.
func (s *Service) GetProduct(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetProduct(ctx, sku)
}

// GetPosmItem returns one active POSM definition by code.
func (s *Service) GetPosmItem(ctx context.Context, code string) (*PosmItem, error) {
	return s.repo.GetPosmItem(ctx, code)
}

// SearchProducts queries the catalog by sku, name or brand. Search results
// bypass the cache; the result set is already bounded.
func (s *Service) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	if query == "" {
		return s.Products(ctx)
	}
	return s.repo.SearchProducts(ctx, query)
}

// PosmItems returns the active POSM catalog.
func (s *Service) PosmItems(ctx context.Context) ([]PosmItem, error) {
	key, err := s.cache.BuildKey(ctx, "catalog", "posm")
	if err != nil {
		return nil, fmt.Errorf("catalog cache key: %w", err)
	}
	var out []PosmItem
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.ListPosmItems(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list posm items: %w", err)
	}
	return out, nil
}

// SearchPosmItems queries POSM definitions by code or description.
func (s *Service) SearchPosmItems(ctx context.Context, query string) ([]PosmItem, error) {
	if query == "" {
		return s.PosmItems(ctx)
	}
	return s.repo.SearchPosmItems(ctx, query)
}

// TruckForLSR returns the vehicle assigned to the representative.
func (s *Service) TruckForLSR(ctx context.Context, lsrID int64) (*Truck, error) {
	return s.repo.TruckForLSR(ctx, lsrID)
}

// BaselinesForLSR returns the recommended-load baselines for the
// representative.
func (s *Service) BaselinesForLSR(ctx context.Context, lsrID int64) ([]Baseline, error) {
	return s.repo.BaselinesForLSR(ctx, lsrID)
}

// ActiveLSRIDs lists representatives with baselines.
func (s *Service) ActiveLSRIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ActiveLSRIDs(ctx)
}

// Invalidate bumps the cache version after catalog maintenance.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
