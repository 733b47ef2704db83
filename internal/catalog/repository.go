package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Domain errors for the catalog.
var (
	// ErrNotFound indicates the catalog item does not exist or is inactive.
	ErrNotFound = errors.New("catalog item not found")
	// ErrTruckNotAssigned indicates no vehicle is assigned to the representative.
	ErrTruckNotAssigned = errors.New("no truck assigned to representative")
)

// Repository defines catalog persistence.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, sku string) (*Product, error)
	SearchProducts(ctx context.Context, query string) ([]Product, error)
	ListPosmItems(ctx context.Context) ([]PosmItem, error)
	GetPosmItem(ctx context.Context, code string) (*PosmItem, error)
	SearchPosmItems(ctx context.Context, query string) ([]PosmItem, error)
	TruckForLSR(ctx context.Context, lsrID int64) (*Truck, error)
	BaselinesForLSR(ctx context.Context, lsrID int64) ([]Baseline, error)
	ActiveLSRIDs(ctx context.Context) ([]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `sku, name, brand, uom, unit_price, active`

func (r *repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+`
FROM products WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *repository) GetProduct(ctx context.Context, sku string) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+`
FROM products WHERE sku = $1 AND active`, sku).
		Scan(&p.SKU, &p.Name, &p.Brand, &p.UOM, &p.UnitPrice, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+`
FROM products WHERE active AND (sku ILIKE $1 OR name ILIKE $1 OR brand ILIKE $1)
ORDER BY name LIMIT 50`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Brand, &p.UOM, &p.UnitPrice, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) ListPosmItems(ctx context.Context) ([]PosmItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, description, active
FROM posm_items WHERE active ORDER BY description`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosm(rows)
}

func (r *repository) GetPosmItem(ctx context.Context, code string) (*PosmItem, error) {
	var p PosmItem
	err := r.pool.QueryRow(ctx, `SELECT code, description, active
FROM posm_items WHERE code = $1 AND active`, code).
		Scan(&p.Code, &p.Description, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) SearchPosmItems(ctx context.Context, query string) ([]PosmItem, error) {
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `SELECT code, description, active
FROM posm_items WHERE active AND (code ILIKE $1 OR description ILIKE $1)
ORDER BY description LIMIT 50`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosm(rows)
}

func collectPosm(rows pgx.Rows) ([]PosmItem, error) {
	var out []PosmItem
	for rows.Next() {
		var p PosmItem
		if err := rows.Scan(&p.Code, &p.Description, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) TruckForLSR(ctx context.Context, lsrID int64) (*Truck, error) {
	var t Truck
	err := r.pool.QueryRow(ctx, `SELECT id, truck_number, capacity
FROM trucks WHERE assigned_lsr_id = $1`, lsrID).Scan(&t.ID, &t.TruckNumber, &t.Capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTruckNotAssigned
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) BaselinesForLSR(ctx context.Context, lsrID int64) ([]Baseline, error) {
	rows, err := r.pool.Query(ctx, `SELECT b.sku, p.name, p.brand, b.outlet_id, b.order_type,
       b.requested_qty, b.recommended_qty, b.available_stock, b.avg_sales
FROM recommended_baselines b
JOIN products p ON p.sku = b.sku
WHERE b.lsr_id = $1 AND p.active
ORDER BY p.name`, lsrID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Baseline
	for rows.Next() {
		var b Baseline
		err := rows.Scan(&b.SKU, &b.SKUName, &b.Brand, &b.OutletID, &b.OrderType,
			&b.RequestedQty, &b.RecommendedQty, &b.AvailableStock, &b.AvgSales)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ActiveLSRIDs lists representatives with baseline rows, used by the cache
// warmup job.
func (r *repository) ActiveLSRIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT lsr_id FROM recommended_baselines ORDER BY lsr_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
