package catalog

// Product is a commercial SKU available for load requests.
type Product struct {
	SKU       string  `json:"sku" db:"sku"`
	Name      string  `json:"name" db:"name"`
	Brand     string  `json:"brand" db:"brand"`
	UOM       string  `json:"uom" db:"uom"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
	Active    bool    `json:"active" db:"active"`
}

// PosmItem is a point-of-sale material definition. POSM carries no price.
type PosmItem struct {
	Code        string `json:"code" db:"code"`
	Description string `json:"description" db:"description"`
	Active      bool   `json:"active" db:"active"`
}

// Truck is the vehicle assigned to a representative.
type Truck struct {
	ID          int64  `json:"id" db:"id"`
	TruckNumber string `json:"truck_number" db:"truck_number"`
	Capacity    int    `json:"capacity" db:"capacity"`
}

// Baseline is the per-LSR recommended-load row for one SKU.
type Baseline struct {
	SKU            string  `json:"sku" db:"sku"`
	SKUName        string  `json:"sku_name" db:"sku_name"`
	Brand          string  `json:"brand" db:"brand"`
	OutletID       int64   `json:"outlet_id" db:"outlet_id"`
	OrderType      string  `json:"order_type" db:"order_type"`
	RequestedQty   int     `json:"requested_qty" db:"requested_qty"`
	RecommendedQty int     `json:"recommended_qty" db:"recommended_qty"`
	AvailableStock int     `json:"available_stock" db:"available_stock"`
	AvgSales       float64 `json:"avg_sales" db:"avg_sales"`
}
