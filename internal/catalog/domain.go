package catalog

import "time"

// ProductStatus enumerates product lifecycle states.
type ProductStatus string

const (
	// ProductActive is visible and sellable.
	ProductActive ProductStatus = "ACTIVO"
	// ProductInactive is hidden from the storefront.
	ProductInactive ProductStatus = "INACTIVO"
)

// Category groups products.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Product is a sellable item. Price is in Chilean pesos (integer minor
// units); Stock counts sellable units. Both are never negative.
type Product struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Price       int64         `json:"price"`
	Stock       int           `json:"stock"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Status      ProductStatus `json:"status"`
	CategoryID  int64         `json:"categoryId"`
	CreatedAt   time.Time     `json:"createdAt"`
}
