package cart

import (
	"errors"

	"github.com/dulces-mila/mila-backend/internal/catalog"
)

// Cart is the per-user shopping cart. Each user owns exactly one cart; it is
// created lazily on first access and persists even when emptied.
type Cart struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"userId"`
	Items  []CartItem `json:"items"`
}

// CartItem is one line in a cart. A product appears at most once per cart;
// adding the same product again merges by summing quantities.
type CartItem struct {
	ID        int64            `json:"id"`
	CartID    int64            `json:"-"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *catalog.Product `json:"product,omitempty"`
}

// Total sums price x quantity over all lines using the products' current
// prices. Zero when product details are not loaded.
func (c *Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		if item.Product != nil {
			total += item.Product.Price * int64(item.Quantity)
		}
	}
	return total
}

// ErrCartNotFound indicates the user has no cart row yet.
var ErrCartNotFound = errors.New("cart not found")
