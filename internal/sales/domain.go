// Package sales implements the checkout transaction engine and the sale
// history reader.
package sales

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sale is an immutable record of a completed checkout. Amounts are Chilean
// pesos; Total is tax-inclusive and always equals NetAmount + TaxAmount as
// well as the sum of the line subtotals.
type Sale struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Date      time.Time  `json:"timestamp"`
	NetAmount int64      `json:"montoNeto"`
	TaxAmount int64      `json:"montoIva"`
	Total     int64      `json:"total"`
	Lines     []SaleLine `json:"lines"`
}

// SaleLine is the per-product audit snapshot inside a Sale. UnitPrice is the
// product's price at the time of sale and never changes afterwards, even
// when the product is repriced later.
type SaleLine struct {
	ID        int64 `json:"-"`
	SaleID    int64 `json:"-"`
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPriceAtSale"`
	Subtotal  int64 `json:"subtotal"`
}

// ItemRequest is one requested purchase line.
type ItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// ErrInsufficientStock indicates a requested quantity exceeds the available
// stock. Wrapped errors name the offending product.
var ErrInsufficientStock = errors.New("insufficient stock")

func insufficientStock(productID int64, name string, requested, available int) error {
	return fmt.Errorf("%w: product %d (%s): requested %d, available %d",
		ErrInsufficientStock, productID, name, requested, available)
}

// Prices are stored tax-inclusive at the fixed Chilean IVA rate of 19%.
const taxDivisor = 1.19

// splitTax derives the net/tax breakdown from a tax-inclusive total:
// net = round(total / 1.19) half-up, tax = total - net.
func splitTax(total int64) (net, tax int64) {
	net = int64(math.Round(float64(total) / taxDivisor))
	return net, total - net
}
