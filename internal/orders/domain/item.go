package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts are stored as NUMERIC(19,4) and quantities as INTEGER.
const (
	MaxQuantity  = math.MaxInt32
	MoneyScale   = 4
	amountDigits = 19 - MoneyScale
)

// MaxAmount is the exclusive upper bound of a storable amount.
var MaxAmount = decimal.New(1, amountDigits)

// OrderItem is a single line of an order. Values are only built through NewOrderItem.
type OrderItem struct {
	productID uuid.UUID
	quantity  int
	unitPrice decimal.Decimal
}

// NewOrderItem validates and builds a line item.
func NewOrderItem(productID uuid.UUID, quantity int, unitPrice decimal.Decimal) (OrderItem, error) {
	if productID == uuid.Nil {
		return OrderItem{}, NewValidationError("productId", "is required")
	}
	if quantity <= 0 {
		return OrderItem{}, NewValidationError("quantity", "must be positive")
	}
	if quantity > MaxQuantity {
		return OrderItem{}, NewValidationError("quantity", fmt.Sprintf("must not exceed %d", MaxQuantity))
	}
	if err := validateAmount("unitPrice", unitPrice); err != nil {
		return OrderItem{}, err
	}
	return OrderItem{
		productID: productID,
		quantity:  quantity,
		unitPrice: unitPrice,
	}, nil
}

func (i OrderItem) ProductID() uuid.UUID { return i.productID }
func (i OrderItem) Quantity() int { return i.quantity }
func (i OrderItem) UnitPrice() decimal.Decimal { return i.unitPrice }

// Subtotal is unitPrice × quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.unitPrice.Mul(decimal.NewFromInt(int64(i.quantity)))
}

func sumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func copyItems(items []OrderItem) []OrderItem {
	out := make([]OrderItem, len(items))
	copy(out, items)
	return out
}

// ReconstituteItem rebuilds a stored line item without re-running validation.
func ReconstituteItem(productID uuid.UUID, quantity int, unitPrice decimal.Decimal) OrderItem {
	return OrderItem{
		productID: productID,
		quantity:  quantity,
		unitPrice: unitPrice,
	}
}

func validateAmount(field string, amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return NewValidationError(field, "must be positive")
	case !amount.Equal(amount.Truncate(MoneyScale)):
		return NewValidationError(field, fmt.Sprintf("must have at most %d decimal places", MoneyScale))
	case amount.GreaterThanOrEqual(MaxAmount):
		return NewValidationError(field, "is too large")
	}
	return nil
}
