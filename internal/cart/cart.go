package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 99

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Line is a menu item resolved against the catalog together with the
// customer's selections.
type Line struct {
	MenuItem  *domain.MenuItem
	Quantity  int
	Variation *domain.Variation
	AddOns    []domain.AddOn
}

// UnitPrice is the variation price when one is selected, otherwise the
// item's base price, plus every selected add-on.
func (l Line) UnitPrice() float64 {
	return round(l.unitPrice())
}

func (l Line) LineTotal() float64 {
	return round(l.lineTotal())
}

func (l Line) unitPrice() decimal.Decimal {
	base := l.MenuItem.Price
	if l.Variation != nil {
		base = l.Variation.Price
	}
	price := decimal.NewFromFloat(base)
	for _, a := range l.AddOns {
		price = price.Add(decimal.NewFromFloat(a.Price))
	}
	return price
}

func (l Line) lineTotal() decimal.Decimal {
	return l.unitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot copies the line into an order item so later menu edits never
// reach stored orders.
func (l Line) Snapshot() domain.OrderItem {
	item := domain.OrderItem{
		MenuItemID: l.MenuItem.ID,
		Name:       l.MenuItem.Name,
		Price:      l.UnitPrice(),
		Quantity:   l.Quantity,
	}
	if l.Variation != nil {
		item.Variation = l.Variation.Name
	}
	for _, a := range l.AddOns {
		item.AddOns = append(item.AddOns, a.Name)
	}
	return item
}

// Total sums quantity times unit price over lines.
func Total(lines []Line) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.lineTotal())
	}
	return round(sum)
}

func Snapshot(lines []Line) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.Snapshot())
	}
	return items
}

func round(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
