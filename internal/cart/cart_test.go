package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

func burger() *domain.MenuItem {
	return &domain.MenuItem{
		ID:    "m1",
		Name:  "Burger",
		Price: 5,
		Variations: []domain.Variation{
			{ID: "v-large", Name: "Large", Price: 7.5},
		},
		AddOns: []domain.AddOn{
			{ID: "a-cheese", Name: "Cheese", Price: 1},
			{ID: "a-bacon", Name: "Bacon", Price: 1.25},
		},
		IsAvailable: true,
	}
}

func TestTotal_BurgerWithCheese(t *testing.T) {
	item := burger()
	lines := []Line{{MenuItem: item, Quantity: 2, AddOns: []domain.AddOn{item.AddOns[0]}}}

	assert.Equal(t, 6.0, lines[0].UnitPrice())
	assert.Equal(t, 12.0, lines[0].LineTotal())
	assert.Equal(t, 12.0, Total(lines))
}

func TestUnitPrice_VariationReplacesBasePrice(t *testing.T) {
	item := burger()
	line := Line{MenuItem: item, Quantity: 1, Variation: &item.Variations[0], AddOns: item.AddOns}

	assert.Equal(t, 9.75, line.UnitPrice())
}

func TestTotal_AvoidsFloatDrift(t *testing.T) {
	item := &domain.MenuItem{ID: "m2", Name: "Soda", Price: 0.1}
	lines := []Line{
		{MenuItem: item, Quantity: 1},
		{MenuItem: item, Quantity: 2},
	}
	assert.Equal(t, 0.3, Total(lines))
}

func TestTotal_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Total(nil))
}

func TestSnapshot_IsIndependentOfMenuEdits(t *testing.T) {
	item := burger()
	line := Line{MenuItem: item, Quantity: 2, Variation: &item.Variations[0], AddOns: []domain.AddOn{item.AddOns[1]}}
	items := Snapshot([]Line{line})

	item.Name = "Renamed"
	item.Variations[0].Price = 100

	require.Len(t, items, 1)
	assert.Equal(t, "Burger", items[0].Name)
	assert.Equal(t, 8.75, items[0].Price)
	assert.Equal(t, "Large", items[0].Variation)
	assert.Equal(t, []string{"Bacon"}, items[0].AddOns)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestSession_AddMergesIdenticalSelections(t *testing.T) {
	s := &Session{ID: "s1", VendorID: "vendor-1"}
	require.NoError(t, s.Add(Selection{MenuItemID: "m1", Quantity: 1, AddOnIDs: []string{"a", "b"}}))
	require.NoError(t, s.Add(Selection{MenuItemID: "m1", Quantity: 2, AddOnIDs: []string{"b", "a"}}))
	require.NoError(t, s.Add(Selection{MenuItemID: "m1", Quantity: 1}))

	require.Len(t, s.Lines, 2)
	assert.Equal(t, 3, s.Lines[0].Quantity)
	assert.ErrorIs(t, s.Add(Selection{MenuItemID: "m1", Quantity: 0}), ErrInvalidQuantity)
}

func TestSession_AddCapsMergedQuantity(t *testing.T) {
	s := &Session{ID: "s1", VendorID: "vendor-1"}
	require.NoError(t, s.Add(Selection{MenuItemID: "m1", Quantity: 60}))
	require.NoError(t, s.Add(Selection{MenuItemID: "m1", Quantity: 39}))
	assert.Equal(t, MaxLineQuantity, s.Lines[0].Quantity)

	assert.ErrorIs(t, s.Add(Selection{MenuItemID: "m1", Quantity: 1}), ErrInvalidQuantity)
	assert.Equal(t, MaxLineQuantity, s.Lines[0].Quantity)

	assert.ErrorIs(t, s.Add(Selection{MenuItemID: "m2", Quantity: MaxLineQuantity + 1}), ErrInvalidQuantity)
	assert.Len(t, s.Lines, 1)
}

func TestSession_Remove(t *testing.T) {
	s := &Session{Lines: []Selection{{MenuItemID: "a", Quantity: 1}, {MenuItemID: "b", Quantity: 1}}}
	require.NoError(t, s.Remove(0))
	assert.Equal(t, "b", s.Lines[0].MenuItemID)
	assert.ErrorIs(t, s.Remove(5), ErrLineNotFound)
	assert.ErrorIs(t, s.Remove(-1), ErrLineNotFound)
}
