package cart

import (
	"time"
)

// Selection is a cart line as the customer submitted it: ids only, priced
// against the catalog whenever the cart is read.
type Selection struct {
	MenuItemID  string   `json:"menu_item_id" validate:"required"`
	Quantity    int      `json:"quantity" validate:"gte=1"`
	VariationID string   `json:"variation_id,omitempty"`
	AddOnIDs    []string `json:"add_on_ids,omitempty"`
}

// Session is the ephemeral cart of a single checkout session.
type Session struct {
	ID        string      `json:"id"`
	VendorID  string      `json:"vendor_id"`
	Lines     []Selection `json:"lines"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Add merges sel into an identical line or appends it. A merge that would
// take the line past MaxLineQuantity leaves the cart unchanged.
func (s *Session) Add(sel Selection) error {
	if sel.Quantity < 1 || sel.Quantity > MaxLineQuantity {
		return ErrInvalidQuantity
	}
	for i, l := range s.Lines {
		if l.MenuItemID == sel.MenuItemID && l.VariationID == sel.VariationID && sameAddOns(l.AddOnIDs, sel.AddOnIDs) {
			if l.Quantity+sel.Quantity > MaxLineQuantity {
				return ErrInvalidQuantity
			}
			s.Lines[i].Quantity += sel.Quantity
			return nil
		}
	}
	s.Lines = append(s.Lines, sel)
	return nil
}

func (s *Session) Remove(index int) error {
	if index < 0 || index >= len(s.Lines) {
		return ErrLineNotFound
	}
	s.Lines = append(s.Lines[:index], s.Lines[index+1:]...)
	return nil
}

func sameAddOns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}
