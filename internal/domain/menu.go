package domain

import "time"

type Variation struct {
	ID    string  `bson:"id" json:"id"`
	Name  string  `bson:"name" json:"name" validate:"required"`
	Price float64 `bson:"price" json:"price" validate:"gte=0"`
}

type AddOn struct {
	ID    string  `bson:"id" json:"id"`
	Name  string  `bson:"name" json:"name" validate:"required"`
	Price float64 `bson:"price" json:"price" validate:"gte=0"`
}

type MenuItem struct {
	ID          string      `bson:"_id" json:"id"`
	VendorID    string      `bson:"vendor_id" json:"vendor_id"`
	Name        string      `bson:"name" json:"name" validate:"required,max=120"`
	Description string      `bson:"description" json:"description,omitempty"`
	Category    string      `bson:"category" json:"category,omitempty"`
	Price       float64     `bson:"price" json:"price" validate:"gte=0"`
	Variations  []Variation `bson:"variations" json:"variations,omitempty" validate:"dive"`
	AddOns      []AddOn     `bson:"add_ons" json:"add_ons,omitempty" validate:"dive"`
	IsAvailable bool        `bson:"is_available" json:"is_available"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at" json:"updated_at"`
}

func (m *MenuItem) Variation(id string) (*Variation, bool) {
	for i := range m.Variations {
		if m.Variations[i].ID == id {
			return &m.Variations[i], true
		}
	}
	return nil, false
}

func (m *MenuItem) AddOn(id string) (*AddOn, bool) {
	for i := range m.AddOns {
		if m.AddOns[i].ID == id {
			return &m.AddOns[i], true
		}
	}
	return nil, false
}
