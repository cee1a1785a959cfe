package domain

import "time"

type Vendor struct {
	ID                   string    `bson:"_id" json:"id"`
	Name                 string    `bson:"name" json:"name"`
	Slug                 string    `bson:"slug" json:"slug"`
	Currency             string    `bson:"currency" json:"currency"`
	ManualPaymentEnabled bool      `bson:"manual_payment_enabled" json:"manual_payment_enabled"`
	CreatedAt            time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time `bson:"updated_at" json:"updated_at"`
}

type Customer struct {
	ID            string    `bson:"_id" json:"id"`
	VendorID      string    `bson:"vendor_id" json:"vendor_id"`
	Name          string    `bson:"name" json:"name"`
	Phone         string    `bson:"phone" json:"phone"`
	Address       string    `bson:"address" json:"address"`
	LoyaltyPoints int64     `bson:"loyalty_points" json:"loyalty_points"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// ManualPaymentMethod is an offline channel (bank transfer, e-wallet) the
// vendor accepts with a proof-of-payment image.
type ManualPaymentMethod struct {
	ID           string    `bson:"_id" json:"id"`
	VendorID     string    `bson:"vendor_id" json:"vendor_id"`
	Title        string    `bson:"title" json:"title" validate:"required,max=100"`
	Instructions string    `bson:"instructions" json:"instructions" validate:"max=2000"`
	QRCode       string    `bson:"qr_code,omitempty" json:"qr_code,omitempty"`
	Enabled      bool      `bson:"enabled" json:"enabled"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

type RedemptionRule struct {
	PointsRequired int64    `bson:"points_required" json:"points_required" validate:"gt=0"`
	DiscountAmount float64  `bson:"discount_amount" json:"discount_amount" validate:"gt=0"`
	MaxRedemption  *float64 `bson:"max_redemption,omitempty" json:"max_redemption,omitempty" validate:"omitempty,gt=0"`
}

// LoyaltySettings is keyed by vendor; ID always equals VendorID.
type LoyaltySettings struct {
	ID              string           `bson:"_id" json:"-"`
	VendorID        string           `bson:"vendor_id" json:"vendor_id"`
	PointsPerPeso   float64          `bson:"points_per_peso" json:"points_per_peso" validate:"gte=0"`
	RedemptionRules []RedemptionRule `bson:"redemption_rules" json:"redemption_rules" validate:"dive"`
	IsActive        bool             `bson:"is_active" json:"is_active"`
	UpdatedAt       time.Time        `bson:"updated_at" json:"updated_at"`
}
