package checkout

import (
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

type OptionKind string

const (
	OptionCash    OptionKind = "cash"
	OptionGateway OptionKind = "gateway"
	OptionManual  OptionKind = "manual"
)

// PaymentOption is one selectable entry of the checkout payment list.
type PaymentOption struct {
	ID       string                       `json:"id"`
	Label    string                       `json:"label"`
	Kind     OptionKind                   `json:"kind"`
	TestMode bool                         `json:"test_mode,omitempty"`
	Methods  []domain.ManualPaymentMethod `json:"methods,omitempty"`
}

// ResolvePaymentOptions lists pay on delivery, then every enabled gateway in
// configured order, then manual payment when the vendor enabled it and at
// least one of its methods is enabled.
func ResolvePaymentOptions(vendor *domain.Vendor, methods []*domain.ManualPaymentMethod, gateways []domain.Gateway) []PaymentOption {
	options := []PaymentOption{{ID: domain.PaymentMethodPayOnDelivery, Label: "Pay on delivery", Kind: OptionCash}}

	for _, g := range gateways {
		if !g.Enabled {
			continue
		}
		options = append(options, PaymentOption{ID: g.Name, Label: g.DisplayName, Kind: OptionGateway, TestMode: g.TestMode})
	}

	if vendor == nil || !vendor.ManualPaymentEnabled {
		return options
	}
	enabled := enabledMethods(methods)
	if len(enabled) == 0 {
		return options
	}
	return append(options, PaymentOption{ID: domain.PaymentMethodManual, Label: "Manual payment", Kind: OptionManual, Methods: enabled})
}

func enabledMethods(methods []*domain.ManualPaymentMethod) []domain.ManualPaymentMethod {
	var enabled []domain.ManualPaymentMethod
	for _, m := range methods {
		if m.Enabled {
			enabled = append(enabled, *m)
		}
	}
	return enabled
}
