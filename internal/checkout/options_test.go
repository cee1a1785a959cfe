package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

var testGateways = []domain.Gateway{
	{Name: "stripe", DisplayName: "Stripe", TestMode: true, Enabled: true},
	{Name: "paypal", DisplayName: "PayPal", Enabled: false},
	{Name: "paymongo", DisplayName: "PayMongo", Enabled: true},
}

func ids(options []PaymentOption) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		out = append(out, o.ID)
	}
	return out
}

func TestResolvePaymentOptions(t *testing.T) {
	enabled := &domain.ManualPaymentMethod{ID: "gcash", Title: "GCash", Enabled: true}
	disabled := &domain.ManualPaymentMethod{ID: "bank", Title: "Bank", Enabled: false}

	tests := []struct {
		name    string
		vendor  *domain.Vendor
		methods []*domain.ManualPaymentMethod
		want    []string
	}{
		{"manual disabled", &domain.Vendor{ManualPaymentEnabled: false}, []*domain.ManualPaymentMethod{enabled}, []string{"pay_on_delivery", "stripe", "paymongo"}},
		{"no enabled method", &domain.Vendor{ManualPaymentEnabled: true}, []*domain.ManualPaymentMethod{disabled}, []string{"pay_on_delivery", "stripe", "paymongo"}},
		{"manual offered", &domain.Vendor{ManualPaymentEnabled: true}, []*domain.ManualPaymentMethod{disabled, enabled}, []string{"pay_on_delivery", "stripe", "paymongo", "manual_payment"}},
		{"nil vendor", nil, nil, []string{"pay_on_delivery", "stripe", "paymongo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ResolvePaymentOptions(tt.vendor, tt.methods, testGateways)))
		})
	}
}

func TestResolvePaymentOptions_Details(t *testing.T) {
	options := ResolvePaymentOptions(
		&domain.Vendor{ManualPaymentEnabled: true},
		[]*domain.ManualPaymentMethod{{ID: "gcash", Title: "GCash", Enabled: true}, {ID: "bank", Enabled: false}},
		testGateways,
	)
	require.Len(t, options, 4)
	assert.True(t, options[1].TestMode)
	assert.False(t, options[2].TestMode)
	assert.Equal(t, OptionManual, options[3].Kind)
	require.Len(t, options[3].Methods, 1)
	assert.Equal(t, "gcash", options[3].Methods[0].ID)
}
