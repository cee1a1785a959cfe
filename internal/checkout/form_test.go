package checkout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

func validForm() Form {
	return Form{
		CustomerName:  "  Ana Cruz ",
		Phone:         "09171234567",
		Address:       "12 Mabini St",
		OrderType:     domain.OrderTypeDelivery,
		PaymentMethod: domain.PaymentMethodPayOnDelivery,
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Field
}

func TestValidate_RequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"name", func(f *Form) { f.CustomerName = "   " }, "customer_name"},
		{"phone", func(f *Form) { f.Phone = "" }, "phone"},
		{"order type", func(f *Form) { f.OrderType = "drone" }, "order_type"},
		{"payment method", func(f *Form) { f.PaymentMethod = "" }, "payment_method"},
		{"manual without method", func(f *Form) {
			f.PaymentMethod = domain.PaymentMethodManual
			f.PaymentProof = dataURL("image/png", pngBytes)
		}, "selected_payment_method"},
		{"manual without proof", func(f *Form) {
			f.PaymentMethod = domain.PaymentMethodManual
			f.SelectedPaymentMethod = "gcash"
		}, "payment_proof"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.edit(&f)
			assert.Equal(t, tt.field, fieldOf(t, f.Validate(nil)))
		})
	}
}

func TestBuildPayload_Cash(t *testing.T) {
	f := validForm()
	f.PaymentProof = dataURL("image/png", pngBytes)
	p, err := BuildPayload(f, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana Cruz", p.Customer.Name)
	assert.Nil(t, p.Proof)
}

func TestBuildPayload_ManualWithDataURL(t *testing.T) {
	f := validForm()
	f.PaymentMethod = domain.PaymentMethodManual
	f.SelectedPaymentMethod = "gcash"
	f.PaymentProof = dataURL("image/png", pngBytes)

	p, err := BuildPayload(f, nil)
	require.NoError(t, err)
	require.NotNil(t, p.Proof)
	assert.Equal(t, pngBytes, p.Proof.Data)
	assert.Equal(t, "gcash", p.SelectedPaymentMethod)
}

func TestBuildPayload_ManualWithUpload(t *testing.T) {
	f := validForm()
	f.PaymentMethod = domain.PaymentMethodManual
	f.SelectedPaymentMethod = "gcash"
	upload, err := NewAttachment("receipt.jpg", jpegBytes)
	require.NoError(t, err)

	p, err := BuildPayload(f, upload)
	require.NoError(t, err)
	assert.Same(t, upload, p.Proof)
}

func TestBuildPayload_ManualBadProof(t *testing.T) {
	f := validForm()
	f.PaymentMethod = domain.PaymentMethodManual
	f.SelectedPaymentMethod = "gcash"
	f.PaymentProof = dataURL("image/gif", gifBytes)

	_, err := BuildPayload(f, nil)
	assert.Equal(t, "payment_proof", fieldOf(t, err))
}
