package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

var validate = validator.New()

// Form is the checkout form as submitted by the customer.
type Form struct {
	CustomerName          string           `json:"customer_name" validate:"required,max=120"`
	Phone                 string           `json:"phone" validate:"required,max=32"`
	Address               string           `json:"address" validate:"max=500"`
	OrderType             domain.OrderType `json:"order_type" validate:"required,oneof=delivery pickup"`
	PaymentMethod         string           `json:"payment_method" validate:"required"`
	SelectedPaymentMethod string           `json:"selected_payment_method,omitempty"`
	PaymentProof          string           `json:"payment_proof,omitempty"`
	Notes                 string           `json:"notes,omitempty" validate:"max=1000"`
}

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var fieldNames = map[string]string{
	"CustomerName":          "customer_name",
	"Phone":                 "phone",
	"Address":               "address",
	"OrderType":             "order_type",
	"PaymentMethod":         "payment_method",
	"SelectedPaymentMethod": "selected_payment_method",
	"PaymentProof":          "payment_proof",
	"Notes":                 "notes",
}

// Validate checks required fields. Manual payment additionally needs a
// chosen method and a proof image; proof can arrive as a data URL or as a
// separately uploaded attachment.
func (f *Form) Validate(proof *Attachment) error {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{Field: fieldNames[fe.Field()], Message: describe(fe)}
		}
		return &ValidationError{Field: "form", Message: err.Error()}
	}

	if f.PaymentMethod == domain.PaymentMethodManual {
		if f.SelectedPaymentMethod == "" {
			return &ValidationError{Field: "selected_payment_method", Message: "choose a manual payment method"}
		}
		if proof == nil && f.PaymentProof == "" {
			return &ValidationError{Field: "payment_proof", Message: "upload a proof of payment"}
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}

// Payload is what gets submitted once the form validates.
type Payload struct {
	Customer              domain.CustomerInfo
	OrderType             domain.OrderType
	PaymentMethod         string
	SelectedPaymentMethod string
	Proof                 *Attachment
	Notes                 string
}

// BuildPayload validates the form and decodes the proof. upload, when
// non-nil, takes precedence over a data URL in the form. Proofs are only
// carried for manual payment.
func BuildPayload(f Form, upload *Attachment) (*Payload, error) {
	if err := f.Validate(upload); err != nil {
		return nil, err
	}

	p := &Payload{
		Customer:      domain.CustomerInfo{Name: f.CustomerName, Phone: f.Phone, Address: f.Address},
		OrderType:     f.OrderType,
		PaymentMethod: f.PaymentMethod,
		Notes:         strings.TrimSpace(f.Notes),
	}
	if f.PaymentMethod != domain.PaymentMethodManual {
		return p, nil
	}

	p.SelectedPaymentMethod = f.SelectedPaymentMethod
	p.Proof = upload
	if p.Proof == nil {
		att, err := DecodeProof(f.PaymentProof)
		if err != nil {
			return nil, &ValidationError{Field: "payment_proof", Message: err.Error()}
		}
		p.Proof = att
	}
	return p, nil
}
