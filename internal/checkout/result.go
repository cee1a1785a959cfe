package checkout

import (
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

// Confirmation is returned for a placed order. NextURL is the payment
// processing address for gateway orders and the confirmation page
// otherwise.
type Confirmation struct {
	Order        *domain.Order `json:"order"`
	NextURL      string        `json:"next_url"`
	PointsEarned int64         `json:"points_earned"`
}

type Result struct {
	OK        bool             `json:"ok"`
	Data      *Confirmation    `json:"data,omitempty"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
	Field     string           `json:"field,omitempty"`
	Message   string           `json:"message,omitempty"`
}

func success(c *Confirmation) Result {
	return Result{OK: true, Data: c}
}

func invalid(field, message string) Result {
	return Result{ErrorKind: domain.ErrorKindValidation, Field: field, Message: message}
}

func persistenceFailure() Result {
	return Result{ErrorKind: domain.ErrorKindPersistence, Message: domain.GenericFailureMessage}
}

func internalFailure() Result {
	return Result{ErrorKind: domain.ErrorKindInternal, Message: domain.GenericFailureMessage}
}
