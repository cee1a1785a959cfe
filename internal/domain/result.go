package domain

// ErrorKind classifies a failed operation for the caller deciding how to
// surface it.
type ErrorKind string

const (
	ErrorKindValidation  ErrorKind = "validation"
	ErrorKindPersistence ErrorKind = "persistence"
	ErrorKindPayment     ErrorKind = "payment"
	ErrorKindInternal    ErrorKind = "internal"
)

// GenericFailureMessage is shown instead of internal error details.
const GenericFailureMessage = "Something went wrong while processing your request. Please try again."
