package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrAlreadyEnrolled = errors.New("user is already enrolled in this course")
)

// BillingValidationError lists every missing or malformed billing field
type BillingValidationError struct {
	Fields map[string]string
}

func (e *BillingValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid billing details: %s", strings.Join(names, ", "))
}

// GatewayError wraps a failure talking to the payment gateway
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// VerificationOutcome is the result kind of a payment callback
type VerificationOutcome int

const (
	OutcomeVerified VerificationOutcome = iota + 1
	OutcomeSignatureInvalid
	OutcomeOrderNotFound
	OutcomeAlreadyVerified
)

func (o VerificationOutcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeSignatureInvalid:
		return "signature_invalid"
	case OutcomeOrderNotFound:
		return "order_not_found"
	case OutcomeAlreadyVerified:
		return "already_verified"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the callback produced a new enrollment
func (o VerificationOutcome) Succeeded() bool {
	return o == OutcomeVerified
}
