package httperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindNotAuthorized
	KindUnauthenticated
	KindIllegalTransition
	KindSlotConflict
	KindConflict
	KindInvariant
	KindExternalPayment
	KindConfigMissing
	KindIllegalPaymentTransition
)

// BusinessError carries a stable machine code plus the kind that decides the
// HTTP status.
type BusinessError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func (e BusinessError) Unwrap() error {
	return e.Err
}

func ErrBusiness(code string) error {
	return BusinessError{Kind: KindValidation, Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

func KindOf(err error) (Kind, bool) {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return 0, false
}

func Validation(code, message string) error {
	return BusinessError{Kind: KindValidation, Code: code, Message: message}
}

func NotFoundErr(code, message string) error {
	return BusinessError{Kind: KindNotFound, Code: code, Message: message}
}

func NotAuthorized(message string) error {
	return BusinessError{Kind: KindNotAuthorized, Code: "not_authorized", Message: message}
}

func IllegalTransition(entity, from, to string) error {
	return BusinessError{
		Kind:    KindIllegalTransition,
		Code:    "illegal_transition",
		Message: fmt.Sprintf("%s cannot move from %s to %s", entity, from, to),
	}
}

func SlotConflict() error {
	return BusinessError{Kind: KindSlotConflict, Code: "slot_conflict", Message: "time slot overlaps an existing appointment"}
}

func Conflict(code, message string) error {
	return BusinessError{Kind: KindConflict, Code: code, Message: message}
}

func Invariant(code, message string) error {
	return BusinessError{Kind: KindInvariant, Code: code, Message: message}
}

func ExternalPayment(err error) error {
	return BusinessError{Kind: KindExternalPayment, Code: "external_payment_error", Message: "payment provider request failed", Err: err}
}

func ConfigMissing(key string) error {
	return BusinessError{Kind: KindConfigMissing, Code: "config_missing", Message: key + " is not configured"}
}

func IllegalPaymentTransition(current, action string) error {
	return BusinessError{
		Kind:    KindIllegalPaymentTransition,
		Code:    "illegal_payment_transition",
		Message: fmt.Sprintf("cannot %s while payment is %s", action, current),
	}
}
