package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is returned when a payload is not a base64 encoded psbt.
	ErrDecode = errors.New("please enter a valid transaction")
	// ErrIdentityMismatch is returned when a signed psbt does not spend the
	// same unsigned transaction as the one being signed.
	ErrIdentityMismatch = errors.New("psbt is not the targeted transaction being signed")
	// ErrValidation is returned for malformed addresses and amounts.
	ErrValidation = errors.New("invalid spend proposal")
	// ErrEmptySelection is returned when a spend proposal has no inputs or
	// no outputs.
	ErrEmptySelection = errors.New("spend proposal must select at least one input and one output")
	// ErrOutOfOrder is returned when a revocation transaction is signed
	// before the ones it depends on.
	ErrOutOfOrder = errors.New("revocation transactions must be signed in order")
	// ErrNotSigned is returned when accessing the signed side of an envelope
	// that has not been signed yet.
	ErrNotSigned = errors.New("transaction is not signed")
)

// DaemonError wraps any failure of a daemon call.
type DaemonError struct {
	Method  string
	Code    int
	Message string
}

func (e *DaemonError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("daemon %s failed (%d): %s", e.Method, e.Code, e.Message)
	}
	return fmt.Sprintf("daemon %s failed: %s", e.Method, e.Message)
}

func IsDaemonError(err error) bool {
	var daemonErr *DaemonError
	return errors.As(err, &daemonErr)
}
