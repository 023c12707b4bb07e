package capability

import (
	"errors"
	"fmt"
)

// Bridge error taxonomy. The dispatcher maps these onto response statuses.
var (
	// ErrUnauthorized indicates a missing or incorrect session token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the target does not exist. Disallowed
	// assemblies surface through this same error so a remote caller
	// cannot tell "missing" from "blocked".
	ErrNotFound = errors.New("target not found")
)

// ContractError reports protocol-level misuse by the remote side: an
// unknown handle id, or a DTO target that was never declared on the
// surface. Unlike ErrNotFound it may carry detail; it reveals nothing
// about the allowlist.
type ContractError struct {
	msg string
}

// NewContractError builds a contract error with a formatted message.
func NewContractError(format string, args ...any) *ContractError {
	return &ContractError{msg: fmt.Sprintf(format, args...)}
}

// Error returns the message.
func (e *ContractError) Error() string {
	return e.msg
}

// IsContractError reports whether err is (or wraps) a ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

// CoercionError reports that a wire value could not be converted to the
// statically expected native type.
type CoercionError struct {
	// Operation and Parameter locate the failing conversion for the
	// developer on the remote side.
	Operation string
	Parameter string

	// Expected is the native type that was wanted; Actual the wire kind
	// that arrived.
	Expected string
	Actual   string
}

// Error returns a message naming expected vs. actual kind.
func (e *CoercionError) Error() string {
	where := ""
	if e.Operation != "" || e.Parameter != "" {
		where = fmt.Sprintf(" (operation %q, parameter %q)", e.Operation, e.Parameter)
	}
	return fmt.Sprintf("cannot convert wire %s to %s%s", e.Actual, e.Expected, where)
}

// IsCoercionError reports whether err is (or wraps) a CoercionError.
func IsCoercionError(err error) bool {
	var ce *CoercionError
	return errors.As(err, &ce)
}
