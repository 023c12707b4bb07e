package wire

// Status is the response kind tag. It mirrors the bridge error taxonomy.
type Status string

const (
	// StatusOK indicates the operation completed successfully.
	StatusOK Status = "ok"

	// StatusUnauthorized indicates a missing or incorrect session token.
	// A fresh lookup against a disallowed assembly is NOT reported with
	// this status; it surfaces as StatusNotFound so a remote caller
	// cannot probe the allowlist.
	StatusUnauthorized Status = "unauthorized"

	// StatusNotFound indicates the target type, member, or property does
	// not exist, or exists but its assembly is not allowlisted. The two
	// cases are merged on purpose and share one message shape.
	StatusNotFound Status = "notFound"

	// StatusContractViolation indicates protocol-level misuse: an unknown
	// handle id, or a DTO target that was never declared on the
	// capability surface. May carry type and field detail.
	StatusContractViolation Status = "contractViolation"

	// StatusCoercionError indicates a wire primitive could not be
	// converted to the statically expected native type.
	StatusCoercionError Status = "coercionError"

	// StatusCancelled indicates the operation was cancelled via its
	// client-supplied operation id.
	StatusCancelled Status = "cancelled"

	// StatusInternal indicates a native-side failure during execution.
	StatusInternal Status = "internal"
)

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusOK
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusOK
}

// String returns the status tag.
func (s Status) String() string {
	return string(s)
}
