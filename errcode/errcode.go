package errcode

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Dispatch surface
	Unsupported        Code = "unsupported"         // capability slot absent on this backend
	InvalidHandle      Code = "invalid_handle"      // operation on a nil or unbound handle
	NotInitialized     Code = "not_initialized"     // operation before init
	AlreadyInitialized Code = "already_initialized" // second init on the same instance
	InvalidArgument    Code = "invalid_argument"    // id or value outside the backend's range
	BackendFailure     Code = "backend_failure"     // hardware rejected the operation

	// Service/control plane
	UnknownController Code = "unknown_controller"
	UnknownDevice     Code = "unknown_device"
	InvalidTopic      Code = "invalid_topic"
	InvalidPayload    Code = "invalid_payload"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
