package provider

import "fmt"

// Error is the taxonomy of failures a Provider/registry operation can
// surface, mirroring original_source/src/provider/registry.rs's
// ProviderError (whose defining file is not itself present in the
// retrieval pack; the variants below are reconstructed from every call
// site observed in registry.rs and mod.rs).
type Error struct {
	Kind      ErrorKind
	Name      string   // provider name, for UnknownProvider/NotImplemented
	Supported []string // known provider names, for UnknownProvider
	Message   string
}

type ErrorKind int

const (
	ErrOther ErrorKind = iota
	ErrUnknownProvider
	ErrNotImplemented
	ErrNotFound
	ErrUnauthorized
	ErrQuota
	ErrRateLimited
	ErrTransient
	ErrPermanent
	ErrAuthentication
)

func (e *Error) Error() string {
	switch e.Kind {
	case ErrUnknownProvider:
		return fmt.Sprintf("unknown provider %q (supported: %v)", e.Name, e.Supported)
	case ErrNotImplemented:
		return fmt.Sprintf("provider %q is not yet implemented", e.Name)
	case ErrNotFound:
		return fmt.Sprintf("not found: %s", e.Message)
	case ErrUnauthorized:
		return fmt.Sprintf("unauthorized: %s", e.Message)
	case ErrQuota:
		return fmt.Sprintf("quota exceeded: %s", e.Message)
	case ErrRateLimited:
		return fmt.Sprintf("rate limited: %s", e.Message)
	case ErrTransient:
		return fmt.Sprintf("transient provider error: %s", e.Message)
	case ErrPermanent:
		return fmt.Sprintf("permanent provider error: %s", e.Message)
	case ErrAuthentication:
		return fmt.Sprintf("authentication failed: %s", e.Message)
	default:
		return e.Message
	}
}

func UnknownProviderError(name string, supported []string) *Error {
	return &Error{Kind: ErrUnknownProvider, Name: name, Supported: supported}
}

func NotImplementedError(name string) *Error {
	return &Error{Kind: ErrNotImplemented, Name: name}
}

func AuthenticationError(message string) *Error {
	return &Error{Kind: ErrAuthentication, Message: message}
}

func NotFoundError(message string) *Error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func OtherError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrOther, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	pe, ok := err.(*Error)
	return ok && pe.Kind == kind
}
