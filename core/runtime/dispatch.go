package runtime

import "fmt"

// DispatchKind is the category of a dispatch error.
type DispatchKind uint8

const (
	// DispatchOther is an error with a custom message.
	DispatchOther DispatchKind = iota

	// DispatchCannotLookup is a failure to look up an account.
	DispatchCannotLookup

	// DispatchBadOrigin is an invalid origin for the call.
	DispatchBadOrigin

	// DispatchModule is an error reported by a runtime module.
	DispatchModule

	// DispatchToken is an error related to the funds of an account.
	DispatchToken

	// DispatchArithmetic is an overflow or underflow.
	DispatchArithmetic
)

func (k DispatchKind) String() string {
	switch k {
	case DispatchOther:
		return "Other"
	case DispatchCannotLookup:
		return "CannotLookup"
	case DispatchBadOrigin:
		return "BadOrigin"
	case DispatchModule:
		return "Module"
	case DispatchToken:
		return "Token"
	case DispatchArithmetic:
		return "Arithmetic"
	default:
		return "Unknown"
	}
}

// Token error names.
const (
	FundsUnavailable = "FundsUnavailable"
	BelowMinimum     = "BelowMinimum"
)

// DispatchError is a failure that prevents a call from being executed at all,
// as opposed to a contract that reverts during its execution.
type DispatchError struct {
	Kind DispatchKind

	// Module is the name of the module for module errors.
	Module string

	// Name is the name of the error in the module, or the token error.
	Name string

	// Message is an optional description.
	Message string
}

// NewModuleError returns a dispatch error reported by the module.
func NewModuleError(module, name string) DispatchError {
	return DispatchError{
		Kind:   DispatchModule,
		Module: module,
		Name:   name,
	}
}

// NewTokenError returns a dispatch error related to the funds of an account.
func NewTokenError(name string) DispatchError {
	return DispatchError{
		Kind: DispatchToken,
		Name: name,
	}
}

// NewOtherError returns a dispatch error with a custom message.
func NewOtherError(msg string) DispatchError {
	return DispatchError{
		Kind:    DispatchOther,
		Message: msg,
	}
}

// Error implements error.
func (e DispatchError) Error() string {
	return e.String()
}

// String implements fmt.Stringer.
func (e DispatchError) String() string {
	switch e.Kind {
	case DispatchModule:
		return fmt.Sprintf("Module(%s::%s)", e.Module, e.Name)
	case DispatchToken:
		return fmt.Sprintf("Token(%s)", e.Name)
	case DispatchOther:
		return fmt.Sprintf("Other(%s)", e.Message)
	default:
		return e.Kind.String()
	}
}
