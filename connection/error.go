package connection

import (
	"fmt"

	"go.dedis.ch/inkconn/core/runtime"
)

// Kind is the kind of failure of an operation.
type Kind uint8

const (
	// KindSession is a failure of the session itself. The call could not be
	// attempted.
	KindSession Kind = iota

	// KindDecoding is a failure to decode the data returned by a contract.
	KindDecoding

	// KindCodeHashMismatch is a code whose hash does not match the expected
	// one.
	KindCodeHashMismatch

	// KindDeploymentReverted is a constructor that reverted or trapped.
	KindDeploymentReverted

	// KindDeploymentFailed is an instantiation that could not be dispatched.
	KindDeploymentFailed

	// KindCallReverted is a message that reverted or trapped.
	KindCallReverted

	// KindCallFailed is a message that could not be dispatched.
	KindCallFailed
)

var kindNames = [...]string{
	KindSession:            "Session",
	KindDecoding:           "Decoding",
	KindCodeHashMismatch:   "CodeHashMismatch",
	KindDeploymentReverted: "DeploymentReverted",
	KindDeploymentFailed:   "DeploymentFailed",
	KindCallReverted:       "CallReverted",
	KindCallFailed:         "CallFailed",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", k)
}

// Sentinel errors to match the kind of an error with xerrors.Is.
var (
	ErrSession            = Error{Kind: KindSession}
	ErrDecoding           = Error{Kind: KindDecoding}
	ErrCodeHashMismatch   = Error{Kind: KindCodeHashMismatch}
	ErrDeploymentReverted = Error{Kind: KindDeploymentReverted}
	ErrDeploymentFailed   = Error{Kind: KindDeploymentFailed}
	ErrCallReverted       = Error{Kind: KindCallReverted}
	ErrCallFailed         = Error{Kind: KindCallFailed}
)

// Error is the error returned by the operations of a connection. Only the
// fields relevant to the kind are set.
type Error struct {
	Kind Kind

	// Err is the error of the session.
	Err error

	// Message describes the decoding failure.
	Message string

	// Dispatch is the error that prevented the dispatch.
	Dispatch runtime.DispatchError
}

// NewSessionError returns an error that wraps the error of the session.
func NewSessionError(err error) Error {
	return Error{Kind: KindSession, Err: err}
}

// NewDecodingError returns a decoding error with the message.
func NewDecodingError(msg string) Error {
	return Error{Kind: KindDecoding, Message: msg}
}

// NewDeploymentFailed returns an error for an instantiation that could not be
// dispatched.
func NewDeploymentFailed(derr runtime.DispatchError) Error {
	return Error{Kind: KindDeploymentFailed, Dispatch: derr}
}

// NewCallFailed returns an error for a message that could not be dispatched.
func NewCallFailed(derr runtime.DispatchError) Error {
	return Error{Kind: KindCallFailed, Dispatch: derr}
}

// Error implements error.
func (e Error) Error() string {
	switch e.Kind {
	case KindSession:
		return fmt.Sprintf("session error: %v", e.Err)
	case KindDecoding:
		return fmt.Sprintf("decoding error: %s", e.Message)
	case KindCodeHashMismatch:
		return "code hash mismatch"
	case KindDeploymentReverted:
		return "deployment reverted"
	case KindDeploymentFailed:
		return fmt.Sprintf("deployment failed: %v", e.Dispatch)
	case KindCallReverted:
		return "contract call reverted"
	case KindCallFailed:
		return fmt.Sprintf("contract call failed: %v", e.Dispatch)
	default:
		return fmt.Sprintf("unknown error of kind %d", e.Kind)
	}
}

// Is implements xerrors.Is. An error matches any other connection error of
// the same kind.
func (e Error) Is(err error) bool {
	other, ok := err.(Error)
	return ok && other.Kind == e.Kind
}

// Unwrap implements xerrors.Wrapper. It returns the error of the session or
// the dispatch error when one is available.
func (e Error) Unwrap() error {
	switch e.Kind {
	case KindSession:
		return e.Err
	case KindDeploymentFailed, KindCallFailed:
		return e.Dispatch
	default:
		return nil
	}
}
