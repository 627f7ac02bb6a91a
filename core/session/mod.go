// Package session defines the execution session a contract connection
// dispatches its calls to.
//
// A session runs the code upload, instantiation and calls against its runtime
// state and reports the raw outcome: the weight accounting, the dispatch error
// if the call could not be dispatched, the data and flags returned by the
// contract otherwise, and the events deposited during the execution. A call in
// dry-run mode must leave the state untouched.
//
// Documentation Last Review: 19.10.2026
//
package session

import (
	"fmt"

	"go.dedis.ch/inkconn/core/runtime"
)

// Mode defines if the effects of a call are kept by the session.
type Mode uint8

const (
	// Commit applies the state changes of a successful call.
	Commit Mode = iota

	// DryRun discards every state change after the call is evaluated.
	DryRun
)

func (m Mode) String() string {
	if m == DryRun {
		return "dry-run"
	}

	return "commit"
}

// ReturnFlags are the flags set by a contract when it returns.
type ReturnFlags uint32

// FlagRevert is set by a contract that reverted. The state changes are then
// discarded by the session.
const FlagRevert ReturnFlags = 1

// ExecReturn is the data returned by the contract alongside its flags.
type ExecReturn struct {
	Flags ReturnFlags
	Data  []byte
}

// DidRevert returns true if the contract reverted.
func (r ExecReturn) DidRevert() bool {
	return r.Flags&FlagRevert != 0
}

// InstantiateRequest is the request to instantiate a contract from uploaded
// code.
type InstantiateRequest struct {
	Origin   runtime.AccountID
	CodeHash runtime.Hash
	Value    runtime.Balance

	// GasLimit is the maximum weight the instantiation can consume. The
	// session uses its default limit when it is zero.
	GasLimit runtime.Weight

	// Data is the input of the constructor.
	Data []byte
	Salt []byte
}

// CallRequest is the request to call a message of a contract.
type CallRequest struct {
	Origin runtime.AccountID
	Dest   runtime.AccountID
	Value  runtime.Balance

	// GasLimit is the maximum weight the call can consume. The session uses
	// its default limit when it is zero.
	GasLimit runtime.Weight

	// Data is the input of the message.
	Data []byte
}

// Outcome is the raw outcome of a call that the session attempted.
type Outcome struct {
	GasConsumed runtime.Weight
	GasRequired runtime.Weight

	// DispatchErr is set when the call could not be dispatched. The return is
	// then meaningless.
	DispatchErr *runtime.DispatchError

	Return ExecReturn

	// Events is the list of events deposited by the call, in order.
	Events []runtime.Event
}

// InstantiateOutcome is the raw outcome of an instantiation.
type InstantiateOutcome struct {
	Outcome

	// Account is the address of the new contract.
	Account runtime.AccountID
}

// Session is the execution backend. It is a single logical session that does
// not need to support concurrent calls.
type Session interface {
	// UploadCode stores the code and returns its hash. It returns an error if
	// the code is rejected.
	UploadCode(origin runtime.AccountID, code []byte) (runtime.Hash, error)

	// Instantiate dispatches the instantiation of a contract. It returns an
	// error only if the session itself fails.
	Instantiate(req InstantiateRequest, mode Mode) (InstantiateOutcome, error)

	// Call dispatches a message to a contract. It returns an error only if the
	// session itself fails.
	Call(req CallRequest, mode Mode) (Outcome, error)
}

// Error is the error returned by a session when it fails to process a request,
// independently from the contract.
type Error struct {
	Op  string
	Err error
}

// NewError returns a session error for the operation.
func NewError(op string, err error) Error {
	return Error{
		Op:  op,
		Err: err,
	}
}

// Error implements error.
func (e Error) Error() string {
	return fmt.Sprintf("session failed to %s: %v", e.Op, e.Err)
}

// Is implements xerrors.Is. Two session errors match if they are about the same
// operation.
func (e Error) Is(err error) bool {
	other, ok := err.(Error)

	return ok && other.Op == e.Op
}

// Unwrap implements xerrors.Wrapper.
func (e Error) Unwrap() error {
	return e.Err
}
