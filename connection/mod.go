// Package connection defines a uniform abstraction to interact with a smart
// contract execution backend.
//
// A connection provides one operation per stage of the life of a contract:
// uploading the code, instantiating a contract, executing a message that
// mutates the state, and reading a message without committing anything. Every
// operation either returns a complete result, or exactly one error of the
// taxonomy defined in this package.
//
// The abstraction is parameterized by the account identifier and the hash
// types of the runtime so that it is not bound to a specific chain.
//
// Documentation Last Review: 19.10.2026
//
package connection

import (
	"go.dedis.ch/inkconn/core/runtime"
)

// ContractEvent is an event emitted during the execution of a contract. It is
// opaque for the connection.
type ContractEvent = runtime.Event

// UploadCall describes the upload of a contract code.
type UploadCall[H comparable] struct {
	// Code is the blob of the contract.
	Code []byte

	// ExpectedHash is optional. When set, the hash computed by the runtime
	// must match.
	ExpectedHash *H
}

// InstantiateCall describes the instantiation of a contract.
type InstantiateCall[A, H comparable] struct {
	// CodeHash is the hash of the code to instantiate.
	CodeHash H

	// Code is optional. When set, it is uploaded before the instantiation and
	// its hash must match the code hash.
	Code []byte

	// Data is the input of the constructor, made of the selector and the
	// encoded arguments.
	Data []byte

	// Salt differentiates contracts instantiated from the same code and
	// input.
	Salt []byte

	// Value is the amount transferred to the new contract.
	Value runtime.Balance

	// GasLimit is the maximum weight of the execution, or the default one
	// when it is zero.
	GasLimit runtime.Weight
}

// ExecCall describes a message that is executed and whose state changes are
// committed.
type ExecCall[A comparable] struct {
	// Account is the address of the contract.
	Account A

	// Data is the input of the message.
	Data []byte

	// Value is the amount transferred to the contract.
	Value runtime.Balance

	GasLimit runtime.Weight
}

// ReadCall describes a message that is evaluated without committing any
// state change.
type ReadCall[A comparable] struct {
	Account A
	Data    []byte
	Value   runtime.Balance

	GasLimit runtime.Weight
}

// ContractResult is the outcome of a contract interaction that actually
// executed. The result of an instantiation holds the address of the new
// contract, while the result of a message holds the data it returned.
type ContractResult[R any] struct {
	GasConsumed runtime.Weight
	GasRequired runtime.Weight

	Result R

	// Events is the list of events in the order they were emitted.
	Events []ContractEvent
}

// Connection is the interface of a connection to an execution backend. A
// connection is a single logical session and it is not safe for concurrent
// use. See Synchronized.
type Connection[A, H comparable] interface {
	// UploadCode submits the code and returns the hash computed by the
	// runtime.
	UploadCode(call UploadCall[H]) (H, error)

	// Instantiate instantiates a contract and returns a result that holds its
	// address.
	Instantiate(call InstantiateCall[A, H]) (ContractResult[A], error)

	// Exec executes a message and returns the raw data returned by the
	// contract. The state changes persist.
	Exec(call ExecCall[A]) (ContractResult[[]byte], error)

	// Read evaluates a message like Exec but the state changes are always
	// discarded.
	Read(call ReadCall[A]) (ContractResult[[]byte], error)
}
