package sandbox

import (
	"fmt"

	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/serde"
	"golang.org/x/xerrors"
)

// ErrOutOfGas is returned by the environment when the weight limit of the
// execution is exceeded. The execution must stop.
var ErrOutOfGas = xerrors.New("out of gas")

// Env is the environment available to a program during its execution.
type Env interface {
	// Caller returns the account that called the contract.
	Caller() runtime.AccountID

	// Address returns the account of the contract.
	Address() runtime.AccountID

	// Value returns the amount transferred with the call.
	Value() runtime.Balance

	// Balance returns the balance of the contract.
	Balance() (runtime.Balance, error)

	// Get reads the key from the storage of the contract, or nil if it is not
	// set.
	Get(key []byte) ([]byte, error)

	// Set writes the key to the storage of the contract.
	Set(key, value []byte) error

	// Delete removes the key from the storage of the contract.
	Delete(key []byte) error

	// Emit deposits a contract event.
	Emit(topics []runtime.Hash, data []byte) error

	// Context returns the context used to encode the arguments and the
	// values of the messages.
	Context() serde.Context
}

// Program is a contract compiled natively and registered to the sandbox with
// its code blob. The returned data must be the encoded message result. A
// program reverts by returning a revert error; any other error or a panic is
// treated as a trap, which reverts too.
type Program interface {
	// Deploy runs the constructor selected by the input.
	Deploy(env Env, input []byte) ([]byte, error)

	// Call runs the message selected by the input.
	Call(env Env, input []byte) ([]byte, error)
}

// RevertError is returned by a program to revert the execution with some
// data.
type RevertError struct {
	Data []byte
}

// Revert returns an error that reverts the execution with the data.
func Revert(data []byte) error {
	return RevertError{Data: data}
}

// Error implements error.
func (e RevertError) Error() string {
	return fmt.Sprintf("contract reverted with %#x", e.Data)
}

// Is implements xerrors.Is.
func (e RevertError) Is(err error) bool {
	_, ok := err.(RevertError)
	return ok
}

type entry struct {
	name    string
	program Program
}

// Registry maps code hashes to programs. Only code that is known by the
// registry can be uploaded.
type Registry struct {
	programs map[runtime.Hash]entry
	names    map[string]struct{}
}

// NewRegistry returns a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		programs: make(map[runtime.Hash]entry),
		names:    make(map[string]struct{}),
	}
}

// Register stores the program for the code and returns the code hash. It
// panics if the name or the code is already registered.
func (r *Registry) Register(name string, code []byte, p Program) runtime.Hash {
	if _, found := r.names[name]; found {
		panic(xerrors.Errorf("program '%s' already registered", name))
	}

	hash := runtime.Blake2{}.HashCode(code)

	if e, found := r.programs[hash]; found {
		panic(xerrors.Errorf("code of '%s' already registered by '%s'", name, e.name))
	}

	r.programs[hash] = entry{name: name, program: p}
	r.names[name] = struct{}{}

	return hash
}

// Lookup returns the program and its name for the code hash if it exists.
func (r *Registry) Lookup(hash runtime.Hash) (Program, string, bool) {
	e, found := r.programs[hash]
	if !found {
		return nil, "", false
	}

	return e.program, e.name, true
}
