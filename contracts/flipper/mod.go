// Package flipper implements a native program that holds a single boolean.
//
// The program is mostly used to exercise the connection: it has a reverting
// constructor and a message that writes before it reverts.
//
// Documentation Last Review: 19.10.2026
//
package flipper

import (
	"go.dedis.ch/inkconn/core/message"
	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/core/session/sandbox"
	"golang.org/x/xerrors"
)

// ContractName is the name of the program in the registry.
const ContractName = "inkconn.Flipper"

// Code is the code blob associated with the program. Uploading it makes the
// program available to instantiations.
var Code = []byte("inkconn.Flipper:v1")

// Selectors of the constructors and the messages.
var (
	SelectorNew          = message.NewSelector("new")
	SelectorNewReverting = message.NewSelector("new_reverting")
	SelectorFlip         = message.NewSelector("flip")
	SelectorGet          = message.NewSelector("get")
	SelectorFlipAndFail  = message.NewSelector("flip_and_get_failing")
)

var (
	valueKey     = []byte("value")
	flippedTopic = runtime.Blake2{}.Topic([]byte("Flipped"))
)

// RegisterContract registers the flipper program to the registry and returns
// its code hash.
func RegisterContract(r *sandbox.Registry) runtime.Hash {
	return r.Register(ContractName, Code, Contract{})
}

// Contract is the flipper program.
//
// - implements sandbox.Program
type Contract struct{}

// Deploy implements sandbox.Program. It runs either the constructor that sets
// the initial value, or the one that always reverts.
func (c Contract) Deploy(env sandbox.Env, input []byte) ([]byte, error) {
	sel, payload, err := message.Split(input)
	if err != nil {
		return nil, xerrors.Errorf("bad input: %v", err)
	}

	switch sel {
	case SelectorNew:
		var init bool

		err = message.DecodeArgs(env.Context(), payload, &init)
		if err != nil {
			return nil, sandbox.Revert(message.EncodeLangError(message.CouldNotReadInput))
		}

		err = c.write(env, init)
		if err != nil {
			return nil, err
		}

		return message.EncodeOk(env.Context(), nil)
	case SelectorNewReverting:
		return nil, sandbox.Revert(nil)
	default:
		return nil, xerrors.Errorf("unknown constructor %v", sel)
	}
}

// Call implements sandbox.Program.
func (c Contract) Call(env sandbox.Env, input []byte) ([]byte, error) {
	sel, _, err := message.Split(input)
	if err != nil {
		return nil, xerrors.Errorf("bad input: %v", err)
	}

	switch sel {
	case SelectorFlip:
		_, err = c.flip(env)
		if err != nil {
			return nil, err
		}

		return message.EncodeOk(env.Context(), nil)
	case SelectorGet:
		value, err := c.read(env)
		if err != nil {
			return nil, err
		}

		return message.EncodeOk(env.Context(), value)
	case SelectorFlipAndFail:
		value, err := c.flip(env)
		if err != nil {
			return nil, err
		}

		data, err := message.EncodeOk(env.Context(), value)
		if err != nil {
			return nil, err
		}

		return nil, sandbox.Revert(data)
	default:
		return nil, xerrors.Errorf("unknown message %v", sel)
	}
}

func (c Contract) flip(env sandbox.Env) (bool, error) {
	value, err := c.read(env)
	if err != nil {
		return false, err
	}

	err = c.write(env, !value)
	if err != nil {
		return false, err
	}

	data, err := env.Context().Marshal(!value)
	if err != nil {
		return false, xerrors.Errorf("failed to encode event: %v", err)
	}

	err = env.Emit([]runtime.Hash{flippedTopic}, data)
	if err != nil {
		return false, err
	}

	return !value, nil
}

func (c Contract) read(env sandbox.Env) (bool, error) {
	data, err := env.Get(valueKey)
	if err != nil {
		return false, err
	}

	var value bool

	err = env.Context().Unmarshal(data, &value)
	if err != nil {
		return false, xerrors.Errorf("corrupted value: %v", err)
	}

	return value, nil
}

func (c Contract) write(env sandbox.Env, value bool) error {
	data, err := env.Context().Marshal(value)
	if err != nil {
		return xerrors.Errorf("failed to encode value: %v", err)
	}

	return env.Set(valueKey, data)
}
