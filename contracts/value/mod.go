// Package value implements a simple native program that can store, delete,
// and list values.
package value

import (
	"fmt"
	"sort"

	"go.dedis.ch/inkconn/core/message"
	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/core/session/sandbox"
	"golang.org/x/xerrors"
)

// commands defines the commands of the value program. This interface helps in
// testing the program.
type commands interface {
	set(env sandbox.Env, args SetArgs) error
	get(env sandbox.Env, key string) (*string, error)
	delete(env sandbox.Env, key string) error
	list(env sandbox.Env) ([]string, error)
}

const (
	// ContractName is the name of the program in the registry.
	ContractName = "inkconn.Value"

	// EventSet is the label of the topic of the event emitted when a value is
	// set.
	EventSet = "Set"

	// EventDeleted is the label of the topic of the event emitted when a value
	// is deleted.
	EventDeleted = "Deleted"
)

// Code is the code blob associated with the program.
var Code = []byte("inkconn.Value:v1")

// Selectors of the constructor and the messages.
var (
	SelectorNew    = message.NewSelector("new")
	SelectorSet    = message.NewSelector("set")
	SelectorGet    = message.NewSelector("get")
	SelectorDelete = message.NewSelector("delete")
	SelectorList   = message.NewSelector("list")
)

var (
	indexKey    = []byte("index")
	valuePrefix = "value:"
)

// SetArgs are the arguments of the set message.
type SetArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RegisterContract registers the value program to the registry and returns
// its code hash.
func RegisterContract(r *sandbox.Registry) runtime.Hash {
	return r.Register(ContractName, Code, NewContract())
}

// Contract is a simple program that allows one to handle the storage by
// performing CRUD operations.
//
// - implements sandbox.Program
type Contract struct {
	// cmd provides the commands executions
	cmd commands
}

// NewContract creates a new value program.
func NewContract() Contract {
	return Contract{
		cmd: valueCommand{},
	}
}

// Deploy implements sandbox.Program. The only constructor does not take any
// argument.
func (c Contract) Deploy(env sandbox.Env, input []byte) ([]byte, error) {
	sel, _, err := message.Split(input)
	if err != nil {
		return nil, xerrors.Errorf("bad input: %v", err)
	}

	if sel != SelectorNew {
		return nil, xerrors.Errorf("unknown constructor %v", sel)
	}

	return message.EncodeOk(env.Context(), nil)
}

// Call implements sandbox.Program. It runs the appropriate command.
func (c Contract) Call(env sandbox.Env, input []byte) ([]byte, error) {
	sel, payload, err := message.Split(input)
	if err != nil {
		return nil, xerrors.Errorf("bad input: %v", err)
	}

	var value interface{}

	switch sel {
	case SelectorSet:
		var args SetArgs

		if message.DecodeArgs(env.Context(), payload, &args) != nil {
			return nil, sandbox.Revert(message.EncodeLangError(message.CouldNotReadInput))
		}

		err = c.cmd.set(env, args)
		if err != nil {
			return nil, xerrors.Errorf("failed to SET: %v", err)
		}
	case SelectorGet:
		var key string

		if message.DecodeArgs(env.Context(), payload, &key) != nil {
			return nil, sandbox.Revert(message.EncodeLangError(message.CouldNotReadInput))
		}

		value, err = c.cmd.get(env, key)
		if err != nil {
			return nil, xerrors.Errorf("failed to GET: %v", err)
		}
	case SelectorDelete:
		var key string

		if message.DecodeArgs(env.Context(), payload, &key) != nil {
			return nil, sandbox.Revert(message.EncodeLangError(message.CouldNotReadInput))
		}

		err = c.cmd.delete(env, key)
		if err != nil {
			return nil, xerrors.Errorf("failed to DELETE: %v", err)
		}
	case SelectorList:
		value, err = c.cmd.list(env)
		if err != nil {
			return nil, xerrors.Errorf("failed to LIST: %v", err)
		}
	default:
		return nil, xerrors.Errorf("unknown message %v", sel)
	}

	return message.EncodeOk(env.Context(), value)
}

// valueCommand implements the commands of the value program.
//
// - implements commands
type valueCommand struct{}

// set implements commands. It stores the value and adds the key to the index.
func (valueCommand) set(env sandbox.Env, args SetArgs) error {
	if args.Key == "" {
		return xerrors.New("empty key")
	}

	err := env.Set([]byte(valuePrefix+args.Key), []byte(args.Value))
	if err != nil {
		return xerrors.Errorf("failed to set value: %v", err)
	}

	index, err := readIndex(env)
	if err != nil {
		return err
	}

	_, found := index[args.Key]
	if !found {
		index[args.Key] = struct{}{}

		err = writeIndex(env, index)
		if err != nil {
			return err
		}
	}

	return emit(env, EventSet, args.Key, []byte(args.Value))
}

// get implements commands. It returns the value of the key, or nil if the key
// is not set.
func (valueCommand) get(env sandbox.Env, key string) (*string, error) {
	value, err := env.Get([]byte(valuePrefix + key))
	if err != nil {
		return nil, xerrors.Errorf("failed to get key '%s': %v", key, err)
	}

	if value == nil {
		return nil, nil
	}

	str := string(value)

	return &str, nil
}

// delete implements commands. Deleting a missing key does nothing.
func (valueCommand) delete(env sandbox.Env, key string) error {
	index, err := readIndex(env)
	if err != nil {
		return err
	}

	_, found := index[key]
	if !found {
		return nil
	}

	err = env.Delete([]byte(valuePrefix + key))
	if err != nil {
		return xerrors.Errorf("failed to delete key '%s': %v", key, err)
	}

	delete(index, key)

	err = writeIndex(env, index)
	if err != nil {
		return err
	}

	return emit(env, EventDeleted, key, nil)
}

// list implements commands. It returns the key=value pairs set (and not
// deleted) so far in sorted order.
func (valueCommand) list(env sandbox.Env) ([]string, error) {
	index, err := readIndex(env)
	if err != nil {
		return nil, err
	}

	res := []string{}

	for k := range index {
		v, err := env.Get([]byte(valuePrefix + k))
		if err != nil {
			return nil, xerrors.Errorf("failed to get key '%s': %v", k, err)
		}

		res = append(res, fmt.Sprintf("%s=%s", k, v))
	}

	sort.Strings(res)

	return res, nil
}

func readIndex(env sandbox.Env) (map[string]struct{}, error) {
	index := map[string]struct{}{}

	data, err := env.Get(indexKey)
	if err != nil {
		return nil, xerrors.Errorf("failed to read index: %v", err)
	}

	if data == nil {
		return index, nil
	}

	var keys []string

	err = env.Context().Unmarshal(data, &keys)
	if err != nil {
		return nil, xerrors.Errorf("corrupted index: %v", err)
	}

	for _, key := range keys {
		index[key] = struct{}{}
	}

	return index, nil
}

func writeIndex(env sandbox.Env, index map[string]struct{}) error {
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	data, err := env.Context().Marshal(keys)
	if err != nil {
		return xerrors.Errorf("failed to encode index: %v", err)
	}

	err = env.Set(indexKey, data)
	if err != nil {
		return xerrors.Errorf("failed to write index: %v", err)
	}

	return nil
}

func emit(env sandbox.Env, label, key string, data []byte) error {
	hasher := runtime.Blake2{}

	topics := []runtime.Hash{
		hasher.Topic([]byte(label)),
		hasher.Topic([]byte(key)),
	}

	err := env.Emit(topics, data)
	if err != nil {
		return xerrors.Errorf("failed to emit: %v", err)
	}

	return nil
}
