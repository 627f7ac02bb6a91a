package value

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/inkconn/core/message"
	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/core/session"
	"go.dedis.ch/inkconn/core/session/sandbox"
	"go.dedis.ch/inkconn/internal/testing/fake"
	"go.dedis.ch/inkconn/serde"
	"go.dedis.ch/inkconn/serde/json"
)

func TestContract_Deploy(t *testing.T) {
	contract := NewContract()

	data, err := contract.Deploy(newFakeEnv(), encode(t, SelectorNew, nil))
	require.NoError(t, err)
	require.Equal(t, []byte{0}, data)

	_, err = contract.Deploy(newFakeEnv(), encode(t, SelectorSet, nil))
	require.EqualError(t, err, "unknown constructor "+SelectorSet.String())

	_, err = contract.Deploy(newFakeEnv(), []byte{1})
	require.EqualError(t, err, "bad input: input too short: 1 < 4")
}

func TestContract_Call(t *testing.T) {
	contract := Contract{cmd: fakeCmd{err: fake.GetError()}}

	_, err := contract.Call(newFakeEnv(), encode(t, SelectorSet, SetArgs{Key: "a"}))
	require.EqualError(t, err, fake.Err("failed to SET"))

	_, err = contract.Call(newFakeEnv(), encode(t, SelectorGet, "a"))
	require.EqualError(t, err, fake.Err("failed to GET"))

	_, err = contract.Call(newFakeEnv(), encode(t, SelectorDelete, "a"))
	require.EqualError(t, err, fake.Err("failed to DELETE"))

	_, err = contract.Call(newFakeEnv(), encode(t, SelectorList, nil))
	require.EqualError(t, err, fake.Err("failed to LIST"))

	_, err = contract.Call(newFakeEnv(), encode(t, SelectorNew, nil))
	require.EqualError(t, err, "unknown message "+SelectorNew.String())

	_, err = contract.Call(newFakeEnv(), nil)
	require.EqualError(t, err, "bad input: input too short: 0 < 4")

	for _, sel := range []message.Selector{SelectorSet, SelectorGet, SelectorDelete} {
		_, err = contract.Call(newFakeEnv(), encode(t, sel, nil))
		require.Equal(t, sandbox.Revert(message.EncodeLangError(message.CouldNotReadInput)), err)
	}

	contract.cmd = fakeCmd{}

	data, err := contract.Call(newFakeEnv(), encode(t, SelectorSet, SetArgs{Key: "a"}))
	require.NoError(t, err)
	require.Equal(t, []byte{0}, data)

	data, err = contract.Call(newFakeEnv(), encode(t, SelectorGet, "a"))
	require.NoError(t, err)
	require.Equal(t, []byte("\x00null"), data)

	data, err = contract.Call(newFakeEnv(), encode(t, SelectorList, nil))
	require.NoError(t, err)
	require.Equal(t, []byte("\x00[]"), data)
}

func TestCommand_Set(t *testing.T) {
	cmd := valueCommand{}
	env := newFakeEnv()

	err := cmd.set(env, SetArgs{})
	require.EqualError(t, err, "empty key")

	err = cmd.set(env, SetArgs{Key: "a", Value: "1"})
	require.NoError(t, err)

	err = cmd.set(env, SetArgs{Key: "a", Value: "2"})
	require.NoError(t, err)

	require.Equal(t, "2", string(env.values["value:a"]))
	require.Equal(t, `["a"]`, string(env.values["index"]))
	require.Len(t, env.events, 2)
	require.Equal(t, runtime.Blake2{}.Topic([]byte(EventSet)), env.events[0].Topics[0])
	require.Equal(t, []byte("2"), env.events[1].Data)

	env.err = fake.GetError()

	err = cmd.set(env, SetArgs{Key: "a"})
	require.EqualError(t, err, fake.Err("failed to set value"))
}

func TestCommand_Get(t *testing.T) {
	cmd := valueCommand{}
	env := newFakeEnv()

	value, err := cmd.get(env, "a")
	require.NoError(t, err)
	require.Nil(t, value)

	env.values["value:a"] = []byte("1")

	value, err = cmd.get(env, "a")
	require.NoError(t, err)
	require.Equal(t, "1", *value)

	env.err = fake.GetError()

	_, err = cmd.get(env, "a")
	require.EqualError(t, err, fake.Err("failed to get key 'a'"))
}

func TestCommand_Delete(t *testing.T) {
	cmd := valueCommand{}
	env := newFakeEnv()

	err := cmd.delete(env, "a")
	require.NoError(t, err)
	require.Empty(t, env.events)

	require.NoError(t, cmd.set(env, SetArgs{Key: "a", Value: "1"}))
	require.NoError(t, cmd.set(env, SetArgs{Key: "b", Value: "2"}))

	err = cmd.delete(env, "a")
	require.NoError(t, err)
	require.Nil(t, env.values["value:a"])
	require.Equal(t, `["b"]`, string(env.values["index"]))
	require.Len(t, env.events, 3)
	require.Nil(t, env.events[2].Data)

	env.values["index"] = []byte("{")

	err = cmd.delete(env, "b")
	require.Error(t, err)
	require.Contains(t, err.Error(), "corrupted index: ")

	env.err = fake.GetError()

	err = cmd.delete(env, "b")
	require.EqualError(t, err, fake.Err("failed to read index"))
}

func TestCommand_List(t *testing.T) {
	cmd := valueCommand{}
	env := newFakeEnv()

	res, err := cmd.list(env)
	require.NoError(t, err)
	require.Empty(t, res)

	require.NoError(t, cmd.set(env, SetArgs{Key: "b", Value: "2"}))
	require.NoError(t, cmd.set(env, SetArgs{Key: "a", Value: "1"}))

	res, err = cmd.list(env)
	require.NoError(t, err)
	require.Equal(t, []string{"a=1", "b=2"}, res)
}

func TestContract_Sandbox(t *testing.T) {
	alice := runtime.AccountID{1}

	sb, err := sandbox.NewSandbox()
	require.NoError(t, err)

	hash := RegisterContract(sb.Registry())

	_, err = sb.UploadCode(alice, Code)
	require.NoError(t, err)

	inst, err := sb.Instantiate(session.InstantiateRequest{
		Origin:   alice,
		CodeHash: hash,
		Data:     encode(t, SelectorNew, nil),
	}, session.Commit)
	require.NoError(t, err)
	require.Nil(t, inst.DispatchErr)

	out, err := sb.Call(session.CallRequest{
		Origin: alice,
		Dest:   inst.Account,
		Data:   encode(t, SelectorSet, SetArgs{Key: "a", Value: "1"}),
	}, session.Commit)
	require.NoError(t, err)
	require.Nil(t, out.DispatchErr)
	require.Len(t, out.Events, 2)

	out, err = sb.Call(session.CallRequest{
		Origin: alice,
		Dest:   inst.Account,
		Data:   encode(t, SelectorGet, "a"),
	}, session.DryRun)
	require.NoError(t, err)

	res, err := message.NewDecoder[*string](json.NewContext()).Decode(out.Return.Data)
	require.NoError(t, err)
	require.Equal(t, "1", *res.Value())
}

// -----------------------------------------------------------------------------
// Utility functions

func encode(t *testing.T, sel message.Selector, args interface{}) []byte {
	data, err := message.Encode(json.NewContext(), sel, args)
	require.NoError(t, err)

	return data
}

type fakeEnv struct {
	sandbox.Env

	values map[string][]byte
	events []runtime.Event
	err    error
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{values: map[string][]byte{}}
}

func (e *fakeEnv) Get(key []byte) ([]byte, error) {
	return e.values[string(key)], e.err
}

func (e *fakeEnv) Set(key, value []byte) error {
	if e.err != nil {
		return e.err
	}

	e.values[string(key)] = value

	return nil
}

func (e *fakeEnv) Delete(key []byte) error {
	delete(e.values, string(key))
	return e.err
}

func (e *fakeEnv) Emit(topics []runtime.Hash, data []byte) error {
	e.events = append(e.events, runtime.Event{Topics: topics, Data: data})
	return e.err
}

func (e *fakeEnv) Context() serde.Context {
	return json.NewContext()
}

type fakeCmd struct {
	err error
}

func (c fakeCmd) set(sandbox.Env, SetArgs) error {
	return c.err
}

func (c fakeCmd) get(sandbox.Env, string) (*string, error) {
	return nil, c.err
}

func (c fakeCmd) delete(sandbox.Env, string) error {
	return c.err
}

func (c fakeCmd) list(sandbox.Env) ([]string, error) {
	return []string{}, c.err
}
