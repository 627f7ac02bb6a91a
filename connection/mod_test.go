package connection

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/inkconn/core/message"
	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/inkconn/internal/testing/fake"
	"go.dedis.ch/inkconn/serde/json"
	"golang.org/x/xerrors"
)

func TestError_Error(t *testing.T) {
	derr := runtime.NewTokenError(runtime.FundsUnavailable)

	require.EqualError(t, NewSessionError(fake.GetError()), fake.Err("session error"))
	require.EqualError(t, NewDecodingError("oops"), "decoding error: oops")
	require.EqualError(t, ErrCodeHashMismatch, "code hash mismatch")
	require.EqualError(t, ErrDeploymentReverted, "deployment reverted")
	require.EqualError(t, NewDeploymentFailed(derr), "deployment failed: Token(FundsUnavailable)")
	require.EqualError(t, ErrCallReverted, "contract call reverted")
	require.EqualError(t, NewCallFailed(derr), "contract call failed: Token(FundsUnavailable)")
	require.EqualError(t, Error{Kind: 20}, "unknown error of kind 20")
}

func TestError_Is(t *testing.T) {
	derr := runtime.NewModuleError("Contracts", "OutOfGas")

	err := xerrors.Errorf("wrapped: %w", NewCallFailed(derr))

	require.True(t, xerrors.Is(err, ErrCallFailed))
	require.False(t, xerrors.Is(err, ErrCallReverted))
	require.False(t, xerrors.Is(err, ErrDeploymentFailed))
	require.False(t, xerrors.Is(ErrSession, fake.GetError()))

	var dispatch runtime.DispatchError
	require.True(t, xerrors.As(err, &dispatch))
	require.Equal(t, derr, dispatch)

	require.Nil(t, ErrCallReverted.Unwrap())
	require.Equal(t, fake.GetError().Error(),
		NewSessionError(fake.GetError()).Unwrap().Error())
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "Session", KindSession.String())
	require.Equal(t, "CallFailed", KindCallFailed.String())
	require.Equal(t, "Kind(42)", Kind(42).String())
}

func TestExec(t *testing.T) {
	conn := newFakeConn([]byte("\x00true"))

	res, err := Exec[bool, string, string](conn, ExecCall[string]{Account: "a"}, newDecoder[bool]())
	require.NoError(t, err)
	require.True(t, res.Result.IsOk())
	require.True(t, res.Result.Value())
	require.Equal(t, conn.res.GasConsumed, res.GasConsumed)
	require.Equal(t, conn.res.GasRequired, res.GasRequired)
	require.Equal(t, conn.res.Events, res.Events)
	require.Equal(t, 1, conn.calls.Len())
	require.Equal(t, "exec", conn.calls.Get(0, 0))

	conn = newFakeConn([]byte{1, 1})

	res, err = Exec[bool, string, string](conn, ExecCall[string]{}, newDecoder[bool]())
	require.NoError(t, err)
	require.False(t, res.Result.IsOk())

	conn = newFakeConn([]byte("\x00\"abc\""))

	_, err = Exec[bool, string, string](conn, ExecCall[string]{}, newDecoder[bool]())
	require.True(t, xerrors.Is(err, ErrDecoding))
	require.Contains(t, err.Error(), "decoding error: failed to decode bool: ")

	conn = newFakeConn(nil)

	_, err = Exec[bool, string, string](conn, ExecCall[string]{}, newDecoder[bool]())
	require.EqualError(t, err, "decoding error: empty return data")

	conn.err = ErrCallReverted

	_, err = Exec[bool, string, string](conn, ExecCall[string]{}, newDecoder[bool]())
	require.Equal(t, ErrCallReverted, err)
}

func TestRead(t *testing.T) {
	conn := newFakeConn([]byte("\x00[\"a\",\"b\"]"))

	res, err := Read[[]string, string, string](conn, ReadCall[string]{}, newDecoder[[]string]())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, res.Result.Value())
	require.Equal(t, "read", conn.calls.Get(0, 0))

	conn.err = NewSessionError(fake.GetError())

	_, err = Read[[]string, string, string](conn, ReadCall[string]{}, newDecoder[[]string]())
	require.EqualError(t, err, fake.Err("session error"))

	conn = newFakeConn([]byte{0x02})

	_, err = Read[[]string, string, string](conn, ReadCall[string]{}, newDecoder[[]string]())
	require.EqualError(t, err, "decoding error: unknown result tag 0x2")
}

func TestSynchronized(t *testing.T) {
	conn := newFakeConn([]byte{0})
	wrapper := NewSynchronized[string, string](conn)

	hash, err := wrapper.UploadCode(UploadCall[string]{Code: []byte{1}})
	require.NoError(t, err)
	require.Equal(t, "hash", hash)

	inst, err := wrapper.Instantiate(InstantiateCall[string, string]{})
	require.NoError(t, err)
	require.Equal(t, "contract", inst.Result)

	_, err = wrapper.Exec(ExecCall[string]{})
	require.NoError(t, err)

	_, err = wrapper.Read(ReadCall[string]{})
	require.NoError(t, err)

	require.Equal(t, 4, conn.calls.Len())
}

func TestSynchronized_Concurrent(t *testing.T) {
	conn := newFakeConn([]byte{0})
	wrapper := NewSynchronized[string, string](conn)

	n := 20

	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := Exec[message.Unit, string, string](wrapper, ExecCall[string]{},
				newDecoder[message.Unit]())
			errs <- err
		}()
	}

	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	require.Equal(t, n, conn.calls.Len())
}

// -----------------------------------------------------------------------------
// Utility functions

func newDecoder[T any]() message.Decoder[T] {
	return message.NewDecoder[T](json.NewContext())
}

// fakeConn is a connection that is not safe for concurrent use: the call
// recorder is not protected.
type fakeConn struct {
	res   ContractResult[[]byte]
	err   error
	calls *fake.Call
}

func newFakeConn(data []byte) *fakeConn {
	return &fakeConn{
		res: ContractResult[[]byte]{
			GasConsumed: runtime.NewWeight(1, 2),
			GasRequired: runtime.NewWeight(3, 4),
			Result:      data,
			Events: []ContractEvent{
				{Name: "A"},
				{Name: "B"},
			},
		},
		calls: &fake.Call{},
	}
}

func (c *fakeConn) UploadCode(call UploadCall[string]) (string, error) {
	c.calls.Add("upload", call)
	return "hash", c.err
}

func (c *fakeConn) Instantiate(
	call InstantiateCall[string, string]) (ContractResult[string], error) {

	c.calls.Add("instantiate", call)

	return ContractResult[string]{Result: "contract"}, c.err
}

func (c *fakeConn) Exec(call ExecCall[string]) (ContractResult[[]byte], error) {
	c.calls.Add("exec", call)
	return c.res, c.err
}

func (c *fakeConn) Read(call ReadCall[string]) (ContractResult[[]byte], error) {
	c.calls.Add("read", call)
	return c.res, c.err
}
