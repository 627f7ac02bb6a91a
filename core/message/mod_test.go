package message

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/inkconn/internal/testing/fake"
	"go.dedis.ch/inkconn/serde"
	"go.dedis.ch/inkconn/serde/json"
)

func TestNewSelector(t *testing.T) {
	sel := NewSelector("flip")
	require.Equal(t, sel, NewSelector("flip"))
	require.NotEqual(t, sel, NewSelector("get"))
	require.Len(t, sel.String(), 2+2*SelectorSize)
}

func TestEncode(t *testing.T) {
	ctx := json.NewContext()
	sel := NewSelector("set")

	input, err := Encode(ctx, sel, map[string]string{"key": "a"})
	require.NoError(t, err)

	got, payload, err := Split(input)
	require.NoError(t, err)
	require.Equal(t, sel, got)

	var args map[string]string
	require.NoError(t, DecodeArgs(ctx, payload, &args))
	require.Equal(t, "a", args["key"])

	input, err = Encode(ctx, sel, nil)
	require.NoError(t, err)
	require.Equal(t, sel[:], input)

	_, err = Encode(serde.NewContext(badEngine{}), sel, 1)
	require.EqualError(t, err, fake.Err("failed to encode arguments"))
}

func TestSplit(t *testing.T) {
	_, _, err := Split([]byte{1, 2})
	require.EqualError(t, err, "input too short: 2 < 4")
}

func TestDecodeArgs(t *testing.T) {
	ctx := json.NewContext()

	var v bool
	err := DecodeArgs(ctx, nil, &v)
	require.EqualError(t, err, "missing arguments")

	err = DecodeArgs(ctx, []byte("{"), &v)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode arguments: couldn't unmarshal: ")
}

func TestResult_Accessors(t *testing.T) {
	ok := Ok(42)
	require.True(t, ok.IsOk())
	require.Equal(t, 42, ok.Value())
	require.Equal(t, "Ok(42)", ok.String())

	v, err := ok.Unwrap()
	require.NoError(t, err)
	require.Equal(t, 42, v)

	_, found := ok.LangErr()
	require.False(t, found)

	failed := Err[int](CouldNotReadInput)
	require.False(t, failed.IsOk())
	require.Equal(t, "Err(could not read input)", failed.String())

	langErr, found := failed.LangErr()
	require.True(t, found)
	require.Equal(t, CouldNotReadInput, langErr)

	_, err = failed.Unwrap()
	require.EqualError(t, err, "could not read input")

	require.Equal(t, "language error 7", LangError(7).Error())
}

func TestDecoder_Decode(t *testing.T) {
	ctx := json.NewContext()
	dec := NewDecoder[uint32](ctx)

	data, err := EncodeOk(ctx, uint32(7))
	require.NoError(t, err)

	res, err := dec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, Ok(uint32(7)), res)

	res, err = dec.Decode(EncodeLangError(CouldNotReadInput))
	require.NoError(t, err)
	require.Equal(t, Err[uint32](CouldNotReadInput), res)

	data, err = EncodeOk(ctx, nil)
	require.NoError(t, err)

	unit, err := NewDecoder[Unit](ctx).Decode(data)
	require.NoError(t, err)
	require.True(t, unit.IsOk())

	_, err = dec.Decode(nil)
	require.EqualError(t, err, "empty return data")

	_, err = dec.Decode([]byte{0x00, '"', 'a', '"'})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode uint32: couldn't unmarshal: ")

	_, err = dec.Decode([]byte{0x01})
	require.EqualError(t, err, "malformed language error of 0 bytes")

	_, err = dec.Decode([]byte{0x05})
	require.EqualError(t, err, "unknown result tag 0x5")

	_, err = EncodeOk(serde.NewContext(badEngine{}), 1)
	require.EqualError(t, err, fake.Err("failed to encode value"))
}

// -----------------------------------------------------------------------------
// Utility functions

type badEngine struct {
	serde.ContextEngine
}

func (badEngine) Marshal(interface{}) ([]byte, error) {
	return nil, fake.GetError()
}
