package message

import (
	"fmt"

	"go.dedis.ch/inkconn/serde"
	"golang.org/x/xerrors"
)

const (
	tagOk  byte = 0x00
	tagErr byte = 0x01
)

// LangError is an error that happened in the contract language while
// dispatching a message, before the message itself was executed. It is part
// of a successful return and differs from a revert.
type LangError uint8

const (
	// CouldNotReadInput is returned when the input of the message could not
	// be decoded by the contract.
	CouldNotReadInput LangError = 1
)

// Error implements error.
func (e LangError) Error() string {
	switch e {
	case CouldNotReadInput:
		return "could not read input"
	default:
		return fmt.Sprintf("language error %d", uint8(e))
	}
}

// Result is the decoded outcome of a contract message. It is either a value
// of type T, or a language error.
type Result[T any] struct {
	value   T
	langErr *LangError
}

// Ok returns a successful result.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err returns a result with a language error.
func Err[T any](e LangError) Result[T] {
	return Result[T]{langErr: &e}
}

// IsOk returns true if the message returned a value.
func (r Result[T]) IsOk() bool {
	return r.langErr == nil
}

// Value returns the value of the result. It is the zero value when the result
// holds a language error.
func (r Result[T]) Value() T {
	return r.value
}

// LangErr returns the language error if any.
func (r Result[T]) LangErr() (LangError, bool) {
	if r.langErr == nil {
		return 0, false
	}

	return *r.langErr, true
}

// Unwrap returns the value, or the language error.
func (r Result[T]) Unwrap() (T, error) {
	if r.langErr != nil {
		var zero T
		return zero, *r.langErr
	}

	return r.value, nil
}

// String implements fmt.Stringer.
func (r Result[T]) String() string {
	if r.langErr != nil {
		return fmt.Sprintf("Err(%v)", *r.langErr)
	}

	return fmt.Sprintf("Ok(%v)", r.value)
}

// EncodeOk returns the return data of a successful message. A nil value only
// produces the tag.
func EncodeOk(ctx serde.Context, value interface{}) ([]byte, error) {
	if value == nil {
		return []byte{tagOk}, nil
	}

	data, err := ctx.Marshal(value)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode value: %v", err)
	}

	return append([]byte{tagOk}, data...), nil
}

// EncodeLangError returns the return data of a message that failed in the
// contract language.
func EncodeLangError(e LangError) []byte {
	return []byte{tagErr, byte(e)}
}

// Decoder decodes the return data of a message into a result.
type Decoder[T any] interface {
	Decode(data []byte) (Result[T], error)
}

// ctxDecoder is a decoder using a serde context to unmarshal the value.
//
// - implements message.Decoder
type ctxDecoder[T any] struct {
	ctx serde.Context
}

// NewDecoder returns a decoder that unmarshals the value with the context.
func NewDecoder[T any](ctx serde.Context) Decoder[T] {
	return ctxDecoder[T]{ctx: ctx}
}

// Decode implements message.Decoder. An empty value decodes to the zero value
// of T.
func (d ctxDecoder[T]) Decode(data []byte) (Result[T], error) {
	if len(data) == 0 {
		return Result[T]{}, xerrors.New("empty return data")
	}

	switch data[0] {
	case tagOk:
		var value T

		if len(data) > 1 {
			err := d.ctx.Unmarshal(data[1:], &value)
			if err != nil {
				return Result[T]{}, xerrors.Errorf("failed to decode %T: %v", value, err)
			}
		}

		return Ok(value), nil
	case tagErr:
		if len(data) != 2 {
			return Result[T]{}, xerrors.Errorf("malformed language error of %d bytes",
				len(data)-1)
		}

		return Err[T](LangError(data[1])), nil
	default:
		return Result[T]{}, xerrors.Errorf("unknown result tag %#x", data[0])
	}
}
