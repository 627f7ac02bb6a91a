// Package message defines the encoding of contract messages: the selector that
// identifies a constructor or a message, the input made of the selector and
// the arguments, and the result returned by the contract.
//
// A contract returns either [0x00 | value] when the message succeeded, or
// [0x01 | code] when the dispatch of the message failed inside the contract
// language (e.g. the input could not be read). The value and the arguments are
// encoded with a serde context.
//
// Documentation Last Review: 19.10.2026
//
package message

import (
	"encoding/hex"

	"go.dedis.ch/inkconn/serde"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/xerrors"
)

// SelectorSize is the size in bytes of a selector.
const SelectorSize = 4

// Selector is the identifier of a constructor or a message of a contract.
type Selector [SelectorSize]byte

// NewSelector returns the selector of the label, which is the prefix of its
// blake2b-256 digest.
func NewSelector(label string) Selector {
	digest := blake2b.Sum256([]byte(label))

	var sel Selector
	copy(sel[:], digest[:SelectorSize])

	return sel
}

// String implements fmt.Stringer.
func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Unit is the value of messages that do not return anything.
type Unit struct{}

// Encode returns the input of a message, which is the selector followed by the
// arguments encoded with the context. A nil argument produces only the
// selector.
func Encode(ctx serde.Context, sel Selector, args interface{}) ([]byte, error) {
	input := append([]byte{}, sel[:]...)

	if args == nil {
		return input, nil
	}

	data, err := ctx.Marshal(args)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode arguments: %v", err)
	}

	return append(input, data...), nil
}

// Split separates the selector from the encoded arguments of an input.
func Split(input []byte) (Selector, []byte, error) {
	var sel Selector

	if len(input) < SelectorSize {
		return sel, nil, xerrors.Errorf("input too short: %d < %d",
			len(input), SelectorSize)
	}

	copy(sel[:], input)

	return sel, input[SelectorSize:], nil
}

// DecodeArgs populates the arguments with the payload of an input.
func DecodeArgs(ctx serde.Context, payload []byte, args interface{}) error {
	if len(payload) == 0 {
		return xerrors.New("missing arguments")
	}

	err := ctx.Unmarshal(payload, args)
	if err != nil {
		return xerrors.Errorf("failed to decode arguments: %v", err)
	}

	return nil
}
