// Package runtime defines the primitives of the runtime configuration that a
// contract connection is parameterized with: account identifiers, hashes,
// weights, dispatch errors and events.
//
// The Config interface is the minimal capability set a connection needs from a
// runtime. The Blake2 implementation follows the conventions of the Substrate
// contracts pallet, where code hashes and contract addresses are derived with
// blake2b-256.
//
// Documentation Last Review: 19.10.2026
//
package runtime

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

// Size is the size in bytes of account identifiers and hashes.
const Size = 32

// Balance is an amount of native tokens.
type Balance uint64

// AccountID is the identifier of an account, which can be a user or a
// contract.
type AccountID [Size]byte

// String implements fmt.Stringer. It returns the hexadecimal representation of
// the identifier.
func (id AccountID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero returns true if the identifier is the zero value.
func (id AccountID) IsZero() bool {
	return id == AccountID{}
}

// ParseAccountID returns the account identifier from its hexadecimal
// representation. An optional 0x prefix is accepted.
func ParseAccountID(str string) (AccountID, error) {
	var id AccountID

	err := parseHex(str, id[:])
	if err != nil {
		return id, xerrors.Errorf("invalid account: %v", err)
	}

	return id, nil
}

// Hash is a digest produced by the runtime, like a code hash or an event
// topic.
type Hash [Size]byte

// String implements fmt.Stringer. It returns the hexadecimal representation of
// the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash returns the hash from its hexadecimal representation. An optional
// 0x prefix is accepted.
func ParseHash(str string) (Hash, error) {
	var h Hash

	err := parseHex(str, h[:])
	if err != nil {
		return h, xerrors.Errorf("invalid hash: %v", err)
	}

	return h, nil
}

func parseHex(str string, out []byte) error {
	data, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil {
		return xerrors.Errorf("decode: %v", err)
	}

	if len(data) != len(out) {
		return xerrors.Errorf("expected %d bytes but got %d", len(out), len(data))
	}

	copy(out, data)

	return nil
}

// Event is an event deposited by the runtime during the execution of a call,
// either by the contracts module itself or by a contract.
type Event struct {
	// Module is the name of the runtime module that deposited the event.
	Module string

	// Name is the name of the event in the module.
	Name string

	// Emitter is the contract account that emitted the event, if any.
	Emitter AccountID

	// Topics is the list of indexed topics of the event.
	Topics []Hash

	// Data is the encoded payload of the event.
	Data []byte
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("%s::%s(emitter=%v, topics=%d, data=%#x)",
		e.Module, e.Name, e.Emitter, len(e.Topics), e.Data)
}
