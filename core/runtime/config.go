package runtime

import (
	"encoding/binary"
	"io"

	"golang.org/x/crypto/blake2b"
)

// Config is the runtime configuration a connection is parameterized with. A is
// the account identifier type and H the hash type of the runtime.
type Config[A comparable, H comparable] interface {
	// HashCode returns the code hash of the code as computed by the runtime.
	HashCode(code []byte) H

	// DeriveContract returns the address of the contract instantiated by the
	// deployer.
	DeriveContract(deployer A, codeHash H, input, salt []byte) A

	// AccountFromKey returns the account identifier of a public key.
	AccountFromKey(pubkey []byte) A
}

var contractAddrPrefix = []byte("contract_addr_v1")

// Blake2 is the default runtime configuration.
//
// - implements runtime.Config
type Blake2 struct{}

// HashCode implements runtime.Config. It returns the blake2b-256 digest of the
// code.
func (Blake2) HashCode(code []byte) Hash {
	return blake2b.Sum256(code)
}

// DeriveContract implements runtime.Config. The address is the digest of the
// deployer, the code hash, the constructor input and the salt. Input and salt
// are length-prefixed so that their boundary is part of the digest.
func (Blake2) DeriveContract(deployer AccountID, codeHash Hash, input, salt []byte) AccountID {
	h, _ := blake2b.New256(nil)
	h.Write(contractAddrPrefix)
	h.Write(deployer[:])
	h.Write(codeHash[:])
	writeFramed(h, input)
	writeFramed(h, salt)

	var addr AccountID
	copy(addr[:], h.Sum(nil))

	return addr
}

// AccountFromKey implements runtime.Config. It returns the blake2b-256 digest
// of the public key.
func (Blake2) AccountFromKey(pubkey []byte) AccountID {
	return blake2b.Sum256(pubkey)
}

// Topic returns the topic of an arbitrary value. Values shorter than a hash
// are used as is, longer values are hashed.
func (Blake2) Topic(value []byte) Hash {
	var topic Hash

	if len(value) <= Size {
		copy(topic[:], value)
		return topic
	}

	return blake2b.Sum256(value)
}

// writeFramed writes the length of the value as a little-endian uint32
// followed by the value.
func writeFramed(w io.Writer, value []byte) {
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(value)))

	w.Write(size[:])
	w.Write(value)
}
