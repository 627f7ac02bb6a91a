// Package ed25519 implements the account keys of the daemon on top of the
// Edwards 25519 elliptic curve.
//
// An account identifier is the digest of the public key of its signer. The
// signatures are created using the Schnorr algorithm.
//
// Related Papers:
//
// Efficient Identification and Signatures for Smart Cards (1989)
// https://link.springer.com/chapter/10.1007/0-387-34805-0_22
//
// Documentation Last Review: 19.10.2026
//
package ed25519

import (
	"bytes"
	"fmt"

	"go.dedis.ch/inkconn/core/runtime"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"go.dedis.ch/kyber/v3/suites"
	"go.dedis.ch/kyber/v3/util/key"
	"golang.org/x/xerrors"
)

var suite = suites.MustFind("Ed25519")

// PublicKey is the public key adapter to the Kyber Ed25519 public key.
type PublicKey struct {
	point kyber.Point
}

// NewPublicKey returns a new public key from the data.
func NewPublicKey(data []byte) (PublicKey, error) {
	point := suite.Point()
	err := point.UnmarshalBinary(data)
	if err != nil {
		return PublicKey{}, xerrors.Errorf("couldn't unmarshal point: %v", err)
	}

	return PublicKey{point: point}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler. It produces a slice of
// bytes representing the public key.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return pk.point.MarshalBinary()
}

// Account returns the account identifier owned by the public key.
func (pk PublicKey) Account() runtime.AccountID {
	buffer, err := pk.point.MarshalBinary()
	if err != nil {
		return runtime.AccountID{}
	}

	return runtime.Blake2{}.AccountFromKey(buffer)
}

// Verify returns nil if the signature matches the message for this public key.
func (pk PublicKey) Verify(msg []byte, sig Signature) error {
	err := schnorr.Verify(suite, pk.point, msg, sig.data)
	if err != nil {
		return xerrors.Errorf("schnorr verify failed: %v", err)
	}

	return nil
}

// Equal returns true if the other public key is the same.
func (pk PublicKey) Equal(other interface{}) bool {
	pubkey, ok := other.(PublicKey)
	if !ok {
		return false
	}

	return pubkey.point.Equal(pk.point)
}

// String implements fmt.Stringer. It returns the account of the public key.
func (pk PublicKey) String() string {
	return fmt.Sprintf("ed25519:%v", pk.Account())
}

// Signature is the adapter of the Kyber Schnorr signature.
type Signature struct {
	data []byte
}

// NewSignature returns a new signature from the data.
func NewSignature(data []byte) Signature {
	return Signature{data: data}
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns a slice of
// bytes representing the signature.
func (sig Signature) MarshalBinary() ([]byte, error) {
	return sig.data, nil
}

// Equal returns true if both signatures are the same.
func (sig Signature) Equal(other Signature) bool {
	return bytes.Equal(sig.data, other.data)
}

// Signer holds the key pair of an account. It creates Schnorr signatures using
// the private key of the Ed25519 elliptic curve.
type Signer struct {
	keyPair *key.Pair
}

// NewSigner returns a new random signer.
func NewSigner() Signer {
	return Signer{keyPair: key.NewKeyPair(suite)}
}

// NewSignerFromBytes returns the signer of the marshaled private key.
func NewSignerFromBytes(data []byte) (Signer, error) {
	scalar := suite.Scalar()

	err := scalar.UnmarshalBinary(data)
	if err != nil {
		return Signer{}, xerrors.Errorf("couldn't unmarshal scalar: %v", err)
	}

	kp := &key.Pair{
		Private: scalar,
		Public:  suite.Point().Mul(scalar, nil),
	}

	return Signer{keyPair: kp}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler. It returns the private
// key of the signer.
func (s Signer) MarshalBinary() ([]byte, error) {
	return s.keyPair.Private.MarshalBinary()
}

// GetPublicKey returns the public key of the signer that can be used to verify
// signatures.
func (s Signer) GetPublicKey() PublicKey {
	return PublicKey{point: s.keyPair.Public}
}

// Account returns the account identifier of the signer.
func (s Signer) Account() runtime.AccountID {
	return s.GetPublicKey().Account()
}

// Sign signs the message in parameter and returns the signature, or an error
// if it cannot sign.
func (s Signer) Sign(msg []byte) (Signature, error) {
	sig, err := schnorr.Sign(suite, s.keyPair.Private, msg)
	if err != nil {
		return Signature{}, xerrors.Errorf("couldn't make schnorr signature: %v", err)
	}

	return Signature{data: sig}, nil
}

// Generator creates and marshals new signers for a key loader.
//
// - implements loader.Generator
type Generator struct {
	newFn func() Signer
}

// NewGenerator returns a generator of random signers.
func NewGenerator() Generator {
	return Generator{newFn: NewSigner}
}

// Generate implements loader.Generator. It returns the private key of a new
// signer.
func (g Generator) Generate() ([]byte, error) {
	signer := g.newFn()

	data, err := signer.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal signer: %v", err)
	}

	return data, nil
}
