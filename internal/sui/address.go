// Package sui holds the ledger's primitive types: addresses, object references, digests,
// ed25519 keys and the multisig public key that derives the shared game account.
package sui

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	AddressLength = 32
	DigestLength  = 32
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidDigest  = errors.New("invalid digest")
)

// Address is a 32-byte account or object identifier.
type Address [AddressLength]byte

// ObjectID shares the address space.
type ObjectID = Address

// ParseAddress accepts 0x-prefixed or bare hex and left-pads short forms such as "0x2".
func ParseAddress(s string) (Address, error) {
	var addr Address

	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" || len(trimmed) > AddressLength*2 {
		return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if len(trimmed)%2 == 1 {
		trimmed = "0" + trimmed
	}

	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}

	copy(addr[AddressLength-len(raw):], raw)
	return addr, nil
}

func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func (that Address) String() string {
	return "0x" + hex.EncodeToString(that[:])
}

func (that Address) IsZero() bool {
	return that == Address{}
}

func (that Address) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*that = addr
	return nil
}

// Digest is a blake2b-256 hash shown as base58.
type Digest [DigestLength]byte

func ParseDigest(s string) (Digest, error) {
	var d Digest

	raw, err := base58.Decode(s)
	if err != nil {
		return d, fmt.Errorf("%w: %q: %v", ErrInvalidDigest, s, err)
	}
	if len(raw) != DigestLength {
		return d, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidDigest, s, len(raw))
	}

	copy(d[:], raw)
	return d, nil
}

func (that Digest) String() string {
	return base58.Encode(that[:])
}

// ObjectRef pins an object at a version; owned-object inputs and gas payment use it.
type ObjectRef struct {
	ObjectID ObjectID
	Version  uint64
	Digest   Digest
}

func (that ObjectRef) String() string {
	return fmt.Sprintf("(%s, %d, %s)", that.ObjectID, that.Version, that.Digest)
}

// BCS returns the wire form of the reference.
func (that ObjectRef) BCS() ObjectRefBCS {
	return ObjectRefBCS{ObjectID: that.ObjectID, Version: that.Version, Digest: append([]byte(nil), that.Digest[:]...)}
}

// ObjectRefBCS is the serialized layout of ObjectRef. The digest travels as a length-prefixed
// vector, not a fixed array.
type ObjectRefBCS struct {
	ObjectID ObjectID
	Version  uint64
	Digest   []byte
}

func (that ObjectRefBCS) Ref() (ObjectRef, error) {
	if len(that.Digest) != DigestLength {
		return ObjectRef{}, fmt.Errorf("%w: %d bytes", ErrInvalidDigest, len(that.Digest))
	}

	ref := ObjectRef{ObjectID: that.ObjectID, Version: that.Version}
	copy(ref.Digest[:], that.Digest)
	return ref, nil
}

// StructTag names a Move struct type, e.g. 0x2::coin::Coin<0x2::sui::SUI>.
type StructTag struct {
	Address    Address
	Module     string
	Name       string
	TypeParams []string
}

func (that StructTag) String() string {
	s := fmt.Sprintf("%s::%s::%s", that.Address, that.Module, that.Name)
	if len(that.TypeParams) > 0 {
		s += "<" + strings.Join(that.TypeParams, ", ") + ">"
	}
	return s
}

// Matches reports whether a type string returned by the ledger names this struct. Ledger
// responses may use the short address form for framework packages.
func (that StructTag) Matches(typeName string) bool {
	parts := strings.SplitN(typeName, "::", 3)
	if len(parts) != 3 {
		return false
	}

	addr, err := ParseAddress(parts[0])
	if err != nil || addr != that.Address || parts[1] != that.Module {
		return false
	}

	name := parts[2]
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	return name == that.Name
}

// GasCoinType is the fee coin every payer holds.
const GasCoinType = "0x2::coin::Coin<0x2::sui::SUI>"

// Blake2b256 hashes the concatenation of parts.
func Blake2b256(parts ...[]byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only fails for oversized keys
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
