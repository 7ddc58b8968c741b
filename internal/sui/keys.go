package sui

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	jsoniter "github.com/json-iterator/go"
)

// Signature scheme flags prefixed to serialized keys, signatures and address preimages.
const (
	FlagEd25519  byte = 0x00
	FlagMultiSig byte = 0x03
)

// PrivateKeyPrefix is the human readable part of bech32 encoded private keys.
const PrivateKeyPrefix = "suiprivkey"

const serializedSignatureLength = 1 + ed25519.SignatureSize + ed25519.PublicKeySize

var (
	ErrUnsupportedKey   = errors.New("unsupported key")
	ErrInvalidSignature = errors.New("invalid signature encoding")
	ErrKeyNotFound      = errors.New("key not found in keystore")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PublicKey is an ed25519 public key.
type PublicKey struct {
	key ed25519.PublicKey
}

func NewPublicKey(raw []byte) (PublicKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return PublicKey{}, fmt.Errorf("%w: public key is %d bytes", ErrUnsupportedKey, len(raw))
	}

	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, raw)
	return PublicKey{key: key}, nil
}

// ParsePublicKey reads base64 of flag‖key, or of the bare 32-byte key.
func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}

	switch len(raw) {
	case ed25519.PublicKeySize:
		return NewPublicKey(raw)
	case ed25519.PublicKeySize + 1:
		if raw[0] != FlagEd25519 {
			return PublicKey{}, fmt.Errorf("%w: scheme flag %#x", ErrUnsupportedKey, raw[0])
		}
		return NewPublicKey(raw[1:])
	default:
		return PublicKey{}, fmt.Errorf("%w: %d bytes", ErrUnsupportedKey, len(raw))
	}
}

func (that PublicKey) Flag() byte {
	return FlagEd25519
}

func (that PublicKey) Bytes() []byte {
	out := make([]byte, len(that.key))
	copy(out, that.key)
	return out
}

func (that PublicKey) Equal(other PublicKey) bool {
	return that.key.Equal(other.key)
}

// Base64 renders flag‖key, the form other tools print.
func (that PublicKey) Base64() string {
	return base64.StdEncoding.EncodeToString(append([]byte{that.Flag()}, that.key...))
}

func (that PublicKey) String() string {
	return that.Base64()
}

// Address derives the personal account address of the key holder.
func (that PublicKey) Address() Address {
	return Blake2b256([]byte{that.Flag()}, that.key)
}

// Verify checks an ed25519 signature over msg.
func (that PublicKey) Verify(msg, sig []byte) bool {
	if len(that.key) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(that.key, msg, sig)
}

// Signature is a single-key signature together with the signer's public key.
type Signature struct {
	Sig    [ed25519.SignatureSize]byte
	PubKey PublicKey
}

// Serialize renders flag‖sig‖pubkey.
func (that Signature) Serialize() []byte {
	out := make([]byte, 0, serializedSignatureLength)
	out = append(out, FlagEd25519)
	out = append(out, that.Sig[:]...)
	out = append(out, that.PubKey.key...)
	return out
}

func ParseSignature(raw []byte) (Signature, error) {
	if len(raw) != serializedSignatureLength {
		return Signature{}, fmt.Errorf("%w: %d bytes", ErrInvalidSignature, len(raw))
	}
	if raw[0] != FlagEd25519 {
		return Signature{}, fmt.Errorf("%w: scheme flag %#x", ErrInvalidSignature, raw[0])
	}

	pub, err := NewPublicKey(raw[1+ed25519.SignatureSize:])
	if err != nil {
		return Signature{}, err
	}

	sig := Signature{PubKey: pub}
	copy(sig.Sig[:], raw[1:1+ed25519.SignatureSize])
	return sig, nil
}

// Signer produces intent-scoped signatures for one personal identity.
type Signer interface {
	PublicKey() PublicKey
	Address() Address
	SignIntent(intent Intent, msg []byte) Signature
}

// Keypair is an ed25519 private key held locally.
type Keypair struct {
	priv ed25519.PrivateKey
	pub  PublicKey
}

func NewKeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes", ErrUnsupportedKey, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub, err := NewPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}

	return &Keypair{priv: priv, pub: pub}, nil
}

// ParseKeypair reads a bech32 suiprivkey string, base64 of flag‖seed (the keystore entry
// format), or base64 of the bare seed.
func ParseKeypair(s string) (*Keypair, error) {
	if strings.HasPrefix(strings.ToLower(s), PrivateKeyPrefix+"1") {
		return parseBech32Keypair(s)
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}

	if len(raw) == ed25519.SeedSize {
		return NewKeypairFromSeed(raw)
	}
	return keypairFromFlagged(raw)
}

func parseBech32Keypair(s string) (*Keypair, error) {
	hrp, raw, err := bech32.DecodeToBase256(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}
	if hrp != PrivateKeyPrefix {
		return nil, fmt.Errorf("%w: prefix %q", ErrUnsupportedKey, hrp)
	}
	return keypairFromFlagged(raw)
}

func keypairFromFlagged(raw []byte) (*Keypair, error) {
	if len(raw) != ed25519.SeedSize+1 {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnsupportedKey, len(raw))
	}
	if raw[0] != FlagEd25519 {
		return nil, fmt.Errorf("%w: scheme flag %#x", ErrUnsupportedKey, raw[0])
	}
	return NewKeypairFromSeed(raw[1:])
}

func (that *Keypair) PublicKey() PublicKey {
	return that.pub
}

func (that *Keypair) Address() Address {
	return that.pub.Address()
}

// SignIntent signs blake2b256(intent‖msg).
func (that *Keypair) SignIntent(intent Intent, msg []byte) Signature {
	digest := intent.Digest(msg)

	sig := Signature{PubKey: that.pub}
	copy(sig.Sig[:], ed25519.Sign(that.priv, digest[:]))
	return sig
}

// LoadKeystore reads a keystore file: a JSON array of base64 flag‖seed entries. Entries with
// other schemes are skipped.
func LoadKeystore(path string) ([]*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	var entries []string
	if err = json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse keystore: %w", err)
	}

	keys := make([]*Keypair, 0, len(entries))
	for _, entry := range entries {
		kp, err := ParseKeypair(entry)
		if errors.Is(err, ErrUnsupportedKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, kp)
	}

	return keys, nil
}

// FindKey returns the keystore entry for addr.
func FindKey(keys []*Keypair, addr Address) (*Keypair, error) {
	for _, kp := range keys {
		if kp.Address() == addr {
			return kp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, addr)
}
