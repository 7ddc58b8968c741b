package sui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fardream/go-bcs/bcs"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
)

const maxMultiSigKeys = 10

// compressedSignature and publicKeyBCS are enums; only the ed25519 variant is produced or
// understood.
type compressedSignature struct {
	Ed25519 *[64]byte
}

func (compressedSignature) IsBcsEnum() {}

type publicKeyBCS struct {
	Ed25519 *[32]byte
}

func (publicKeyBCS) IsBcsEnum() {}

type weightedKeyBCS struct {
	PublicKey publicKeyBCS
	Weight    uint8
}

type multiSigPublicKeyBCS struct {
	PkMap     []weightedKeyBCS
	Threshold uint16
}

type multiSigBCS struct {
	Sigs       []compressedSignature
	Bitmap     uint16
	MultiSigPK multiSigPublicKeyBCS
}

// WeightedKey is one member of a multisig descriptor.
type WeightedKey struct {
	Key    PublicKey
	Weight uint8
}

// MultiSigPublicKey is the descriptor the shared address is derived from. Key order matters:
// reordering keys produces a different address.
type MultiSigPublicKey struct {
	keys      []WeightedKey
	threshold uint16
}

func NewMultiSigPublicKey(keys []PublicKey, weights []uint8, threshold uint16) (*MultiSigPublicKey, error) {
	if len(keys) != len(weights) {
		return nil, fmt.Errorf("%w: %d keys but %d weights", apperror.ErrInvalidDescriptor, len(keys), len(weights))
	}
	if len(keys) == 0 || len(keys) > maxMultiSigKeys {
		return nil, fmt.Errorf("%w: %d keys", apperror.ErrInvalidDescriptor, len(keys))
	}
	if threshold == 0 {
		return nil, fmt.Errorf("%w: zero threshold", apperror.ErrInvalidDescriptor)
	}

	var total uint32
	entries := make([]WeightedKey, 0, len(keys))
	for i, key := range keys {
		if weights[i] == 0 {
			return nil, fmt.Errorf("%w: key %d has zero weight", apperror.ErrInvalidDescriptor, i)
		}
		for _, prev := range entries {
			if prev.Key.Equal(key) {
				return nil, fmt.Errorf("%w: duplicate key %s", apperror.ErrInvalidDescriptor, key)
			}
		}
		total += uint32(weights[i])
		entries = append(entries, WeightedKey{Key: key, Weight: weights[i]})
	}

	if total < uint32(threshold) {
		return nil, fmt.Errorf("%w: total weight %d below threshold %d", apperror.ErrInvalidDescriptor, total, threshold)
	}

	return &MultiSigPublicKey{keys: entries, threshold: threshold}, nil
}

func (that *MultiSigPublicKey) Keys() []WeightedKey {
	out := make([]WeightedKey, len(that.keys))
	copy(out, that.keys)
	return out
}

func (that *MultiSigPublicKey) Threshold() uint16 {
	return that.threshold
}

// IndexOf returns the position of key in the descriptor, or -1.
func (that *MultiSigPublicKey) IndexOf(key PublicKey) int {
	for i, entry := range that.keys {
		if entry.Key.Equal(key) {
			return i
		}
	}
	return -1
}

// Address derives the shared account address.
func (that *MultiSigPublicKey) Address() Address {
	parts := [][]byte{{FlagMultiSig}, {byte(that.threshold), byte(that.threshold >> 8)}}
	for _, entry := range that.keys {
		parts = append(parts, []byte{entry.Key.Flag()}, entry.Key.key, []byte{entry.Weight})
	}
	return Blake2b256(parts...)
}

func (that *MultiSigPublicKey) bcs() multiSigPublicKeyBCS {
	wire := multiSigPublicKeyBCS{Threshold: that.threshold, PkMap: make([]weightedKeyBCS, 0, len(that.keys))}
	for _, entry := range that.keys {
		var key [32]byte
		copy(key[:], entry.Key.key)
		wire.PkMap = append(wire.PkMap, weightedKeyBCS{PublicKey: publicKeyBCS{Ed25519: &key}, Weight: entry.Weight})
	}
	return wire
}

func (that *MultiSigPublicKey) String() string {
	members := make([]string, 0, len(that.keys))
	for _, entry := range that.keys {
		members = append(members, fmt.Sprintf("%s:%d", entry.Key, entry.Weight))
	}
	return fmt.Sprintf("multisig{%s threshold=%d}", strings.Join(members, " "), that.threshold)
}

// MultiSig is a combined signature authorizing the shared address.
type MultiSig struct {
	Sigs      [][64]byte
	Bitmap    uint16
	PublicKey *MultiSigPublicKey
}

// Combine builds a multisig from member signatures over the same intent digest. Every
// signature is verified, must belong to a distinct member, and together they must reach the
// threshold.
func Combine(sigs []Signature, pk *MultiSigPublicKey, digest [32]byte) (*MultiSig, error) {
	if pk == nil {
		return nil, fmt.Errorf("%w: missing descriptor", apperror.ErrMultisigCombine)
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%w: no signatures", apperror.ErrMultisigCombine)
	}

	type indexed struct {
		index int
		sig   [64]byte
	}

	var (
		bitmap uint16
		weight uint32
		picked = make([]indexed, 0, len(sigs))
	)
	for _, sig := range sigs {
		idx := pk.IndexOf(sig.PubKey)
		if idx < 0 {
			return nil, fmt.Errorf("%w: signer %s is not a member", apperror.ErrMultisigCombine, sig.PubKey)
		}
		if bitmap&(1<<idx) != 0 {
			return nil, fmt.Errorf("%w: duplicate signature from member %d", apperror.ErrMultisigCombine, idx)
		}
		if !sig.PubKey.Verify(digest[:], sig.Sig[:]) {
			return nil, fmt.Errorf("%w: signature from member %d does not verify", apperror.ErrMultisigCombine, idx)
		}

		bitmap |= 1 << idx
		weight += uint32(pk.keys[idx].Weight)
		picked = append(picked, indexed{index: idx, sig: sig.Sig})
	}

	if weight < uint32(pk.threshold) {
		return nil, fmt.Errorf("%w: weight %d below threshold %d", apperror.ErrMultisigCombine, weight, pk.threshold)
	}

	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })

	ms := &MultiSig{Bitmap: bitmap, PublicKey: pk}
	for _, p := range picked {
		ms.Sigs = append(ms.Sigs, p.sig)
	}
	return ms, nil
}

// Verify checks the combined signature against the intent digest it claims to cover.
func (that *MultiSig) Verify(digest [32]byte) error {
	if that.PublicKey == nil {
		return fmt.Errorf("%w: missing descriptor", apperror.ErrMultisigCombine)
	}

	var (
		weight uint32
		next   int
	)
	for i, entry := range that.PublicKey.keys {
		if that.Bitmap&(1<<i) == 0 {
			continue
		}
		if next >= len(that.Sigs) {
			return fmt.Errorf("%w: bitmap names more members than signatures", apperror.ErrMultisigCombine)
		}
		if !entry.Key.Verify(digest[:], that.Sigs[next][:]) {
			return fmt.Errorf("%w: signature from member %d does not verify", apperror.ErrMultisigCombine, i)
		}
		weight += uint32(entry.Weight)
		next++
	}

	if next != len(that.Sigs) {
		return fmt.Errorf("%w: %d signatures for %d bitmap members", apperror.ErrMultisigCombine, len(that.Sigs), next)
	}
	if weight < uint32(that.PublicKey.threshold) {
		return fmt.Errorf("%w: weight %d below threshold %d", apperror.ErrMultisigCombine, weight, that.PublicKey.threshold)
	}
	return nil
}

// Serialize renders 0x03‖bcs(sigs, bitmap, descriptor).
func (that *MultiSig) Serialize() ([]byte, error) {
	if that.PublicKey == nil {
		return nil, fmt.Errorf("%w: missing descriptor", apperror.ErrMultisigCombine)
	}

	wire := multiSigBCS{Bitmap: that.Bitmap, MultiSigPK: that.PublicKey.bcs()}
	for i := range that.Sigs {
		sig := that.Sigs[i]
		wire.Sigs = append(wire.Sigs, compressedSignature{Ed25519: &sig})
	}

	raw, err := bcs.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode multisig: %w", err)
	}
	return append([]byte{FlagMultiSig}, raw...), nil
}

// ParseMultiSig reads a serialized multisig. Only ed25519 members are understood.
func ParseMultiSig(raw []byte) (*MultiSig, error) {
	if len(raw) == 0 || raw[0] != FlagMultiSig {
		return nil, fmt.Errorf("%w: not a multisig", ErrInvalidSignature)
	}

	var wire multiSigBCS
	n, err := bcs.Unmarshal(raw[1:], &wire)
	if err != nil {
		return nil, fmt.Errorf("failed to decode multisig: %w", err)
	}
	if n != len(raw)-1 {
		return nil, fmt.Errorf("failed to decode multisig: %w: %d trailing bytes", ErrInvalidSignature, len(raw)-1-n)
	}

	ms := &MultiSig{Bitmap: wire.Bitmap}
	for i, sig := range wire.Sigs {
		if sig.Ed25519 == nil {
			return nil, fmt.Errorf("%w: signature %d is not ed25519", ErrUnsupportedKey, i)
		}
		ms.Sigs = append(ms.Sigs, *sig.Ed25519)
	}

	keys := make([]PublicKey, 0, len(wire.MultiSigPK.PkMap))
	weights := make([]uint8, 0, len(wire.MultiSigPK.PkMap))
	for i, entry := range wire.MultiSigPK.PkMap {
		if entry.PublicKey.Ed25519 == nil {
			return nil, fmt.Errorf("%w: key %d is not ed25519", ErrUnsupportedKey, i)
		}
		key, err := NewPublicKey(entry.PublicKey.Ed25519[:])
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		weights = append(weights, entry.Weight)
	}

	pk, err := NewMultiSigPublicKey(keys, weights, wire.MultiSigPK.Threshold)
	if err != nil {
		return nil, err
	}
	ms.PublicKey = pk
	return ms, nil
}
