package application

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/config"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

var ErrNoPrivateKey = errors.New("no private key configured")

// loadSigner resolves the local key from an inline private key or from the keystore. With no
// address configured the keystore must hold exactly one usable key.
func loadSigner(conf config.Player) (*sui.Keypair, error) {
	if conf.PrivateKey != "" {
		kp, err := sui.ParseKeypair(conf.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return kp, nil
	}

	if conf.KeystorePath == "" {
		return nil, ErrNoPrivateKey
	}

	keys, err := sui.LoadKeystore(conf.KeystorePath)
	if err != nil {
		return nil, err
	}

	if conf.Address == "" {
		if len(keys) != 1 {
			return nil, fmt.Errorf("%w: keystore holds %d keys, set the player address", ErrNoPrivateKey, len(keys))
		}
		return keys[0], nil
	}

	addr, err := sui.ParseAddress(conf.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse player address: %w", err)
	}
	return sui.FindKey(keys, addr)
}

// buildDescriptor orders the keys X first, O second, with weights (1, 1) and threshold 1, so
// both players derive the same shared address.
func buildDescriptor(side entity.Side, me, opponent sui.PublicKey) (*sui.MultiSigPublicKey, error) {
	keys := []sui.PublicKey{me, opponent}
	if side == entity.SideO {
		keys = []sui.PublicKey{opponent, me}
	}
	return sui.NewMultiSigPublicKey(keys, []uint8{1, 1}, 1)
}
