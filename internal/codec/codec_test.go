package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

func sampleGame() *entity.Game {
	game := &entity.Game{
		ID:      sui.MustParseAddress("0x6a"),
		CurTurn: 3,
		XAddr:   sui.MustParseAddress("0xa"),
		OAddr:   sui.MustParseAddress("0xb"),
		Status:  entity.StatusInProgress,
	}
	game.Board[0] = entity.CellX
	game.Board[4] = entity.CellO
	game.Board[8] = entity.CellX
	return game
}

func sampleMark(placement *uint8) *entity.Mark {
	return &entity.Mark{
		ID:         sui.MustParseAddress("0x3a"),
		Placement:  placement,
		DuringTurn: true,
		GameOwners: sui.MustParseAddress("0x5"),
		GameID:     sui.MustParseAddress("0x6a"),
	}
}

func encodeGame(t *testing.T, game *entity.Game) []byte {
	t.Helper()

	raw, err := EncodeGameBCS(game)
	require.NoError(t, err)
	return raw
}

func encodeMark(t *testing.T, mark *entity.Mark) []byte {
	t.Helper()

	raw, err := EncodeMarkBCS(mark)
	require.NoError(t, err)
	return raw
}

func encodeCoin(t *testing.T, id sui.ObjectID, value uint64) []byte {
	t.Helper()

	raw, err := EncodeGasCoinBCS(id, value)
	require.NoError(t, err)
	return raw
}

func TestGame_RoundTrip(t *testing.T) {
	t.Run("Field map", func(t *testing.T) {
		// Given: a game rendered as a field map
		game := sampleGame()
		raw, err := EncodeGameFields(game)
		require.NoError(t, err)

		// When: decoding it
		decoded, err := DecodeGameFields(raw)

		// Then: every field survives
		require.NoError(t, err)
		assert.Equal(t, game, decoded)
	})

	t.Run("BCS", func(t *testing.T) {
		game := sampleGame()
		game.Status = entity.StatusDraw

		decoded, err := DecodeGameBCS(encodeGame(t, game))

		require.NoError(t, err)
		assert.Equal(t, game, decoded)
	})
}

func TestMark_RoundTrip(t *testing.T) {
	placed := uint8(7)

	for name, mark := range map[string]*entity.Mark{
		"no placement":   sampleMark(nil),
		"with placement": sampleMark(&placed),
	} {
		t.Run(name+" field map", func(t *testing.T) {
			raw, err := EncodeMarkFields(mark)
			require.NoError(t, err)

			decoded, err := DecodeMarkFields(raw)

			require.NoError(t, err)
			assert.Equal(t, mark, decoded)
		})

		t.Run(name+" BCS", func(t *testing.T) {
			decoded, err := DecodeMarkBCS(encodeMark(t, mark))

			require.NoError(t, err)
			assert.Equal(t, mark, decoded)
		})
	}
}

func TestDecodeGameFields_Strict(t *testing.T) {
	const valid = `{
		"id": {"id": "0x6a"},
		"gameboard": [0,0,0,0,0,0,0,0,0],
		"cur_turn": 0,
		"x_addr": "0xa",
		"o_addr": "0xb",
		"finished": 0
	}`

	_, err := DecodeGameFields([]byte(valid))
	require.NoError(t, err)

	cases := map[string]struct {
		raw   string
		field string
	}{
		"missing field": {
			raw:   `{"id":{"id":"0x6a"},"gameboard":[0,0,0,0,0,0,0,0,0],"cur_turn":0,"x_addr":"0xa","finished":0}`,
			field: "o_addr",
		},
		"turn as string": {
			raw:   `{"id":{"id":"0x6a"},"gameboard":[0,0,0,0,0,0,0,0,0],"cur_turn":"1","x_addr":"0xa","o_addr":"0xb","finished":0}`,
			field: "cur_turn",
		},
		"id not a UID": {
			raw:   `{"id":"0x6a","gameboard":[0,0,0,0,0,0,0,0,0],"cur_turn":0,"x_addr":"0xa","o_addr":"0xb","finished":0}`,
			field: "id",
		},
		"short board": {
			raw:   `{"id":{"id":"0x6a"},"gameboard":[0,0,0],"cur_turn":0,"x_addr":"0xa","o_addr":"0xb","finished":0}`,
			field: "gameboard",
		},
		"cell out of range": {
			raw:   `{"id":{"id":"0x6a"},"gameboard":[0,0,0,0,3,0,0,0,0],"cur_turn":0,"x_addr":"0xa","o_addr":"0xb","finished":0}`,
			field: "gameboard[4]",
		},
		"turn overflows u8": {
			raw:   `{"id":{"id":"0x6a"},"gameboard":[0,0,0,0,0,0,0,0,0],"cur_turn":300,"x_addr":"0xa","o_addr":"0xb","finished":0}`,
			field: "cur_turn",
		},
		"address not hex": {
			raw:   `{"id":{"id":"0x6a"},"gameboard":[0,0,0,0,0,0,0,0,0],"cur_turn":0,"x_addr":"nope","o_addr":"0xb","finished":0}`,
			field: "x_addr",
		},
		"unknown status": {
			raw:   `{"id":{"id":"0x6a"},"gameboard":[0,0,0,0,0,0,0,0,0],"cur_turn":0,"x_addr":"0xa","o_addr":"0xb","finished":4}`,
			field: "finished",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeGameFields([]byte(tc.raw))

			require.ErrorIs(t, err, apperror.ErrDecode)
			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			assert.Equal(t, tc.field, fieldErr.Field)
		})
	}
}

func TestDecodeMarkFields_Strict(t *testing.T) {
	t.Run("Placement must be a number or null", func(t *testing.T) {
		raw := `{"id":{"id":"0x3a"},"placement":"4","during_turn":false,"game_owners":"0x5","game_id":"0x6a"}`

		_, err := DecodeMarkFields([]byte(raw))

		require.ErrorIs(t, err, apperror.ErrDecode)
	})

	t.Run("during_turn must be a bool", func(t *testing.T) {
		raw := `{"id":{"id":"0x3a"},"placement":null,"during_turn":0,"game_owners":"0x5","game_id":"0x6a"}`

		_, err := DecodeMarkFields([]byte(raw))

		require.ErrorIs(t, err, apperror.ErrDecode)
	})

	t.Run("Not an object", func(t *testing.T) {
		_, err := DecodeMarkFields([]byte(`[1,2]`))

		require.ErrorIs(t, err, apperror.ErrDecode)
	})
}

func TestEncodeMarkBCS_Layout(t *testing.T) {
	// Given: a mark holding cell 7
	placed := uint8(7)
	mark := sampleMark(&placed)

	// When: encoding it
	raw := encodeMark(t, mark)

	// Then: the option is a one-element vector between the id and the turn flag
	want := append([]byte{}, mark.ID[:]...)
	want = append(want, 0x01, 0x07, 0x01)
	want = append(want, mark.GameOwners[:]...)
	want = append(want, mark.GameID[:]...)
	assert.Equal(t, want, raw)
}

func TestDecodeBCS_Strict(t *testing.T) {
	t.Run("Truncated game", func(t *testing.T) {
		raw := encodeGame(t, sampleGame())

		_, err := DecodeGameBCS(raw[:len(raw)-1])

		require.ErrorIs(t, err, apperror.ErrDecode)
	})

	t.Run("Trailing bytes", func(t *testing.T) {
		_, err := DecodeMarkBCS(append(encodeMark(t, sampleMark(nil)), 0))

		require.ErrorIs(t, err, apperror.ErrDecode)
	})

	t.Run("Invalid option tag", func(t *testing.T) {
		raw := encodeMark(t, sampleMark(nil))
		raw[sui.AddressLength] = 2

		_, err := DecodeMarkBCS(raw)

		require.ErrorIs(t, err, apperror.ErrDecode)
	})
}

func TestGasCoin(t *testing.T) {
	id := sui.MustParseAddress("0xc0")

	value, err := DecodeGasCoinBCS(encodeCoin(t, id, 123456789))
	require.NoError(t, err)
	assert.Equal(t, uint64(123456789), value)

	value, err = DecodeGasCoinFields([]byte(`{"id":{"id":"0xc0"},"balance":"42"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), value)

	_, err = DecodeGasCoinFields([]byte(`{"id":{"id":"0xc0"},"balance":42}`))
	require.ErrorIs(t, err, apperror.ErrDecode)
}

func TestCache(t *testing.T) {
	cache, err := NewCache(8)
	require.NoError(t, err)

	t.Run("Decodes once per version", func(t *testing.T) {
		// Given: a game cached at version 5
		game := sampleGame()
		first, err := cache.Game(game.ID, 5, encodeGame(t, game))
		require.NoError(t, err)

		// When: asking again with unreadable bytes for the same version
		second, err := cache.Game(game.ID, 5, nil)

		// Then: the cached value is returned
		require.NoError(t, err)
		assert.Equal(t, first, second)

		// And: a new version is decoded from its bytes
		_, err = cache.Game(game.ID, 6, nil)
		require.ErrorIs(t, err, apperror.ErrDecode)
	})

	t.Run("Returned marks do not alias the cache", func(t *testing.T) {
		placed := uint8(1)
		mark := sampleMark(&placed)

		first, err := cache.Mark(mark.ID, 1, encodeMark(t, mark))
		require.NoError(t, err)
		*first.Placement = 8

		second, err := cache.Mark(mark.ID, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, uint8(1), *second.Placement)
	})

	t.Run("Gas coins", func(t *testing.T) {
		id := sui.MustParseAddress("0xc1")

		value, err := cache.GasCoin(id, 2, encodeCoin(t, id, 99))
		require.NoError(t, err)
		assert.Equal(t, uint64(99), value)

		value, err = cache.GasCoin(id, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(99), value)
	})
}
