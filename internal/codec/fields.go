// Package codec turns ledger object contents into domain entities. Both encodings the ledger
// offers are supported: the parsed field map and the raw BCS bytes. Decoding fails closed: a
// missing field or a field of the wrong kind is an error, never a default.
package codec

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FieldError names the field that failed and what was found instead.
type FieldError struct {
	Object string
	Field  string
	Want   string
	Got    string
}

func (that *FieldError) Error() string {
	return fmt.Sprintf("%s: %s.%s: want %s, got %s", apperror.ErrDecode, that.Object, that.Field, that.Want, that.Got)
}

func (that *FieldError) Unwrap() error {
	return apperror.ErrDecode
}

// fieldMap is a parsed struct with numbers kept as their decimal text.
type fieldMap struct {
	object string
	fields map[string]any
}

func parseFields(object string, raw []byte) (*fieldMap, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperror.ErrDecode, object, err)
	}
	if fields == nil {
		return nil, &FieldError{Object: object, Field: "*", Want: "object", Got: "null"}
	}
	return &fieldMap{object: object, fields: fields}, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case stdjson.Number, jsoniter.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "vector"
	case map[string]any:
		return "struct"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func (that *fieldMap) fail(field, want string, got any) error {
	return &FieldError{Object: that.object, Field: field, Want: want, Got: kindOf(got)}
}

func (that *fieldMap) get(field string) (any, error) {
	v, ok := that.fields[field]
	if !ok {
		return nil, &FieldError{Object: that.object, Field: field, Want: "present", Got: "missing"}
	}
	return v, nil
}

func (that *fieldMap) number(field string, v any, bits int) (uint64, error) {
	var text string
	switch n := v.(type) {
	case stdjson.Number:
		text = n.String()
	case jsoniter.Number:
		text = n.String()
	default:
		return 0, that.fail(field, fmt.Sprintf("u%d", bits), v)
	}

	out, err := strconv.ParseUint(text, 10, bits)
	if err != nil {
		return 0, &FieldError{Object: that.object, Field: field, Want: fmt.Sprintf("u%d", bits), Got: text}
	}
	return out, nil
}

func (that *fieldMap) u8(field string) (uint8, error) {
	v, err := that.get(field)
	if err != nil {
		return 0, err
	}
	n, err := that.number(field, v, 8)
	return uint8(n), err
}

// u64 values are rendered as decimal strings to survive JavaScript clients.
func (that *fieldMap) u64(field string) (uint64, error) {
	v, err := that.get(field)
	if err != nil {
		return 0, err
	}
	s, ok := v.(string)
	if !ok {
		return 0, that.fail(field, "u64 string", v)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &FieldError{Object: that.object, Field: field, Want: "u64 string", Got: strconv.Quote(s)}
	}
	return n, nil
}

func (that *fieldMap) boolean(field string) (bool, error) {
	v, err := that.get(field)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, that.fail(field, "bool", v)
	}
	return b, nil
}

func (that *fieldMap) address(field string) (sui.Address, error) {
	v, err := that.get(field)
	if err != nil {
		return sui.Address{}, err
	}
	return that.addressValue(field, v)
}

func (that *fieldMap) addressValue(field string, v any) (sui.Address, error) {
	s, ok := v.(string)
	if !ok {
		return sui.Address{}, that.fail(field, "address", v)
	}
	addr, err := sui.ParseAddress(s)
	if err != nil {
		return sui.Address{}, &FieldError{Object: that.object, Field: field, Want: "address", Got: strconv.Quote(s)}
	}
	return addr, nil
}

// uid reads a UID, which the ledger renders as {"id": "0x.."}.
func (that *fieldMap) uid(field string) (sui.ObjectID, error) {
	v, err := that.get(field)
	if err != nil {
		return sui.ObjectID{}, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return sui.ObjectID{}, that.fail(field, "UID", v)
	}
	inner, ok := m["id"]
	if !ok {
		return sui.ObjectID{}, &FieldError{Object: that.object, Field: field + ".id", Want: "present", Got: "missing"}
	}
	return that.addressValue(field+".id", inner)
}

func (that *fieldMap) bytesVector(field string) ([]byte, error) {
	v, err := that.get(field)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, that.fail(field, "vector<u8>", v)
	}

	out := make([]byte, 0, len(items))
	for i, item := range items {
		n, err := that.number(fmt.Sprintf("%s[%d]", field, i), item, 8)
		if err != nil {
			return nil, err
		}
		out = append(out, uint8(n))
	}
	return out, nil
}

func (that *fieldMap) optionU8(field string) (*uint8, error) {
	v, err := that.get(field)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	n, err := that.number(field, v, 8)
	if err != nil {
		return nil, err
	}
	out := uint8(n)
	return &out, nil
}

// DecodeGameFields decodes the parsed field map of a TicTacToe object.
func DecodeGameFields(raw []byte) (*entity.Game, error) {
	fm, err := parseFields("TicTacToe", raw)
	if err != nil {
		return nil, err
	}

	game := &entity.Game{}
	if game.ID, err = fm.uid("id"); err != nil {
		return nil, err
	}

	board, err := fm.bytesVector("gameboard")
	if err != nil {
		return nil, err
	}
	if err = fillBoard(game, board); err != nil {
		return nil, err
	}

	if game.CurTurn, err = fm.u8("cur_turn"); err != nil {
		return nil, err
	}
	if game.XAddr, err = fm.address("x_addr"); err != nil {
		return nil, err
	}
	if game.OAddr, err = fm.address("o_addr"); err != nil {
		return nil, err
	}

	finished, err := fm.u8("finished")
	if err != nil {
		return nil, err
	}
	if game.Status, err = status(finished); err != nil {
		return nil, err
	}

	return game, nil
}

// DecodeMarkFields decodes the parsed field map of a Mark object.
func DecodeMarkFields(raw []byte) (*entity.Mark, error) {
	fm, err := parseFields("Mark", raw)
	if err != nil {
		return nil, err
	}

	mark := &entity.Mark{}
	if mark.ID, err = fm.uid("id"); err != nil {
		return nil, err
	}
	if mark.Placement, err = fm.optionU8("placement"); err != nil {
		return nil, err
	}
	if mark.Placement != nil && *mark.Placement >= entity.BoardSize {
		return nil, &FieldError{Object: "Mark", Field: "placement", Want: "cell index", Got: strconv.Itoa(int(*mark.Placement))}
	}
	if mark.DuringTurn, err = fm.boolean("during_turn"); err != nil {
		return nil, err
	}
	if mark.GameOwners, err = fm.address("game_owners"); err != nil {
		return nil, err
	}
	if mark.GameID, err = fm.address("game_id"); err != nil {
		return nil, err
	}

	return mark, nil
}

// DecodeGasCoinFields decodes the parsed field map of a Coin<SUI>.
func DecodeGasCoinFields(raw []byte) (uint64, error) {
	fm, err := parseFields("Coin", raw)
	if err != nil {
		return 0, err
	}
	if _, err = fm.uid("id"); err != nil {
		return 0, err
	}
	return fm.u64("balance")
}

// EncodeGameFields renders a game the way the ledger renders its field map.
func EncodeGameFields(game *entity.Game) ([]byte, error) {
	board := make([]int, 0, entity.BoardSize)
	for _, cell := range game.Board {
		board = append(board, int(cell))
	}

	return json.Marshal(map[string]any{
		"id":        map[string]any{"id": game.ID.String()},
		"gameboard": board,
		"cur_turn":  game.CurTurn,
		"x_addr":    game.XAddr.String(),
		"o_addr":    game.OAddr.String(),
		"finished":  uint8(game.Status),
	})
}

func EncodeMarkFields(mark *entity.Mark) ([]byte, error) {
	var placement any
	if mark.Placement != nil {
		placement = *mark.Placement
	}

	return json.Marshal(map[string]any{
		"id":          map[string]any{"id": mark.ID.String()},
		"placement":   placement,
		"during_turn": mark.DuringTurn,
		"game_owners": mark.GameOwners.String(),
		"game_id":     mark.GameID.String(),
	})
}

func fillBoard(game *entity.Game, board []byte) error {
	if len(board) != entity.BoardSize {
		return &FieldError{Object: "TicTacToe", Field: "gameboard", Want: "9 cells", Got: fmt.Sprintf("%d cells", len(board))}
	}
	for i, v := range board {
		if entity.Cell(v) > entity.CellO {
			return &FieldError{Object: "TicTacToe", Field: fmt.Sprintf("gameboard[%d]", i), Want: "cell 0..2", Got: strconv.Itoa(int(v))}
		}
		game.Board[i] = entity.Cell(v)
	}
	return nil
}

func status(finished uint8) (entity.Status, error) {
	s := entity.Status(finished)
	if !s.Valid() {
		return 0, &FieldError{Object: "TicTacToe", Field: "finished", Want: "status 0..3", Got: strconv.Itoa(int(finished))}
	}
	return s, nil
}
