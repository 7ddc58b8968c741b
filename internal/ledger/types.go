package ledger

import (
	"encoding/base64"
	"strconv"

	"github.com/block-vision/sui-go-sdk/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
	"github.com/rocketscienceinc/multisig-tictactoe/internal/sui"
)

// U64 accepts both JSON numbers and decimal strings; the node renders u64 either way
// depending on the endpoint.
type U64 uint64

func (that *U64) UnmarshalJSON(data []byte) error {
	text := string(data)
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = unquoted
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid u64 %s", string(data))
	}
	*that = U64(v)
	return nil
}

func (that U64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatUint(uint64(that), 10))), nil
}

// ObjectOptions selects which parts of an object the node returns.
type ObjectOptions struct {
	ShowType    bool `json:"showType,omitempty"`
	ShowOwner   bool `json:"showOwner,omitempty"`
	ShowContent bool `json:"showContent,omitempty"`
	ShowBcs     bool `json:"showBcs,omitempty"`
}

func (that ObjectOptions) sdk() models.SuiObjectDataOptions {
	return models.SuiObjectDataOptions{
		ShowType:    that.ShowType,
		ShowOwner:   that.ShowOwner,
		ShowContent: that.ShowContent,
		ShowBcs:     that.ShowBcs,
	}
}

// objectResponse keeps data raw: a missing object comes back as null or as an empty object.
type objectResponse struct {
	Data jsoniter.RawMessage `json:"data"`
}

type ownedObjectsResponse struct {
	Data        []objectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

func decodeObjectData(raw jsoniter.RawMessage) (*ObjectData, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, nil
	}

	var head struct {
		ObjectID string `json:"objectId"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, false, errors.Wrap(err, "failed to decode object")
	}
	if head.ObjectID == "" {
		return nil, false, nil
	}

	var data ObjectData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false, errors.Wrap(err, "failed to decode object")
	}
	return &data, true, nil
}

type ObjectData struct {
	ObjectID sui.ObjectID        `json:"objectId"`
	Version  U64                 `json:"version"`
	Digest   string              `json:"digest"`
	Type     string              `json:"type,omitempty"`
	Owner    jsoniter.RawMessage `json:"owner,omitempty"`
	Content  *ParsedContent      `json:"content,omitempty"`
	Bcs      *RawContent         `json:"bcs,omitempty"`
}

// ParsedContent carries the field map of a Move object.
type ParsedContent struct {
	DataType string              `json:"dataType"`
	Type     string              `json:"type"`
	Fields   jsoniter.RawMessage `json:"fields"`
}

// RawContent carries the BCS bytes of a Move object's contents.
type RawContent struct {
	DataType string `json:"dataType"`
	Type     string `json:"type"`
	BcsBytes string `json:"bcsBytes"`
}

func (that *ObjectData) Ref() (sui.ObjectRef, error) {
	digest, err := sui.ParseDigest(that.Digest)
	if err != nil {
		return sui.ObjectRef{}, errors.Wrapf(err, "object %s", that.ObjectID)
	}
	return sui.ObjectRef{ObjectID: that.ObjectID, Version: uint64(that.Version), Digest: digest}, nil
}

// MoveBytes returns the BCS contents. The object must have been fetched with ShowBcs.
func (that *ObjectData) MoveBytes() ([]byte, error) {
	if that.Bcs == nil {
		return nil, errors.Errorf("object %s: bcs field is empty", that.ObjectID)
	}
	if that.Bcs.DataType != "moveObject" {
		return nil, errors.Errorf("object %s: not a move object (%s)", that.ObjectID, that.Bcs.DataType)
	}
	raw, err := base64.StdEncoding.DecodeString(that.Bcs.BcsBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "object %s: bcs bytes", that.ObjectID)
	}
	return raw, nil
}

// Fields returns the parsed field map. The object must have been fetched with ShowContent.
func (that *ObjectData) Fields() ([]byte, error) {
	if that.Content == nil || that.Content.DataType != "moveObject" {
		return nil, errors.Errorf("object %s: no move object content", that.ObjectID)
	}
	return that.Content.Fields, nil
}

// OwnerInfo decodes the owner. The object must have been fetched with ShowOwner.
func (that *ObjectData) OwnerInfo() (entity.Owner, error) {
	if len(that.Owner) == 0 || string(that.Owner) == "null" {
		return entity.Owner{}, errors.Errorf("object %s: owner is empty", that.ObjectID)
	}
	return ParseOwner(that.Owner)
}

// ParseOwner reads {"AddressOwner": ..}, {"ObjectOwner": ..}, {"Shared": {..}} or "Immutable".
func ParseOwner(raw []byte) (entity.Owner, error) {
	var immutable string
	if err := json.Unmarshal(raw, &immutable); err == nil {
		if immutable == "Immutable" {
			return entity.Owner{Kind: entity.OwnerImmutable}, nil
		}
		return entity.Owner{}, errors.Errorf("unknown owner %q", immutable)
	}

	var tagged struct {
		AddressOwner string `json:"AddressOwner"`
		ObjectOwner  string `json:"ObjectOwner"`
		Shared       *struct {
			InitialSharedVersion U64 `json:"initial_shared_version"`
		} `json:"Shared"`
	}
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return entity.Owner{}, errors.Wrap(err, "failed to decode owner")
	}

	switch {
	case tagged.AddressOwner != "":
		addr, err := sui.ParseAddress(tagged.AddressOwner)
		if err != nil {
			return entity.Owner{}, errors.Wrap(err, "address owner")
		}
		return entity.AddressOwner(addr), nil
	case tagged.ObjectOwner != "":
		addr, err := sui.ParseAddress(tagged.ObjectOwner)
		if err != nil {
			return entity.Owner{}, errors.Wrap(err, "object owner")
		}
		return entity.Owner{Kind: entity.OwnerObject, Address: addr}, nil
	case tagged.Shared != nil && tagged.Shared.InitialSharedVersion > 0:
		return entity.Owner{Kind: entity.OwnerShared, InitialSharedVersion: uint64(tagged.Shared.InitialSharedVersion)}, nil
	default:
		return entity.Owner{}, errors.Errorf("unknown owner %s", string(raw))
	}
}

type ObjectsPage struct {
	Data        []ObjectData
	NextCursor  *string
	HasNextPage bool
}

type TransactionBlockResponseOptions struct {
	ShowEffects       bool `json:"showEffects,omitempty"`
	ShowObjectChanges bool `json:"showObjectChanges,omitempty"`
	ShowEvents        bool `json:"showEvents,omitempty"`
}

type TransactionBlockResponse struct {
	Digest  string              `json:"digest"`
	Effects *TransactionEffects `json:"effects,omitempty"`
	Errors  []string            `json:"errors,omitempty"`
}

type TransactionEffects struct {
	Status  ExecutionStatus  `json:"status"`
	Created []OwnedObjectRef `json:"created,omitempty"`
	Mutated []OwnedObjectRef `json:"mutated,omitempty"`
	Deleted []ObjectRefJSON  `json:"deleted,omitempty"`
}

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (that ExecutionStatus) Succeeded() bool {
	return that.Status == "success"
}

type OwnedObjectRef struct {
	Owner     jsoniter.RawMessage `json:"owner"`
	Reference ObjectRefJSON       `json:"reference"`
}

type ObjectRefJSON struct {
	ObjectID sui.ObjectID `json:"objectId"`
	Version  U64          `json:"version"`
	Digest   string       `json:"digest"`
}

func (that ObjectRefJSON) Ref() (sui.ObjectRef, error) {
	digest, err := sui.ParseDigest(that.Digest)
	if err != nil {
		return sui.ObjectRef{}, errors.Wrapf(err, "object %s", that.ObjectID)
	}
	return sui.ObjectRef{ObjectID: that.ObjectID, Version: uint64(that.Version), Digest: digest}, nil
}
