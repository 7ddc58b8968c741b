package transaction

import "github.com/rocketscienceinc/multisig-tictactoe/internal/sui"

// Wire layouts of the ledger's transaction types. Enums are structs of pointer fields with
// exactly one field set; field order is the variant index.

type transactionDataBCS struct {
	V1 *transactionDataV1BCS
}

func (transactionDataBCS) IsBcsEnum() {}

type transactionDataV1BCS struct {
	Kind       transactionKindBCS
	Sender     sui.Address
	GasData    gasDataBCS
	Expiration expirationBCS
}

type transactionKindBCS struct {
	ProgrammableTransaction *programmableBCS
}

func (transactionKindBCS) IsBcsEnum() {}

type programmableBCS struct {
	Inputs   []callArgBCS
	Commands []commandBCS
}

type gasDataBCS struct {
	Payment []sui.ObjectRefBCS
	Owner   sui.Address
	Price   uint64
	Budget  uint64
}

type expirationBCS struct {
	None  *struct{}
	Epoch *uint64
}

func (expirationBCS) IsBcsEnum() {}

type callArgBCS struct {
	Pure   *[]byte
	Object *objectArgBCS
}

func (callArgBCS) IsBcsEnum() {}

type objectArgBCS struct {
	ImmOrOwnedObject *sui.ObjectRefBCS
	SharedObject     *sharedObjectBCS
}

func (objectArgBCS) IsBcsEnum() {}

type sharedObjectBCS struct {
	ObjectID             sui.ObjectID
	InitialSharedVersion uint64
	Mutable              bool
}

type commandBCS struct {
	MoveCall *moveCallBCS
}

func (commandBCS) IsBcsEnum() {}

type moveCallBCS struct {
	Package       sui.ObjectID
	Module        string
	Function      string
	TypeArguments []typeTagBCS
	Arguments     []argumentBCS
}

// typeTagBCS lists the primitive type tags only; generic calls are never built.
type typeTagBCS struct {
	Bool    *struct{}
	U8      *struct{}
	U64     *struct{}
	U128    *struct{}
	Address *struct{}
	Signer  *struct{}
}

func (typeTagBCS) IsBcsEnum() {}

type argumentBCS struct {
	GasCoin      *struct{}
	Input        *uint16
	Result       *uint16
	NestedResult *nestedResultBCS
}

func (argumentBCS) IsBcsEnum() {}

type nestedResultBCS struct {
	Index    uint16
	SubIndex uint16
}
