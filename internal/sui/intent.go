package sui

// Intent is the domain-separation prefix signed together with every message.
type Intent struct {
	Scope   uint8
	Version uint8
	AppID   uint8
}

// TransactionDataIntent scopes a signature to a transaction payload.
var TransactionDataIntent = Intent{Scope: 0, Version: 0, AppID: 0}

func (that Intent) Bytes() []byte {
	return []byte{that.Scope, that.Version, that.AppID}
}

// Digest is the value that actually gets signed: blake2b256(intent‖msg).
func (that Intent) Digest(msg []byte) [32]byte {
	return Blake2b256(that.Bytes(), msg)
}
