package icx

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// TxVersion is the only transaction version ICON accepts.
const TxVersion = "0x3"

// DataType of a transaction payload.
type DataType string

// Data types.
const (
	DataTypeNone    DataType = ""
	DataTypeCall    DataType = "call"
	DataTypeMessage DataType = "message"
	DataTypeDeploy  DataType = "deploy"
)

// Signer signs transaction hashes for one address.
type Signer interface {
	Address() string
	Sign(hash []byte) ([]byte, error)
}

// CallData is the payload of a call transaction.
type CallData struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// Transaction is an unsigned or signed icx_sendTransaction request.
type Transaction struct {
	From      string
	To        string
	Value     *big.Int // nil omits the field
	StepLimit *big.Int
	NID       int64
	Nonce     *big.Int
	Timestamp int64 // microseconds since epoch
	DataType  DataType
	Data      any // CallData for calls, string for messages
	Signature string
}

// NewTransfer builds a plain ICX transfer.
func NewTransfer(to string, value *big.Int, nid int64) *Transaction {
	return &Transaction{To: to, Value: value, NID: nid}
}

// NewCall builds a contract call. value may be nil.
func NewCall(to, method string, params map[string]any, value *big.Int, nid int64) *Transaction {
	return &Transaction{
		To:       to,
		Value:    value,
		NID:      nid,
		DataType: DataTypeCall,
		Data:     CallData{Method: method, Params: params},
	}
}

// NewMessage builds a transfer carrying a UTF-8 message.
func NewMessage(to, message string, value *big.Int, nid int64) *Transaction {
	return &Transaction{
		To:       to,
		Value:    value,
		NID:      nid,
		DataType: DataTypeMessage,
		Data:     "0x" + hex.EncodeToString([]byte(message)),
	}
}

// Params returns the JSON-RPC params object. Nested values are
// normalized to maps, slices and strings.
func (tx *Transaction) Params() (map[string]any, error) {
	p := map[string]any{
		"version":   TxVersion,
		"from":      tx.From,
		"to":        tx.To,
		"nid":       IntToHex(tx.NID),
		"timestamp": IntToHex(tx.Timestamp),
	}
	if tx.Value != nil {
		p["value"] = BigToHex(tx.Value)
	}
	if tx.StepLimit != nil {
		p["stepLimit"] = BigToHex(tx.StepLimit)
	}
	if tx.Nonce != nil {
		p["nonce"] = BigToHex(tx.Nonce)
	}
	if tx.DataType != DataTypeNone {
		p["dataType"] = string(tx.DataType)
		data, err := normalize(tx.Data)
		if err != nil {
			return nil, fmt.Errorf("encoding transaction data: %w", err)
		}
		p["data"] = data
	}
	if tx.Signature != "" {
		p["signature"] = tx.Signature
	}
	return p, nil
}

// Hash returns SHA3-256 over the serialized transaction, which is what
// gets signed and what the node reports as the transaction hash.
func (tx *Transaction) Hash() ([]byte, error) {
	p, err := tx.Params()
	if err != nil {
		return nil, err
	}
	delete(p, "signature")
	sum := sha3.Sum256([]byte("icx_sendTransaction." + Serialize(p)))
	return sum[:], nil
}

// HashHex returns Hash as 0x-prefixed hex.
func (tx *Transaction) HashHex() (string, error) {
	h, err := tx.Hash()
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(h), nil
}

// Sign sets From to the signer's address and attaches the signature.
func (tx *Transaction) Sign(s Signer) error {
	tx.From = s.Address()
	tx.Signature = ""
	h, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := s.Sign(h)
	if err != nil {
		return err
	}
	tx.Signature = base64.StdEncoding.EncodeToString(sig)
	return nil
}

// normalize round-trips v through JSON so the serializer only ever sees
// maps, slices, strings, numbers, bools and nil.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
