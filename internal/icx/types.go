package icx

import "encoding/json"

// Block is a block as returned by icx_getLastBlock.
type Block struct {
	Version      string            `json:"version"`
	Height       int64             `json:"height"`
	Hash         string            `json:"block_hash"`
	PrevHash     string            `json:"prev_block_hash"`
	MerkleRoot   string            `json:"merkle_tree_root_hash"`
	Timestamp    int64             `json:"time_stamp"` // microseconds
	PeerID       string            `json:"peer_id"`
	Signature    string            `json:"signature"`
	Transactions []json.RawMessage `json:"confirmed_transaction_list"`
}

// TransactionInfo is a transaction as returned by icx_getTransactionByHash.
type TransactionInfo struct {
	Version     string          `json:"version"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Value       string          `json:"value,omitempty"`
	StepLimit   string          `json:"stepLimit"`
	Timestamp   string          `json:"timestamp"`
	NID         string          `json:"nid"`
	Nonce       string          `json:"nonce,omitempty"`
	Hash        string          `json:"txHash"`
	TxIndex     string          `json:"txIndex"`
	BlockHeight string          `json:"blockHeight"`
	BlockHash   string          `json:"blockHash"`
	Signature   string          `json:"signature"`
	DataType    string          `json:"dataType,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// TransactionResult is the outcome of an executed transaction.
type TransactionResult struct {
	Status             string     `json:"status"`
	To                 string     `json:"to"`
	Hash               string     `json:"txHash"`
	TxIndex            string     `json:"txIndex"`
	BlockHeight        string     `json:"blockHeight"`
	BlockHash          string     `json:"blockHash"`
	CumulativeStepUsed string     `json:"cumulativeStepUsed"`
	StepUsed           string     `json:"stepUsed"`
	StepPrice          string     `json:"stepPrice"`
	ScoreAddress       string     `json:"scoreAddress,omitempty"`
	EventLogs          []EventLog `json:"eventLogs"`
	LogsBloom          string     `json:"logsBloom"`
	Failure            *Failure   `json:"failure,omitempty"`
}

// Success reports whether the transaction executed without failure.
func (r *TransactionResult) Success() bool { return r.Status == "0x1" }

// Failure explains a failed transaction.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EventLog is one event emitted during execution.
type EventLog struct {
	ScoreAddress string    `json:"scoreAddress"`
	Indexed      []*string `json:"indexed"`
	Data         []*string `json:"data"`
}

// ScoreAPI describes one entry of a contract's external API.
type ScoreAPI struct {
	Type     string     `json:"type"`
	Name     string     `json:"name"`
	Inputs   []ScoreArg `json:"inputs"`
	Outputs  []ScoreArg `json:"outputs,omitempty"`
	Readonly string     `json:"readonly,omitempty"`
	Payable  string     `json:"payable,omitempty"`
}

// ScoreArg is a parameter or return value.
type ScoreArg struct {
	Name    string `json:"name,omitempty"`
	Type    string `json:"type"`
	Indexed string `json:"indexed,omitempty"`
	Default any    `json:"default,omitempty"`
}

// CallRequest is a read-only contract call.
type CallRequest struct {
	From   string
	To     string
	Method string
	Params map[string]any
	Height int64 // 0 means latest
}

func (r CallRequest) params() map[string]any {
	data := map[string]any{"method": r.Method}
	if len(r.Params) > 0 {
		data["params"] = r.Params
	}
	p := map[string]any{
		"to":       r.To,
		"dataType": "call",
		"data":     data,
	}
	if r.From != "" {
		p["from"] = r.From
	}
	if r.Height > 0 {
		p["height"] = IntToHex(r.Height)
	}
	return p
}
