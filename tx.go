package aztec

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

const TxHashSize = 32

type TxHash [TxHashSize]byte

func ParseTxHash(s string) (hash TxHash, err error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		err = errors.Wrapf(err, "invalid tx hash '%s'", s)
		return
	}
	if len(raw) != TxHashSize {
		err = errors.Errorf("invalid tx hash length %d, expected %d", len(raw), TxHashSize)
		return
	}
	copy(hash[:], raw)
	return
}

func (h TxHash) IsZero() bool {
	return h == TxHash{}
}

func (h TxHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h TxHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *TxHash) UnmarshalText(text []byte) (err error) {
	parsed, err := ParseTxHash(string(text))
	if err != nil {
		return
	}
	*h = parsed
	return
}

type TxStatus string

const (
	TxStatusPending  TxStatus = "pending"
	TxStatusMined    TxStatus = "mined"
	TxStatusDropped  TxStatus = "dropped"
	TxStatusReverted TxStatus = "reverted"
)

type TxReceipt struct {
	TxHash      TxHash   `json:"txHash"`
	Status      TxStatus `json:"status"`
	Error       string   `json:"error,omitempty"`
	BlockNumber uint64   `json:"blockNumber,omitempty"`
	BlockHash   HexBytes `json:"blockHash,omitempty"`
}

// FunctionCall is a single contract call, with arguments already encoded
// as field elements.
type FunctionCall struct {
	To           Address          `json:"to"`
	FunctionName string           `json:"functionName"`
	Selector     FunctionSelector `json:"selector"`
	Type         FunctionType     `json:"type"`
	Args         []Fr             `json:"args"`
}

// TxExecutionRequest asks the PXE to simulate, prove and submit calls on
// behalf of the origin account.
type TxExecutionRequest struct {
	Origin Address        `json:"origin"`
	Calls  []FunctionCall `json:"calls"`
}
