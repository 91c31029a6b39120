package aztec

import (
	"context"
)

type NodeInfo struct {
	NodeVersion     string `json:"nodeVersion"`
	L1ChainID       uint64 `json:"l1ChainId"`
	ChainID         uint64 `json:"chainId"`
	ProtocolVersion uint64 `json:"protocolVersion"`
}

// PXE is the set of private execution environment calls this module
// consumes. Implementations talk to a remote node; nothing here proves or
// executes contracts locally.
type PXE interface {
	GetNodeInfo(ctx context.Context) (*NodeInfo, error)
	GetRegisteredAccounts(ctx context.Context) ([]CompleteAddress, error)
	GetBlockNumber(ctx context.Context) (uint64, error)
	GetUnencryptedLogs(ctx context.Context, filter LogFilter) (*GetUnencryptedLogsResponse, error)
	AddNote(ctx context.Context, note *ExtendedNote) error
	ViewTx(ctx context.Context, call *FunctionCall, from Address) ([]Fr, error)
	SendTx(ctx context.Context, request *TxExecutionRequest) (TxHash, error)
	GetTxReceipt(ctx context.Context, hash TxHash) (*TxReceipt, error)
}
