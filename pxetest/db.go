package pxetest

import (
	. "github.com/alexdcox/aztec-go"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultMaxLogs caps GetLogs when the filter sets no limit.
const DefaultMaxLogs = 1000

type Block struct {
	Number   uint64
	Hash     HexBytes
	TxHashes []TxHash
}

// Database keeps the chain view of the fake node: blocks, receipts and
// unencrypted logs. Contract state lives in memory on the server.
type Database interface {
	// AddBlock stores the block, marks its receipts mined and appends its
	// logs atomically.
	AddBlock(block *Block, receipts []*TxReceipt, logs []ExtendedUnencryptedL2Log) error
	GetBlockNumber() (uint64, error)

	SetReceipt(receipt *TxReceipt) error
	GetReceipt(hash TxHash) (*TxReceipt, error)

	GetLogs(filter LogFilter) (logs []ExtendedUnencryptedL2Log, maxLogsHit bool, err error)

	Close() error
}

func logLimit(filter LogFilter) int {
	if filter.Limit <= 0 || filter.Limit > DefaultMaxLogs {
		return DefaultMaxLogs
	}
	return filter.Limit
}
