package pxetest

import (
	"sync"

	. "github.com/alexdcox/aztec-go"
	"github.com/pkg/errors"
)

type InMemoryDatabase struct {
	blocks   map[uint64]*Block
	receipts map[TxHash]TxReceipt
	logs     []ExtendedUnencryptedL2Log
	height   uint64
	mu       sync.RWMutex
}

var _ Database = &InMemoryDatabase{}

func NewInMemoryDatabase() *InMemoryDatabase {
	return &InMemoryDatabase{
		blocks:   make(map[uint64]*Block),
		receipts: make(map[TxHash]TxReceipt),
	}
}

func (db *InMemoryDatabase) AddBlock(block *Block, receipts []*TxReceipt, logs []ExtendedUnencryptedL2Log) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if block.Number != db.height+1 {
		return errors.Errorf("block %d does not follow height %d", block.Number, db.height)
	}

	db.blocks[block.Number] = block
	db.height = block.Number

	for _, receipt := range receipts {
		db.receipts[receipt.TxHash] = *receipt
	}

	db.logs = append(db.logs, logs...)

	return nil
}

func (db *InMemoryDatabase) GetBlockNumber() (uint64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.height, nil
}

func (db *InMemoryDatabase) SetReceipt(receipt *TxReceipt) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.receipts[receipt.TxHash] = *receipt
	return nil
}

func (db *InMemoryDatabase) GetReceipt(hash TxHash) (*TxReceipt, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	receipt, ok := db.receipts[hash]
	if !ok {
		return nil, errors.Wrapf(ErrTxNotFound, "tx not found by hash %s", hash)
	}

	return &receipt, nil
}

func (db *InMemoryDatabase) GetLogs(filter LogFilter) (logs []ExtendedUnencryptedL2Log, maxLogsHit bool, err error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	limit := logLimit(filter)
	logs = []ExtendedUnencryptedL2Log{}

	for i := range db.logs {
		if !filter.Matches(&db.logs[i]) {
			continue
		}
		if len(logs) == limit {
			maxLogsHit = true
			break
		}
		logs = append(logs, db.logs[i])
	}

	return
}

func (db *InMemoryDatabase) Close() error {
	return nil
}
