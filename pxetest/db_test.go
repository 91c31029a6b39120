package pxetest

import (
	"path/filepath"
	"testing"

	. "github.com/alexdcox/aztec-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func testDatabase(t *testing.T, db Database) {
	defer func() {
		assert.Nil(t, db.Close())
	}()

	// Blocks

	height, err := db.GetBlockNumber()
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), height)

	err = db.AddBlock(&Block{Number: 2, Hash: HexBytes{0x02}}, nil, nil)
	assert.Error(t, err, "expected error adding a block out of order")

	err = db.AddBlock(&Block{Number: 1, Hash: HexBytes{0x01}}, nil, nil)
	assert.Nil(t, err)

	// Receipts

	txA, txB := TxHash{0x0a}, TxHash{0x0b}

	_, err = db.GetReceipt(txA)
	assert.True(t, errors.Is(err, ErrTxNotFound))

	err = db.SetReceipt(&TxReceipt{TxHash: txA, Status: TxStatusPending})
	assert.Nil(t, err)
	err = db.SetReceipt(&TxReceipt{TxHash: txB, Status: TxStatusPending})
	assert.Nil(t, err)

	receipt, err := db.GetReceipt(txA)
	assert.Nil(t, err)
	assert.Equal(t, TxStatusPending, receipt.Status)
	assert.Equal(t, 0, len(receipt.BlockHash))

	contract := Address(NewFr(0xc0de))
	other := Address(NewFr(0xbeef))
	logAt := func(block uint64, index int, addr Address, data string) ExtendedUnencryptedL2Log {
		return ExtendedUnencryptedL2Log{
			ID: LogID{BlockNumber: block, LogIndex: index},
			Log: UnencryptedL2Log{
				ContractAddress: addr,
				Selector:        FunctionSelector{0x01, 0x02, 0x03, 0x04},
				Data:            []byte(data),
			},
		}
	}

	err = db.AddBlock(
		&Block{Number: 2, Hash: HexBytes{0x02}, TxHashes: []TxHash{txA}},
		[]*TxReceipt{{TxHash: txA, Status: TxStatusMined, BlockNumber: 2, BlockHash: HexBytes{0x02}}},
		[]ExtendedUnencryptedL2Log{logAt(2, 0, contract, "first"), logAt(2, 1, other, "second")})
	assert.Nil(t, err)

	err = db.AddBlock(
		&Block{Number: 3, Hash: HexBytes{0x03}, TxHashes: []TxHash{txB}},
		[]*TxReceipt{{TxHash: txB, Status: TxStatusReverted, Error: "not enough funds", BlockNumber: 3, BlockHash: HexBytes{0x03}}},
		nil)
	assert.Nil(t, err)

	height, err = db.GetBlockNumber()
	assert.Nil(t, err)
	assert.Equal(t, uint64(3), height)

	receipt, err = db.GetReceipt(txA)
	assert.Nil(t, err)
	assert.Equal(t, TxReceipt{TxHash: txA, Status: TxStatusMined, BlockNumber: 2, BlockHash: HexBytes{0x02}}, *receipt)

	receipt, err = db.GetReceipt(txB)
	assert.Nil(t, err)
	assert.Equal(t, TxStatusReverted, receipt.Status)
	assert.Equal(t, "not enough funds", receipt.Error)

	// Logs

	logs, maxLogsHit, err := db.GetLogs(LogFilter{FromBlock: 2, ToBlock: 3})
	assert.Nil(t, err)
	assert.False(t, maxLogsHit)
	assert.Equal(t, []ExtendedUnencryptedL2Log{logAt(2, 0, contract, "first"), logAt(2, 1, other, "second")}, logs)

	logs, maxLogsHit, err = db.GetLogs(LogFilter{FromBlock: 2, ToBlock: 3, Limit: 1})
	assert.Nil(t, err)
	assert.True(t, maxLogsHit)
	assert.Equal(t, []ExtendedUnencryptedL2Log{logAt(2, 0, contract, "first")}, logs)

	logs, _, err = db.GetLogs(LogFilter{FromBlock: 1, ContractAddress: &other})
	assert.Nil(t, err)
	assert.Equal(t, []ExtendedUnencryptedL2Log{logAt(2, 1, other, "second")}, logs)

	logs, _, err = db.GetLogs(LogFilter{FromBlock: 3, ToBlock: 4})
	assert.Nil(t, err)
	assert.Equal(t, 0, len(logs))
}

func TestInMemoryDatabase(t *testing.T) {
	testDatabase(t, NewInMemoryDatabase())
}

func TestSqlLiteDatabase(t *testing.T) {
	db, err := NewSqlLiteDatabase(filepath.Join(t.TempDir(), "pxe-test.db"))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	testDatabase(t, db)
}
