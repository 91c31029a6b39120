package pxetest

import (
	"database/sql"
	"sync"

	. "github.com/alexdcox/aztec-go"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SqlLiteDatabase struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Database = &SqlLiteDatabase{}

func NewSqlLiteDatabase(path string) (db *SqlLiteDatabase, err error) {
	log.Info().Msgf("opening sqlite db at: '%s'", path)

	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		err = errors.Wrap(err, "failed to open database")
		return
	}

	if err = sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		err = errors.Wrap(err, "failed to ping database")
		return
	}

	db = &SqlLiteDatabase{db: sqldb}
	if err = db.initTables(); err != nil {
		_ = sqldb.Close()
		err = errors.Wrap(err, "failed to init tables")
		return nil, err
	}

	return
}

func (s *SqlLiteDatabase) initTables() (err error) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS block (
			number INTEGER PRIMARY KEY,
			hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tx (
			txhash TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			block_number INTEGER NOT NULL DEFAULT 0,
			block_hash TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS unencrypted_log (
			block_number INTEGER,
			tx_index INTEGER,
			log_index INTEGER,
			contract TEXT,
			selector TEXT,
			data BLOB,
			PRIMARY KEY (block_number, tx_index, log_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_block ON tx(block_number)`,
		`CREATE INDEX IF NOT EXISTS idx_log_contract ON unencrypted_log(contract)`,
	}

	for i, query := range queries {
		_, err = s.db.Exec(query)
		if err != nil {
			err = errors.Wrapf(err, "failed to execute query: %d", i)
			return
		}
	}

	return
}

func (s *SqlLiteDatabase) AddBlock(block *Block, receipts []*TxReceipt, logs []ExtendedUnencryptedL2Log) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return errors.WithStack(err)
	}
	defer tx.Rollback()

	var height uint64
	if err = tx.QueryRow("SELECT COALESCE(MAX(number), 0) FROM block").Scan(&height); err != nil {
		return errors.WithStack(err)
	}
	if block.Number != height+1 {
		return errors.Errorf("block %d does not follow height %d", block.Number, height)
	}

	if _, err = tx.Exec("INSERT INTO block (number, hash) VALUES (?, ?)", block.Number, block.Hash.String()); err != nil {
		return errors.WithStack(err)
	}

	receiptStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO tx (txhash, status, error, block_number, block_hash)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.WithStack(err)
	}
	defer receiptStmt.Close()

	for _, receipt := range receipts {
		_, err = receiptStmt.Exec(
			receipt.TxHash.String(),
			string(receipt.Status),
			receipt.Error,
			receipt.BlockNumber,
			receipt.BlockHash.String())
		if err != nil {
			return errors.WithStack(err)
		}
	}

	logStmt, err := tx.Prepare(`
		INSERT INTO unencrypted_log (block_number, tx_index, log_index, contract, selector, data)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.WithStack(err)
	}
	defer logStmt.Close()

	for _, l := range logs {
		_, err = logStmt.Exec(
			l.ID.BlockNumber,
			l.ID.TxIndex,
			l.ID.LogIndex,
			l.Log.ContractAddress.String(),
			l.Log.Selector.String(),
			[]byte(l.Log.Data))
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return errors.WithStack(tx.Commit())
}

func (s *SqlLiteDatabase) GetBlockNumber() (height uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.QueryRow("SELECT COALESCE(MAX(number), 0) FROM block").Scan(&height)
	err = errors.WithStack(err)

	return
}

func (s *SqlLiteDatabase) SetReceipt(receipt *TxReceipt) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO tx (txhash, status, error, block_number, block_hash)
		VALUES (?, ?, ?, ?, ?)`,
		receipt.TxHash.String(),
		string(receipt.Status),
		receipt.Error,
		receipt.BlockNumber,
		receipt.BlockHash.String())

	return errors.WithStack(err)
}

func (s *SqlLiteDatabase) GetReceipt(hash TxHash) (receipt *TxReceipt, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var status, blockHash string
	receipt = &TxReceipt{TxHash: hash}

	err = s.db.QueryRow(
		"SELECT status, error, block_number, block_hash FROM tx WHERE txhash = ?",
		hash.String(),
	).Scan(&status, &receipt.Error, &receipt.BlockNumber, &blockHash)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrTxNotFound, "tx not found by hash %s", hash)
	} else if err != nil {
		return nil, errors.WithStack(err)
	}

	receipt.Status = TxStatus(status)
	if blockHash != "" && blockHash != "0x" {
		if err = receipt.BlockHash.UnmarshalText([]byte(blockHash)); err != nil {
			return nil, err
		}
	}

	return
}

func (s *SqlLiteDatabase) GetLogs(filter LogFilter) (logs []ExtendedUnencryptedL2Log, maxLogsHit bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT block_number, tx_index, log_index, contract, selector, data
		FROM unencrypted_log
		WHERE block_number >= ?`
	args := []any{filter.FromBlock}

	if filter.ToBlock != 0 {
		query += " AND block_number < ?"
		args = append(args, filter.ToBlock)
	}
	if filter.ContractAddress != nil {
		query += " AND contract = ?"
		args = append(args, filter.ContractAddress.String())
	}

	limit := logLimit(filter)
	query += " ORDER BY block_number, tx_index, log_index LIMIT ?"
	args = append(args, limit+1)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		err = errors.Wrap(err, "failed to query logs")
		return
	}
	defer rows.Close()

	logs = []ExtendedUnencryptedL2Log{}

	for rows.Next() {
		var (
			l        ExtendedUnencryptedL2Log
			contract string
			selector string
			data     []byte
		)
		if err = rows.Scan(&l.ID.BlockNumber, &l.ID.TxIndex, &l.ID.LogIndex, &contract, &selector, &data); err != nil {
			err = errors.Wrap(err, "failed to scan row")
			return
		}
		if l.Log.ContractAddress, err = ParseAddress(contract); err != nil {
			return
		}
		if err = l.Log.Selector.UnmarshalText([]byte(selector)); err != nil {
			return
		}
		l.Log.Data = data

		if len(logs) == limit {
			maxLogsHit = true
			break
		}
		logs = append(logs, l)
	}

	if err = rows.Err(); err != nil {
		err = errors.Wrap(err, "error during row iteration")
		return
	}

	return
}

func (s *SqlLiteDatabase) Close() error {
	return errors.WithStack(s.db.Close())
}
