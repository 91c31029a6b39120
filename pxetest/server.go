package pxetest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	. "github.com/alexdcox/aztec-go"
	"github.com/alexdcox/aztec-go/rpcclient"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

var log = Log()

const (
	DefaultAccounts  = 3
	DefaultL1ChainID = 31337
	DefaultVersion   = "pxe-sandbox"
)

const (
	rpcCodeInvalidRequest = -32600
	rpcCodeMethodNotFound = -32601
	rpcCodeInvalidParams  = -32602
	rpcCodeServerError    = -32000
)

type Options struct {
	// Database defaults to an in-memory database.
	Database  Database
	Accounts  int
	L1ChainID uint64
	Version   string
}

func (o *Options) setDefaults() {
	if o.Database == nil {
		o.Database = NewInMemoryDatabase()
	}
	if o.Accounts <= 0 {
		o.Accounts = DefaultAccounts
	}
	if o.L1ChainID == 0 {
		o.L1ChainID = DefaultL1ChainID
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
}

type pendingTx struct {
	hash    TxHash
	request *TxExecutionRequest
}

// Server answers the PXE json-rpc surface from memory. Every account is
// registered locally, the token contract is deployed at start, and pending
// transactions are mined one per block the first time a receipt is asked
// for, or on MineBlock.
type Server struct {
	app      *fiber.App
	db       Database
	options  *Options
	accounts []CompleteAddress
	token    *tokenState
	pending  []*pendingTx
	txNonce  uint64
	mu       sync.Mutex
}

func NewServer(options *Options) (server *Server, err error) {
	if options == nil {
		options = &Options{}
	}
	options.setDefaults()

	artifact, err := TokenContractArtifact()
	if err != nil {
		return
	}

	server = &Server{
		db:      options.Database,
		options: options,
	}

	for i := 0; i < options.Accounts; i++ {
		server.accounts = append(server.accounts, deriveAccount(i))
	}

	tokenAddress := Address(FrFromBytes(hash256([]byte("pxetest token"))))
	server.token = newTokenState(tokenAddress, server.accounts[0].Address, artifact)

	height, err := server.db.GetBlockNumber()
	if err != nil {
		return nil, err
	}
	if height == 0 {
		// genesis stands in for the block that deployed the token
		if err = server.db.AddBlock(&Block{Number: 1, Hash: blockHash(1, nil)}, nil, nil); err != nil {
			return nil, err
		}
	}

	server.app = fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})
	server.app.Use(recover.New())
	server.app.Use(func(c *fiber.Ctx) error {
		rsp := c.Next()
		log.Debug().Msgf("http response: [%d] %s - %s %s", c.Response().StatusCode(), c.IP(), c.Method(), c.Path())
		return rsp
	})
	server.app.Post("/", server.handleRpc)

	return
}

func deriveAccount(i int) CompleteAddress {
	seed := []byte(fmt.Sprintf("pxetest account %d", i))
	return CompleteAddress{
		Address:        Address(FrFromBytes(hash256(seed))),
		PublicKey:      hash512(seed),
		PartialAddress: FrFromBytes(hash256(append(seed, []byte(" partial")...))),
	}
}

func hash256(data []byte) []byte {
	h := blake2b.Sum256(data)
	return h[:]
}

func hash512(data []byte) []byte {
	h := blake2b.Sum512(data)
	return h[:]
}

func blockHash(number uint64, txs []TxHash) HexBytes {
	buf := binary.BigEndian.AppendUint64(nil, number)
	for _, tx := range txs {
		buf = append(buf, tx[:]...)
	}
	return hash256(buf)
}

func (s *Server) Start(listen string) (err error) {
	log.Info().Msgf("pxe sandbox listening on %s", listen)
	return errors.WithStack(s.app.Listen(listen))
}

func (s *Server) Stop() (err error) {
	if err = s.app.Shutdown(); err != nil {
		return errors.WithStack(err)
	}
	return s.db.Close()
}

// Handler exposes the server as a net/http handler.
func (s *Server) Handler() http.HandlerFunc {
	return adaptor.FiberApp(s.app)
}

func (s *Server) TokenAddress() Address {
	return s.token.address
}

func (s *Server) Accounts() []CompleteAddress {
	return append([]CompleteAddress{}, s.accounts...)
}

type rpcRequest struct {
	JsonRpc string            `json:"jsonrpc"`
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JsonRpc string              `json:"jsonrpc"`
	ID      string              `json:"id"`
	Result  any                 `json:"result"`
	Error   *rpcclient.RpcError `json:"error,omitempty"`
}

type rpcHandler func(params []json.RawMessage) (any, error)

func (s *Server) handlers() map[string]rpcHandler {
	return map[string]rpcHandler{
		"getNodeInfo":           s.getNodeInfo,
		"getRegisteredAccounts": s.getRegisteredAccounts,
		"getBlockNumber":        s.getBlockNumber,
		"getUnencryptedLogs":    s.getUnencryptedLogs,
		"addNote":               s.addNote,
		"viewTx":                s.viewTx,
		"sendTx":                s.sendTx,
		"getTxReceipt":          s.getTxReceipt,
	}
}

func (s *Server) handleRpc(c *fiber.Ctx) error {
	req := &rpcRequest{}
	if err := json.Unmarshal(c.Body(), req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(&rpcResponse{
			JsonRpc: rpcclient.JsonRpcVersion,
			Error:   &rpcclient.RpcError{Code: rpcCodeInvalidRequest, Message: "invalid request", Data: err.Error()},
		})
	}

	rsp := &rpcResponse{JsonRpc: rpcclient.JsonRpcVersion, ID: req.ID}

	if len(req.Method) <= len(rpcclient.MethodPrefix) || req.Method[:len(rpcclient.MethodPrefix)] != rpcclient.MethodPrefix {
		rsp.Error = &rpcclient.RpcError{Code: rpcCodeMethodNotFound, Message: "method not found", Data: req.Method}
		return c.JSON(rsp)
	}

	handler, ok := s.handlers()[req.Method[len(rpcclient.MethodPrefix):]]
	if !ok {
		rsp.Error = &rpcclient.RpcError{Code: rpcCodeMethodNotFound, Message: "method not found", Data: req.Method}
		return c.JSON(rsp)
	}

	s.mu.Lock()
	result, err := handler(req.Params)
	s.mu.Unlock()

	if err != nil {
		log.Debug().Msgf("%s failed: %v", req.Method, err)
		rsp.Error = s.rpcError(err)
		return c.JSON(rsp)
	}

	rsp.Result = result
	return c.JSON(rsp)
}

func (s *Server) rpcError(err error) *rpcclient.RpcError {
	var invalid *paramsError
	if errors.As(err, &invalid) {
		return &rpcclient.RpcError{Code: rpcCodeInvalidParams, Message: "invalid params", Data: err.Error()}
	}

	for _, match := range AllErrors {
		if errors.Is(err, match) {
			return &rpcclient.RpcError{Code: rpcCodeServerError, Message: match.Error(), Data: err.Error()}
		}
	}

	return &rpcclient.RpcError{Code: rpcCodeServerError, Message: "internal error", Data: err.Error()}
}

type paramsError struct {
	err error
}

func (e *paramsError) Error() string {
	return e.err.Error()
}

func decodeParams(params []json.RawMessage, targets ...any) error {
	if len(params) != len(targets) {
		return &paramsError{errors.Errorf("expected %d params, got %d", len(targets), len(params))}
	}
	for i, target := range targets {
		if err := json.Unmarshal(params[i], target); err != nil {
			return &paramsError{errors.Wrapf(err, "param %d", i)}
		}
	}
	return nil
}

func (s *Server) getNodeInfo(params []json.RawMessage) (any, error) {
	return &NodeInfo{
		NodeVersion:     s.options.Version,
		L1ChainID:       s.options.L1ChainID,
		ChainID:         s.options.L1ChainID,
		ProtocolVersion: 1,
	}, nil
}

func (s *Server) getRegisteredAccounts(params []json.RawMessage) (any, error) {
	return s.accounts, nil
}

func (s *Server) getBlockNumber(params []json.RawMessage) (any, error) {
	return s.db.GetBlockNumber()
}

func (s *Server) getUnencryptedLogs(params []json.RawMessage) (any, error) {
	filter := LogFilter{}
	if err := decodeParams(params, &filter); err != nil {
		return nil, err
	}

	logs, maxLogsHit, err := s.db.GetLogs(filter)
	if err != nil {
		return nil, err
	}

	return &GetUnencryptedLogsResponse{Logs: logs, MaxLogsHit: maxLogsHit}, nil
}

func (s *Server) addNote(params []json.RawMessage) (any, error) {
	note := &ExtendedNote{}
	if err := decodeParams(params, note); err != nil {
		return nil, err
	}

	if !s.isRegistered(note.Owner) {
		return nil, errors.Wrapf(ErrUnauthorized, "%s is not registered in this pxe", note.Owner)
	}

	if err := s.token.addNote(note); err != nil {
		return nil, err
	}

	log.Info().Msgf("added note for %s from tx %s", note.Owner, note.TxHash)

	return true, nil
}

func (s *Server) viewTx(params []json.RawMessage) (any, error) {
	call := &FunctionCall{}
	var from Address
	if err := decodeParams(params, call, &from); err != nil {
		return nil, err
	}

	if call.Type != FunctionTypeUnconstrained {
		return nil, errors.Wrapf(ErrArtifactMismatch, "%s is not unconstrained", call.FunctionName)
	}

	return s.token.view(call)
}

func (s *Server) sendTx(params []json.RawMessage) (any, error) {
	req := &TxExecutionRequest{}
	if err := decodeParams(params, req); err != nil {
		return nil, err
	}

	if !s.isRegistered(req.Origin) {
		return nil, errors.Wrapf(ErrUnauthorized, "%s is not registered in this pxe", req.Origin)
	}
	if len(req.Calls) == 0 {
		return nil, &paramsError{errors.New("tx has no calls")}
	}

	hash, err := s.txHash(req)
	if err != nil {
		return nil, err
	}

	// Private calls are simulated before proving, so failures surface here.
	// Public calls only fail once the sequencer runs them.
	for i := range req.Calls {
		call := &req.Calls[i]
		if call.Type == FunctionTypeUnconstrained {
			return nil, errors.Wrapf(ErrArtifactMismatch, "%s is unconstrained", call.FunctionName)
		}
		if call.Type != FunctionTypeSecret {
			continue
		}
		if _, err = s.token.execute(req.Origin, call, hash, false); err != nil {
			return nil, err
		}
	}

	if err = s.db.SetReceipt(&TxReceipt{TxHash: hash, Status: TxStatusPending}); err != nil {
		return nil, err
	}
	s.pending = append(s.pending, &pendingTx{hash: hash, request: req})

	log.Info().Msgf("accepted tx %s (%s)", hash, req.Calls[0].FunctionName)

	return hash, nil
}

func (s *Server) getTxReceipt(params []json.RawMessage) (any, error) {
	var hash TxHash
	if err := decodeParams(params, &hash); err != nil {
		return nil, err
	}

	receipt, err := s.db.GetReceipt(hash)
	if err != nil {
		return nil, err
	}

	if receipt.Status == TxStatusPending {
		if err = s.mine(); err != nil {
			return nil, err
		}
		return s.db.GetReceipt(hash)
	}

	return receipt, nil
}

func (s *Server) isRegistered(addr Address) bool {
	for _, account := range s.accounts {
		if account.Address == addr {
			return true
		}
	}
	return false
}

func (s *Server) txHash(req *TxExecutionRequest) (hash TxHash, err error) {
	data, err := json.Marshal(req)
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	s.txNonce++
	data = binary.BigEndian.AppendUint64(data, s.txNonce)
	copy(hash[:], hash256(data))
	return
}

// MineBlock mines every pending transaction, one block each.
func (s *Server) MineBlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mine()
}

func (s *Server) mine() (err error) {
	for len(s.pending) > 0 {
		tx := s.pending[0]
		s.pending = s.pending[1:]

		height, err := s.db.GetBlockNumber()
		if err != nil {
			return err
		}

		block := &Block{Number: height + 1, TxHashes: []TxHash{tx.hash}}
		block.Hash = blockHash(block.Number, block.TxHashes)

		receipt := &TxReceipt{
			TxHash:      tx.hash,
			Status:      TxStatusMined,
			BlockNumber: block.Number,
			BlockHash:   block.Hash,
		}

		var blockLogs []ExtendedUnencryptedL2Log

		// a revert undoes every call of the tx, not only the failing one
		before := s.token.snapshot()

		for i := range tx.request.Calls {
			callLogs, err2 := s.token.execute(tx.request.Origin, &tx.request.Calls[i], tx.hash, true)
			if err2 != nil {
				s.token.restore(before)
				receipt.Status = TxStatusReverted
				receipt.Error = err2.Error()
				blockLogs = nil
				log.Warn().Msgf("tx %s reverted: %v", tx.hash, err2)
				break
			}
			for _, l := range callLogs {
				blockLogs = append(blockLogs, ExtendedUnencryptedL2Log{
					ID: LogID{
						BlockNumber: block.Number,
						TxIndex:     0,
						LogIndex:    len(blockLogs),
					},
					Log: l,
				})
			}
		}

		if err = s.db.AddBlock(block, []*TxReceipt{receipt}, blockLogs); err != nil {
			return err
		}

		log.Info().Msgf("mined block %d with tx %s (%s)", block.Number, tx.hash, receipt.Status)
	}

	return
}
