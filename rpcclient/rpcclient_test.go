package rpcclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/alexdcox/aztec-go"
	"github.com/alexdcox/aztec-go/pxetest"
	"github.com/alexdcox/aztec-go/rpcclient"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newSandbox(t *testing.T) (*pxetest.Server, *rpcclient.RpcClient) {
	server, err := pxetest.NewServer(nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)

	client, err := rpcclient.NewRpcClient(httpServer.URL)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return server, client
}

func TestRpcClient_Node(t *testing.T) {
	server, client := newSandbox(t)
	ctx := context.Background()

	info, err := client.GetNodeInfo(ctx)
	assert.Nil(t, err)
	assert.Equal(t, uint64(pxetest.DefaultL1ChainID), info.L1ChainID)

	accounts, err := client.GetRegisteredAccounts(ctx)
	assert.Nil(t, err)
	assert.Equal(t, server.Accounts(), accounts)

	height, err := client.GetBlockNumber(ctx)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), height)

	logs, err := client.GetUnencryptedLogs(ctx, LogFilter{FromBlock: 1, ToBlock: 2})
	assert.Nil(t, err)
	assert.Equal(t, 0, len(logs.Logs))
	assert.False(t, logs.MaxLogsHit)
}

func TestRpcClient_SendAndReceipt(t *testing.T) {
	server, client := newSandbox(t)
	ctx := context.Background()

	artifact, err := TokenContractArtifact()
	assert.Nil(t, err)
	owner := server.Accounts()[0].Address
	token := ContractAt(server.TokenAddress(), artifact, NewWallet(client, owner))

	sent, err := token.Method("mint_public", owner, 100).Send(ctx)
	assert.Nil(t, err)

	receipt, err := sent.Wait(ctx, nil)
	assert.Nil(t, err)
	assert.Equal(t, TxStatusMined, receipt.Status)
	assert.Equal(t, uint64(2), receipt.BlockNumber)
	assert.Equal(t, sent.TxHash(), receipt.TxHash)

	balance, err := token.Method("balance_of_public", owner).SimulateBigInt(ctx)
	assert.Nil(t, err)
	assert.Equal(t, int64(100), balance.Int64())

	_, err = client.GetTxReceipt(ctx, TxHash{0xff})
	assert.True(t, errors.Is(err, ErrTxNotFound))
}

func TestRpcClient_RemoteErrors(t *testing.T) {
	server, client := newSandbox(t)
	ctx := context.Background()

	artifact, err := TokenContractArtifact()
	assert.Nil(t, err)
	owner := server.Accounts()[0].Address
	token := ContractAt(server.TokenAddress(), artifact, NewWallet(client, owner))

	_, err = token.Method("redeem_shield", owner, 20, NewFr(1)).Send(ctx)
	assert.True(t, errors.Is(err, ErrSecretMismatch), "%+v", err)

	stranger := NewWallet(client, Address(NewFr(42)))
	_, err = token.WithWallet(stranger).Method("transfer", Address(NewFr(42)), owner, 1, 0).Send(ctx)
	assert.True(t, errors.Is(err, ErrUnauthorized), "%+v", err)

	err = client.AddNote(ctx, &ExtendedNote{
		Note:            NewNote(NewFr(1), NewFr(2)),
		Owner:           owner,
		ContractAddress: server.TokenAddress(),
	})
	assert.True(t, errors.Is(err, ErrNoteNotFound), "%+v", err)
}

func TestRpcClient_Request(t *testing.T) {
	var captured map[string]any

	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"x","result":12}`))
	}))
	defer httpServer.Close()

	client, err := rpcclient.NewRpcClient(httpServer.URL)
	assert.Nil(t, err)

	height, err := client.GetBlockNumber(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, uint64(12), height)

	assert.Equal(t, "2.0", captured["jsonrpc"])
	assert.Equal(t, "pxe_getBlockNumber", captured["method"])
	assert.Equal(t, []any{}, captured["params"])
	_, err = uuid.Parse(captured["id"].(string))
	assert.Nil(t, err, "request id should be a uuid")
}

func TestRpcClient_Failures(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{"http error", http.StatusInternalServerError, "upstream down", ErrRpcFailed},
		{"not json", http.StatusOK, "<html>", ErrRpcFailed},
		{"unknown rpc error", http.StatusOK, `{"jsonrpc":"2.0","id":"x","error":{"code":-32000,"message":"out of gas"}}`, ErrRpcFailed},
		{"known rpc error", http.StatusOK, `{"jsonrpc":"2.0","id":"x","error":{"code":-32000,"message":"transaction not found","data":"0x01"}}`, ErrTxNotFound},
	}

	for _, testCase := range testCases {
		httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(testCase.status)
			_, _ = w.Write([]byte(testCase.body))
		}))

		client, err := rpcclient.NewRpcClient(httpServer.URL)
		assert.Nil(t, err)

		_, err = client.GetBlockNumber(context.Background())
		assert.True(t, errors.Is(err, testCase.expected), "%s: %+v", testCase.name, err)

		httpServer.Close()
	}
}

func TestRpcClient_Unreachable(t *testing.T) {
	httpServer := httptest.NewServer(http.NotFoundHandler())
	url := httpServer.URL
	httpServer.Close()

	client, err := rpcclient.NewRpcClient(url)
	assert.Nil(t, err)

	_, err = client.GetNodeInfo(context.Background())
	assert.True(t, errors.Is(err, ErrNodeUnreachable), "%+v", err)

	_, err = rpcclient.NewRpcClient("not a url")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestRpcError(t *testing.T) {
	rpcErr := &rpcclient.RpcError{Code: -32000, Message: "not found", Data: "token"}
	assert.Equal(t, "not found: token", rpcErr.Error())
	assert.True(t, errors.Is(rpcErr, ErrRpcFailed))
	assert.True(t, errors.Is(rpcErr.StdErr(), ErrNotFound))

	rpcErr = &rpcclient.RpcError{Code: -32000, Message: "something else"}
	assert.Nil(t, rpcErr.StdErr())
}
