package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	. "github.com/alexdcox/aztec-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const JsonRpcVersion = "2.0"

// MethodPrefix namespaces every PXE method on the wire.
const MethodPrefix = "pxe_"

func NewRpcClient(pxeUrl string) (client *RpcClient, err error) {
	u, err := url.Parse(pxeUrl)
	if err != nil || u.Host == "" {
		err = errors.Wrapf(ErrInvalidConfig, "invalid pxe url '%s'", pxeUrl)
		return
	}

	client = &RpcClient{
		Url:  strings.TrimSuffix(pxeUrl, "/"),
		Http: http.DefaultClient,
		log:  Log(),
	}
	return
}

type RpcClient struct {
	Url  string
	Http *http.Client
	log  *zerolog.Logger
}

var _ PXE = &RpcClient{}

type rpcRequest struct {
	JsonRpc string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JsonRpc string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RpcError       `json:"error"`
}

type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (r *RpcError) Error() string {
	if r.Data != "" {
		return fmt.Sprintf("%s: %s", r.Message, r.Data)
	}
	return r.Message
}

func (r *RpcError) Unwrap() error {
	return ErrRpcFailed
}

// StdErr maps the error back to one of the package sentinels when the
// message names one.
func (r *RpcError) StdErr() error {
	for _, a := range AllErrors {
		if r.Message != a.Error() {
			continue
		}
		if r.Data == "" {
			return errors.WithStack(a)
		}
		return errors.Wrap(a, r.Data)
	}
	return nil
}

func (c *RpcClient) req(ctx context.Context, method string, params []any) (out []byte, err error) {
	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(&rpcRequest{
		JsonRpc: JsonRpcVersion,
		ID:      uuid.NewString(),
		Method:  MethodPrefix + method,
		Params:  params,
	})
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Url, bytes.NewReader(body))
	if err != nil {
		err = errors.WithStack(err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Trace().Msgf("rpc out: %s", string(body))

	rsp, err := c.Http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = errors.WithStack(ctx.Err())
			return
		}
		err = errors.Wrapf(ErrNodeUnreachable, "%s: %v", c.Url, err)
		return
	}
	defer rsp.Body.Close()

	out, err = io.ReadAll(rsp.Body)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	c.log.Trace().Msgf("rpc in: %s", string(out))

	if rsp.Status[0] != '2' && !gjson.GetBytes(out, "error").Exists() {
		err = errors.Wrapf(ErrRpcFailed, "rpc response code %d with body %s", rsp.StatusCode, string(out))
		return
	}

	return
}

func (c *RpcClient) call(ctx context.Context, method string, target any, params ...any) (err error) {
	out, err := c.req(ctx, method, params)
	if err != nil {
		return
	}

	if !gjson.ValidBytes(out) {
		return errors.Wrapf(ErrRpcFailed, "%s: invalid json response: %s", method, string(out))
	}

	rsp := &rpcResponse{}
	if err = json.Unmarshal(out, rsp); err != nil {
		return errors.Wrapf(err, "unable to unmarshal body: %s", string(out))
	}

	if rsp.Error != nil {
		if stdErr := rsp.Error.StdErr(); stdErr != nil {
			return stdErr
		}
		return errors.WithStack(rsp.Error)
	}

	if target == nil {
		return
	}

	if err = json.Unmarshal(rsp.Result, target); err != nil {
		err = errors.Wrapf(err, "%s: unable to unmarshal result: %s", method, string(rsp.Result))
	}

	return
}

func (c *RpcClient) GetNodeInfo(ctx context.Context) (out *NodeInfo, err error) {
	out = &NodeInfo{}
	err = c.call(ctx, "getNodeInfo", out)
	return
}

func (c *RpcClient) GetRegisteredAccounts(ctx context.Context) (out []CompleteAddress, err error) {
	out = []CompleteAddress{}
	err = c.call(ctx, "getRegisteredAccounts", &out)
	return
}

func (c *RpcClient) GetBlockNumber(ctx context.Context) (out uint64, err error) {
	err = c.call(ctx, "getBlockNumber", &out)
	return
}

func (c *RpcClient) GetUnencryptedLogs(ctx context.Context, filter LogFilter) (out *GetUnencryptedLogsResponse, err error) {
	out = &GetUnencryptedLogsResponse{}
	err = c.call(ctx, "getUnencryptedLogs", out, filter)
	return
}

func (c *RpcClient) AddNote(ctx context.Context, note *ExtendedNote) (err error) {
	return c.call(ctx, "addNote", nil, note)
}

func (c *RpcClient) ViewTx(ctx context.Context, call *FunctionCall, from Address) (out []Fr, err error) {
	out = []Fr{}
	err = c.call(ctx, "viewTx", &out, call, from)
	return
}

func (c *RpcClient) SendTx(ctx context.Context, request *TxExecutionRequest) (hash TxHash, err error) {
	err = c.call(ctx, "sendTx", &hash, request)
	return
}

func (c *RpcClient) GetTxReceipt(ctx context.Context, hash TxHash) (out *TxReceipt, err error) {
	out = &TxReceipt{}
	err = c.call(ctx, "getTxReceipt", out, hash)
	return
}
