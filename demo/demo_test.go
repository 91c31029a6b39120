package demo

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/alexdcox/aztec-go"
	"github.com/alexdcox/aztec-go/pxetest"
	"github.com/alexdcox/aztec-go/rpcclient"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// countingPXE records how many remote calls went through.
type countingPXE struct {
	PXE
	calls int
}

func (c *countingPXE) GetNodeInfo(ctx context.Context) (*NodeInfo, error) {
	c.calls++
	return c.PXE.GetNodeInfo(ctx)
}

func (c *countingPXE) GetRegisteredAccounts(ctx context.Context) ([]CompleteAddress, error) {
	c.calls++
	return c.PXE.GetRegisteredAccounts(ctx)
}

func newRunner(t *testing.T) (*Runner, *pxetest.Server, *bytes.Buffer) {
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

	book := NewInMemoryAddressBook()
	book.SetAddress(TokenContractName, server.TokenAddress())
	locator, err := NewTokenLocator(book)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	out := &bytes.Buffer{}
	runner, err := NewRunner(client, &Options{
		Out:     out,
		Locator: locator,
		Wait:    &WaitOpts{Interval: time.Millisecond, Timeout: 5 * time.Second},
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	return runner, server, out
}

func amounts(balances []Balance) (out []int64) {
	for _, b := range balances {
		out = append(out, b.Amount.Int64())
	}
	return
}

func TestRunner_Run(t *testing.T) {
	runner, server, out := newRunner(t)
	ctx := context.Background()

	err := runner.Run(ctx)
	assert.Nil(t, err, "%+v", err)

	private, err := runner.PrivateBalances(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []int64{19, 1, 0}, amounts(private))

	public, err := runner.PublicBalances(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []int64{100, 0, 0}, amounts(public))

	accounts := server.Accounts()
	assert.Equal(t, accounts[0].Address, private[0].Address)

	output := out.String()
	for _, expected := range []string{
		"Connected to chain 31337",
		"⚽️SHOW ACCOUNTS",
		"User accounts:",
		accounts[1].Address.String(),
		"⚽️SHOW PRIVATE BALANCES",
		"Owner address: " + accounts[0].Address.String(),
		"Token address: " + server.TokenAddress().String(),
		"Minting 20 with secret 0x",
		"Secret hash: 0x",
		"Receipt: {",
		"Adding note: 0x",
		"Redeeming shield",
		"Balance of " + accounts[0].Address.String() + ": 20",
		"⚽️TRANSFER PRIVATE FUNDS",
		"Sent transfer transaction 0x",
		"Awaiting transaction to be mined",
		"Balance of " + accounts[1].Address.String() + ": 1",
		"⚽️SHOW PUBLIC BALANCES",
		"Sent mint transaction 0x",
		"Balance of " + accounts[0].Address.String() + ": 100",
		"Log emitted: ",
	} {
		assert.Contains(t, output, expected)
	}

	assert.Equal(t, 1, strings.Count(output, "Log emitted: "))
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "Log emitted: ") {
			assert.LessOrEqual(t, len([]rune(strings.TrimPrefix(line, "Log emitted: "))), maxLogChars)
		}
	}
}

func TestRunner_Steps(t *testing.T) {
	runner, _, _ := newRunner(t)
	ctx := context.Background()

	assert.Nil(t, runner.MintPrivateFunds(ctx))
	private, err := runner.PrivateBalances(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []int64{20, 0, 0}, amounts(private))

	// minting again adds exactly the minted amount
	assert.Nil(t, runner.MintPrivateFunds(ctx))
	private, err = runner.PrivateBalances(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []int64{40, 0, 0}, amounts(private))

	assert.Nil(t, runner.TransferPrivateFunds(ctx))
	private, err = runner.PrivateBalances(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []int64{39, 1, 0}, amounts(private))

	assert.Nil(t, runner.MintPublicFunds(ctx))
	logs, err := runner.BlockLogs(ctx)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(logs))
}

func TestRunner_TransferWithoutFunds(t *testing.T) {
	runner, _, _ := newRunner(t)

	err := runner.TransferPrivateFunds(context.Background())
	assert.True(t, errors.Is(err, ErrNotEnoughFunds), "%+v", err)
}

func TestRunner_MissingToken(t *testing.T) {
	runner, _, _ := newRunner(t)
	counting := &countingPXE{PXE: runner.pxe}
	runner.pxe = counting

	locator, err := NewTokenLocator(NewFileAddressBook(t.TempDir() + "/addresses.json"))
	assert.Nil(t, err)
	runner.options.Locator = locator

	err = runner.Run(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound), "%+v", err)
	assert.Equal(t, 0, counting.calls)
}

func TestNewRunner(t *testing.T) {
	_, err := NewRunner(nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	locator, err := NewTokenLocator(NewInMemoryAddressBook())
	assert.Nil(t, err)

	testCases := []struct {
		name     string
		options  Options
		expected [3]uint64
	}{
		{
			"zero selects defaults",
			Options{},
			[3]uint64{DefaultPrivateMintAmount, DefaultTransferAmount, DefaultPublicMintAmount},
		},
		{
			"transfer only",
			Options{TransferAmount: 5},
			[3]uint64{DefaultPrivateMintAmount, 5, DefaultPublicMintAmount},
		},
		{
			"all set",
			Options{PrivateMintAmount: 7, TransferAmount: 3, PublicMintAmount: 9},
			[3]uint64{7, 3, 9},
		},
	}

	for _, testCase := range testCases {
		options := testCase.options
		options.Locator = locator
		runner, err := NewRunner(nil, &options)
		if err != nil {
			t.Fatalf("%s: %+v", testCase.name, err)
		}
		actual := [3]uint64{
			runner.options.PrivateMintAmount,
			runner.options.TransferAmount,
			runner.options.PublicMintAmount,
		}
		assert.Equal(t, testCase.expected, actual, testCase.name)
	}
}
