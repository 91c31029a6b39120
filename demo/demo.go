// Package demo runs the token walkthrough against a PXE: connect, list
// accounts, mint and redeem a private balance, transfer privately, then mint
// publicly and show the logs of the block it landed in.
package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"

	. "github.com/alexdcox/aztec-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultPrivateMintAmount = 20
	DefaultTransferAmount    = 1
	DefaultPublicMintAmount  = 100

	// maxLogChars bounds each printed log line.
	maxLogChars = 200
)

type Options struct {
	// Out receives the walkthrough output, stdout when nil.
	Out     io.Writer
	Locator *Locator
	Wait    *WaitOpts

	// Amounts are always positive: zero selects the matching Default*
	// constant, there is no way to mint or transfer nothing.
	PrivateMintAmount uint64
	TransferAmount    uint64
	PublicMintAmount  uint64
}

func (o *Options) setDefaults() {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Wait == nil {
		o.Wait = &WaitOpts{}
	}
	if o.PrivateMintAmount == 0 {
		o.PrivateMintAmount = DefaultPrivateMintAmount
	}
	if o.TransferAmount == 0 {
		o.TransferAmount = DefaultTransferAmount
	}
	if o.PublicMintAmount == 0 {
		o.PublicMintAmount = DefaultPublicMintAmount
	}
}

type Runner struct {
	pxe     PXE
	options *Options
	log     *zerolog.Logger
}

func NewRunner(pxe PXE, options *Options) (runner *Runner, err error) {
	if options == nil {
		options = &Options{}
	}
	if options.Locator == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "no contract locator")
	}
	options.setDefaults()

	return &Runner{
		pxe:     pxe,
		options: options,
		log:     Log(),
	}, nil
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.options.Out, format+"\n", args...)
}

// Run performs every step in order and stops at the first error.
func (r *Runner) Run(ctx context.Context) (err error) {
	// resolve the token up front so a bad address file fails before any
	// remote call
	if _, err = r.options.Locator.Token(nil); err != nil {
		return
	}

	if err = r.Connect(ctx); err != nil {
		return
	}

	r.printf("⚽️SHOW ACCOUNTS")
	if err = r.ShowAccounts(ctx); err != nil {
		return
	}

	r.printf("⚽️SHOW PRIVATE BALANCES")
	if err = r.MintPrivateFunds(ctx); err != nil {
		return
	}

	r.printf("⚽️TRANSFER PRIVATE FUNDS")
	if err = r.TransferPrivateFunds(ctx); err != nil {
		return
	}

	r.printf("⚽️SHOW PUBLIC BALANCES")
	return r.MintPublicFunds(ctx)
}

func (r *Runner) Connect(ctx context.Context) (err error) {
	info, err := r.pxe.GetNodeInfo(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to connect to pxe")
	}

	r.log.Debug().Msgf("node version %s, protocol %d", info.NodeVersion, info.ProtocolVersion)
	r.printf("Connected to chain %d", info.L1ChainID)

	return
}

func (r *Runner) ShowAccounts(ctx context.Context) (err error) {
	accounts, err := r.pxe.GetRegisteredAccounts(ctx)
	if err != nil {
		return
	}

	r.printf("User accounts:")
	for _, account := range accounts {
		r.printf("%s", account.Address)
	}

	return
}

type Balance struct {
	Address Address
	Amount  *big.Int
}

// PrivateBalances reads balance_of_private for every registered account.
func (r *Runner) PrivateBalances(ctx context.Context) ([]Balance, error) {
	return r.balances(ctx, "balance_of_private")
}

// PublicBalances reads balance_of_public for every registered account.
func (r *Runner) PublicBalances(ctx context.Context) ([]Balance, error) {
	return r.balances(ctx, "balance_of_public")
}

func (r *Runner) balances(ctx context.Context, method string) (balances []Balance, err error) {
	token, err := r.options.Locator.Token(NewWallet(r.pxe, ZeroAddress))
	if err != nil {
		return
	}

	accounts, err := r.pxe.GetRegisteredAccounts(ctx)
	if err != nil {
		return
	}

	for _, account := range accounts {
		var amount *big.Int
		amount, err = token.Method(method, account.Address).SimulateBigInt(ctx)
		if err != nil {
			return nil, err
		}
		balances = append(balances, Balance{Address: account.Address, Amount: amount})
	}

	return
}

func (r *Runner) showBalances(ctx context.Context, method string) (err error) {
	balances, err := r.balances(ctx, method)
	if err != nil {
		return
	}
	for _, b := range balances {
		r.printf("Balance of %s: %s", b.Address, b.Amount)
	}
	return
}

func (r *Runner) wallets(ctx context.Context, n int) (wallets []*Wallet, err error) {
	wallets, err = TestAccountWallets(ctx, r.pxe)
	if err != nil {
		return
	}
	if len(wallets) < n {
		return nil, errors.Wrapf(ErrNoAccounts, "need %d, pxe has %d", n, len(wallets))
	}
	return
}

func (r *Runner) MintPrivateFunds(ctx context.Context) (err error) {
	r.printf("Minting private funds")

	token, err := r.options.Locator.Token(nil)
	if err != nil {
		return
	}

	wallets, err := r.wallets(ctx, 1)
	if err != nil {
		return
	}
	owner := wallets[0]
	token = token.WithWallet(owner)
	r.printf("Owner address: %s", owner.GetAddress())
	r.printf("Token address: %s", token.Address)

	if err = r.showBalances(ctx, "balance_of_private"); err != nil {
		return
	}

	mintAmount := r.options.PrivateMintAmount
	secret, err := RandomFr()
	if err != nil {
		return
	}
	r.printf("Minting %d with secret %s", mintAmount, secret)
	secretHash := ComputeSecretHash(secret)
	r.printf("Secret hash: %s", secretHash)

	sent, err := token.Method("mint_private", mintAmount, secretHash).Send(ctx)
	if err != nil {
		return
	}
	receipt, err := sent.Wait(ctx, r.options.Wait)
	if err != nil {
		return
	}
	if j, err2 := json.MarshalIndent(receipt, "", "  "); err2 == nil {
		r.printf("Receipt: %s", string(j))
	}

	storageSlot, err := token.Artifact.StorageSlot(TokenPendingShieldsSlot)
	if err != nil {
		return
	}
	noteTypeID, err := token.Artifact.NoteTypeID(TokenTransparentNote)
	if err != nil {
		return
	}

	extendedNote := &ExtendedNote{
		Note:            NewNote(NewFr(mintAmount), secretHash),
		Owner:           owner.GetAddress(),
		ContractAddress: token.Address,
		StorageSlot:     storageSlot,
		NoteTypeID:      noteTypeID,
		TxHash:          receipt.TxHash,
	}
	r.printf("Adding note: %s", extendedNote)
	if err = r.pxe.AddNote(ctx, extendedNote); err != nil {
		return
	}

	r.printf("Redeeming shield")
	sent, err = token.Method("redeem_shield", owner.GetAddress(), mintAmount, secret).Send(ctx)
	if err != nil {
		return
	}
	if _, err = sent.Wait(ctx, r.options.Wait); err != nil {
		return
	}

	return r.showBalances(ctx, "balance_of_private")
}

func (r *Runner) TransferPrivateFunds(ctx context.Context) (err error) {
	token, err := r.options.Locator.Token(nil)
	if err != nil {
		return
	}

	wallets, err := r.wallets(ctx, 2)
	if err != nil {
		return
	}
	owner, recipient := wallets[0], wallets[1]
	token = token.WithWallet(owner)

	sent, err := token.Method(
		"transfer",
		owner.GetAddress(),
		recipient.GetAddress(),
		r.options.TransferAmount,
		0,
	).Send(ctx)
	if err != nil {
		return
	}
	r.printf("Sent transfer transaction %s", sent.TxHash())
	if err = r.showBalances(ctx, "balance_of_private"); err != nil {
		return
	}

	r.printf("Awaiting transaction to be mined")
	receipt, err := sent.Wait(ctx, r.options.Wait)
	if err != nil {
		return
	}
	r.printf("Transaction has been mined on block %d", receipt.BlockNumber)

	return r.showBalances(ctx, "balance_of_private")
}

func (r *Runner) MintPublicFunds(ctx context.Context) (err error) {
	token, err := r.options.Locator.Token(nil)
	if err != nil {
		return
	}

	wallets, err := r.wallets(ctx, 1)
	if err != nil {
		return
	}
	owner := wallets[0]
	token = token.WithWallet(owner)

	sent, err := token.Method("mint_public", owner.GetAddress(), r.options.PublicMintAmount).Send(ctx)
	if err != nil {
		return
	}
	r.printf("Sent mint transaction %s", sent.TxHash())
	if err = r.showBalances(ctx, "balance_of_public"); err != nil {
		return
	}

	r.printf("Awaiting transaction to be mined")
	receipt, err := sent.Wait(ctx, r.options.Wait)
	if err != nil {
		return
	}
	r.printf("Transaction has been mined on block %d", receipt.BlockNumber)
	if err = r.showBalances(ctx, "balance_of_public"); err != nil {
		return
	}

	logs, err := r.BlockLogs(ctx)
	if err != nil {
		return
	}
	for _, l := range logs {
		r.printf("Log emitted: %s", Truncate(l.ToHumanReadable(), maxLogChars))
	}

	return
}

// BlockLogs fetches the unencrypted logs of the latest block, at most one.
func (r *Runner) BlockLogs(ctx context.Context) (logs []ExtendedUnencryptedL2Log, err error) {
	blockNumber, err := r.pxe.GetBlockNumber(ctx)
	if err != nil {
		return
	}

	rsp, err := r.pxe.GetUnencryptedLogs(ctx, LogFilter{
		FromBlock: blockNumber,
		ToBlock:   blockNumber + 1,
		Limit:     1,
	})
	if err != nil {
		return
	}

	return rsp.Logs, nil
}
