package aztec

import (
	"context"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Wallet pairs a PXE with the account it acts as. Read-only callers can use
// the zero address.
type Wallet struct {
	PXE
	address Address
}

func NewWallet(pxe PXE, address Address) *Wallet {
	return &Wallet{PXE: pxe, address: address}
}

func (w *Wallet) GetAddress() Address {
	return w.address
}

// TestAccountWallets returns a wallet per account registered in the PXE,
// in the order the PXE reports them.
func TestAccountWallets(ctx context.Context, pxe PXE) (wallets []*Wallet, err error) {
	accounts, err := pxe.GetRegisteredAccounts(ctx)
	if err != nil {
		return
	}
	for _, account := range accounts {
		wallets = append(wallets, NewWallet(pxe, account.Address))
	}
	return
}

// Contract is a deployed contract bound to a wallet.
type Contract struct {
	Address  Address
	Artifact *ContractArtifact
	wallet   *Wallet
}

func ContractAt(address Address, artifact *ContractArtifact, wallet *Wallet) *Contract {
	return &Contract{
		Address:  address,
		Artifact: artifact,
		wallet:   wallet,
	}
}

func (c *Contract) Wallet() *Wallet {
	return c.wallet
}

// WithWallet returns the same contract acting as another wallet.
func (c *Contract) WithWallet(wallet *Wallet) *Contract {
	return ContractAt(c.Address, c.Artifact, wallet)
}

// Method prepares a call. Lookup and encoding errors are reported by
// Simulate, Send or Request.
func (c *Contract) Method(name string, args ...any) *FunctionInteraction {
	fi := &FunctionInteraction{contract: c}

	fi.fn, fi.err = c.Artifact.Function(name)
	if fi.err != nil {
		return fi
	}

	args2, err := EncodeArguments(fi.fn, args)
	if err != nil {
		fi.err = err
		return fi
	}

	fi.call = &FunctionCall{
		To:           c.Address,
		FunctionName: fi.fn.Name,
		Selector:     fi.fn.Selector(),
		Type:         fi.fn.FunctionType,
		Args:         args2,
	}

	return fi
}

type FunctionInteraction struct {
	contract *Contract
	fn       *FunctionArtifact
	call     *FunctionCall
	err      error
}

func (f *FunctionInteraction) Call() (*FunctionCall, error) {
	return f.call, f.err
}

func (f *FunctionInteraction) Request() (req *TxExecutionRequest, err error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.fn.FunctionType == FunctionTypeUnconstrained {
		return nil, errors.Errorf("%s is unconstrained and can only be simulated", f.fn.Name)
	}

	return &TxExecutionRequest{
		Origin: f.contract.wallet.GetAddress(),
		Calls:  []FunctionCall{*f.call},
	}, nil
}

// Simulate runs an unconstrained function on the PXE and returns its raw
// return values.
func (f *FunctionInteraction) Simulate(ctx context.Context) (out []Fr, err error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.fn.FunctionType != FunctionTypeUnconstrained {
		return nil, errors.Errorf("%s is %s, only unconstrained functions can be simulated", f.fn.Name, f.fn.FunctionType)
	}

	out, err = f.contract.wallet.ViewTx(ctx, f.call, f.contract.wallet.GetAddress())
	if err != nil {
		return nil, errors.Wrapf(err, "simulate %s", f.fn.Name)
	}
	return
}

func (f *FunctionInteraction) SimulateBigInt(ctx context.Context) (*big.Int, error) {
	out, err := f.Simulate(ctx)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, errors.Wrapf(ErrArtifactMismatch, "%s returned %d values, expected 1", f.fn.Name, len(out))
	}
	return out[0].BigInt(), nil
}

// Send submits the call as a transaction and returns as soon as the PXE
// has accepted it.
func (f *FunctionInteraction) Send(ctx context.Context) (sent *SentTx, err error) {
	req, err := f.Request()
	if err != nil {
		return
	}

	hash, err := f.contract.wallet.SendTx(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "send %s", f.fn.Name)
	}

	log.Debug().Msgf("sent %s as tx %s", f.fn.Name, hash)

	return &SentTx{pxe: f.contract.wallet.PXE, hash: hash, log: Log()}, nil
}

const DefaultWaitInterval = time.Second

type WaitOpts struct {
	// Interval between receipt polls, DefaultWaitInterval when zero.
	Interval time.Duration
	// Timeout of zero waits until the context is done.
	Timeout time.Duration
}

type SentTx struct {
	pxe  PXE
	hash TxHash
	log  *zerolog.Logger
}

func NewSentTx(pxe PXE, hash TxHash) *SentTx {
	return &SentTx{pxe: pxe, hash: hash, log: Log()}
}

func (s *SentTx) TxHash() TxHash {
	return s.hash
}

// Wait polls the receipt until the transaction is mined. Dropped and
// reverted transactions are returned as errors along with their receipt, as
// is a status the client does not recognise.
func (s *SentTx) Wait(ctx context.Context, opts *WaitOpts) (receipt *TxReceipt, err error) {
	if opts == nil {
		opts = &WaitOpts{}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err = s.pxe.GetTxReceipt(ctx, s.hash)
		if err != nil {
			return
		}

		switch receipt.Status {
		case TxStatusMined:
			return
		case TxStatusDropped:
			err = errors.Wrapf(ErrTxDropped, "tx %s: %s", s.hash, receipt.Error)
			return
		case TxStatusReverted:
			err = errors.Wrapf(ErrTxReverted, "tx %s: %s", s.hash, receipt.Error)
			return
		case TxStatusPending:
		default:
			err = errors.Wrapf(ErrRpcFailed, "tx %s: unknown status '%s'", s.hash, receipt.Status)
			return
		}

		s.log.Debug().Msgf("tx %s is %s", s.hash, receipt.Status)

		select {
		case <-ctx.Done():
			err = errors.WithStack(ctx.Err())
			return
		case <-timeout:
			err = errors.Wrapf(ErrTxTimeout, "tx %s still %s after %s", s.hash, receipt.Status, opts.Timeout)
			return
		case <-ticker.C:
		}
	}
}
