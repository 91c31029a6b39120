package aztec

import (
	"fmt"
)

var (
	ErrNotFound            = fmt.Errorf("not found")
	ErrArtifactMismatch    = fmt.Errorf("artifact mismatch")
	ErrFunctionNotFound    = fmt.Errorf("function not found")
	ErrInvalidAddress      = fmt.Errorf("invalid address")
	ErrInvalidFieldElement = fmt.Errorf("invalid field element")
	ErrInvalidConfig       = fmt.Errorf("invalid config")
	ErrNodeUnreachable     = fmt.Errorf("node unreachable")
	ErrRpcFailed           = fmt.Errorf("rpc failed")
	ErrTxNotFound          = fmt.Errorf("transaction not found")
	ErrTxDropped           = fmt.Errorf("transaction dropped")
	ErrTxReverted          = fmt.Errorf("transaction reverted")
	ErrTxTimeout           = fmt.Errorf("timeout waiting for transaction")
	ErrNoteNotFound        = fmt.Errorf("note not found")
	ErrSecretMismatch      = fmt.Errorf("secret does not match pending shield")
	ErrNotEnoughFunds      = fmt.Errorf("not enough funds")
	ErrUnauthorized        = fmt.Errorf("unauthorized")
	ErrNoAccounts          = fmt.Errorf("not enough registered accounts")
)

// AllErrors lists the sentinels that survive a round trip over the rpc
// boundary, matched by their message.
var AllErrors = []error{
	ErrNotFound,
	ErrArtifactMismatch,
	ErrFunctionNotFound,
	ErrInvalidAddress,
	ErrInvalidFieldElement,
	ErrTxNotFound,
	ErrTxDropped,
	ErrTxReverted,
	ErrNoteNotFound,
	ErrSecretMismatch,
	ErrNotEnoughFunds,
	ErrUnauthorized,
}
