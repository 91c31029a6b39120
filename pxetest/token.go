package pxetest

import (
	"fmt"
	"math/big"

	. "github.com/alexdcox/aztec-go"
	"github.com/pkg/errors"
)

type pendingShield struct {
	amount     Fr
	secretHash Fr
	txHash     TxHash
	// owner is set once the note has been added to the PXE, only then can
	// the owner redeem it.
	owner    *Address
	redeemed bool
}

// tokenState is a scripted stand-in for the token contract: enough
// bookkeeping for balances to move the way the real contract moves them.
type tokenState struct {
	address  Address
	admin    Address
	artifact *ContractArtifact

	publicBalances  map[Address]*big.Int
	privateBalances map[Address]*big.Int
	pendingShields  []*pendingShield
	totalSupply     *big.Int
}

func newTokenState(address, admin Address, artifact *ContractArtifact) *tokenState {
	return &tokenState{
		address:         address,
		admin:           admin,
		artifact:        artifact,
		publicBalances:  map[Address]*big.Int{},
		privateBalances: map[Address]*big.Int{},
		totalSupply:     new(big.Int),
	}
}

func copyBalances(balances map[Address]*big.Int) map[Address]*big.Int {
	out := make(map[Address]*big.Int, len(balances))
	for owner, b := range balances {
		out[owner] = new(big.Int).Set(b)
	}
	return out
}

// snapshot deep copies the mutable state so a reverted tx can be undone.
func (t *tokenState) snapshot() *tokenState {
	s := *t
	s.publicBalances = copyBalances(t.publicBalances)
	s.privateBalances = copyBalances(t.privateBalances)
	s.totalSupply = new(big.Int).Set(t.totalSupply)
	s.pendingShields = make([]*pendingShield, len(t.pendingShields))
	for i, shield := range t.pendingShields {
		c := *shield
		s.pendingShields[i] = &c
	}
	return &s
}

func (t *tokenState) restore(s *tokenState) {
	*t = *s
}

func balanceOf(balances map[Address]*big.Int, owner Address) *big.Int {
	if b, ok := balances[owner]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func credit(balances map[Address]*big.Int, owner Address, amount *big.Int) {
	balances[owner] = new(big.Int).Add(balanceOf(balances, owner), amount)
}

func debit(balances map[Address]*big.Int, owner Address, amount *big.Int) error {
	current := balanceOf(balances, owner)
	if current.Cmp(amount) < 0 {
		return errors.Wrapf(ErrNotEnoughFunds, "balance of %s is %s, need %s", owner, current, amount)
	}
	balances[owner] = current.Sub(current, amount)
	return nil
}

func (t *tokenState) checkCall(call *FunctionCall) (fn *FunctionArtifact, err error) {
	if call.To != t.address {
		err = errors.Wrapf(ErrNotFound, "no contract deployed at %s", call.To)
		return
	}

	fn, err = t.artifact.Function(call.FunctionName)
	if err != nil {
		return
	}

	if fn.FunctionType != call.Type {
		err = errors.Wrapf(ErrArtifactMismatch, "%s is %s, call says %s", fn.Name, fn.FunctionType, call.Type)
		return
	}
	if len(call.Args) != len(fn.Parameters) {
		err = errors.Wrapf(ErrArtifactMismatch, "%s expects %d arguments, got %d", fn.Name, len(fn.Parameters), len(call.Args))
		return
	}
	if call.Selector != fn.Selector() {
		err = errors.Wrapf(ErrArtifactMismatch, "%s selector %s, call says %s", fn.Name, fn.Selector(), call.Selector)
		return
	}

	return
}

// view answers unconstrained calls.
func (t *tokenState) view(call *FunctionCall) (out []Fr, err error) {
	fn, err := t.checkCall(call)
	if err != nil {
		return
	}

	var value *big.Int

	switch fn.Name {
	case "balance_of_private":
		value = balanceOf(t.privateBalances, Address(call.Args[0]))
	case "balance_of_public":
		value = balanceOf(t.publicBalances, Address(call.Args[0]))
	case "total_supply":
		value = new(big.Int).Set(t.totalSupply)
	default:
		err = errors.Wrapf(ErrFunctionNotFound, "%s is not a view", fn.Name)
		return
	}

	f, err := FrFromBigInt(value)
	if err != nil {
		return
	}

	return []Fr{f}, nil
}

// execute checks a state changing call from origin and, when apply is set,
// applies it. Checking never mutates state.
func (t *tokenState) execute(origin Address, call *FunctionCall, txHash TxHash, apply bool) (logs []UnencryptedL2Log, err error) {
	fn, err := t.checkCall(call)
	if err != nil {
		return
	}

	args := call.Args

	switch fn.Name {
	case "mint_public":
		to, amount := Address(args[0]), args[1].BigInt()
		if origin != t.admin {
			return nil, errors.Wrapf(ErrUnauthorized, "%s is not a minter", origin)
		}
		if !apply {
			return
		}
		credit(t.publicBalances, to, amount)
		t.totalSupply.Add(t.totalSupply, amount)
		logs = append(logs, UnencryptedL2Log{
			ContractAddress: t.address,
			Selector:        fn.Selector(),
			Data:            []byte(fmt.Sprintf("mint_public to=%s amount=%s", to, amount)),
		})

	case "mint_private":
		if origin != t.admin {
			return nil, errors.Wrapf(ErrUnauthorized, "%s is not a minter", origin)
		}
		if !apply {
			return
		}
		t.pendingShields = append(t.pendingShields, &pendingShield{
			amount:     args[0],
			secretHash: args[1],
			txHash:     txHash,
		})
		t.totalSupply.Add(t.totalSupply, args[0].BigInt())

	case "redeem_shield":
		to, amount, secret := Address(args[0]), args[1], args[2]
		shield, err2 := t.findShield(origin, amount, ComputeSecretHash(secret))
		if err2 != nil {
			return nil, err2
		}
		if !apply {
			return
		}
		shield.redeemed = true
		credit(t.privateBalances, to, amount.BigInt())

	case "transfer", "transfer_public":
		from, to, amount, nonce := Address(args[0]), Address(args[1]), args[2].BigInt(), args[3]
		if !nonce.IsZero() {
			return nil, errors.Wrap(ErrUnauthorized, "authwit transfers are not supported")
		}
		if origin != from {
			return nil, errors.Wrapf(ErrUnauthorized, "%s cannot move funds of %s", origin, from)
		}
		balances := t.privateBalances
		if fn.Name == "transfer_public" {
			balances = t.publicBalances
		}
		if balanceOf(balances, from).Cmp(amount) < 0 {
			return nil, errors.Wrapf(ErrNotEnoughFunds, "balance of %s is below %s", from, amount)
		}
		if !apply {
			return
		}
		if err = debit(balances, from, amount); err != nil {
			return
		}
		credit(balances, to, amount)

	default:
		err = errors.Wrapf(ErrFunctionNotFound, "%s is not supported by the sandbox token", fn.Name)
	}

	return
}

func (t *tokenState) findShield(owner Address, amount, secretHash Fr) (*pendingShield, error) {
	var unregistered bool

	for _, shield := range t.pendingShields {
		if shield.redeemed || shield.secretHash != secretHash || shield.amount != amount {
			continue
		}
		if shield.owner == nil || *shield.owner != owner {
			unregistered = true
			continue
		}
		return shield, nil
	}

	if unregistered {
		return nil, errors.Wrapf(ErrNoteNotFound, "shield of %s has not been added for %s", amount.BigInt(), owner)
	}
	return nil, errors.Wrapf(ErrSecretMismatch, "no pending shield of %s for the given secret", amount.BigInt())
}

// addNote registers a TransparentNote created by mint_private for owner.
func (t *tokenState) addNote(note *ExtendedNote) (err error) {
	if note.ContractAddress != t.address {
		return errors.Wrapf(ErrNotFound, "no contract deployed at %s", note.ContractAddress)
	}

	slot, err := t.artifact.StorageSlot(TokenPendingShieldsSlot)
	if err != nil {
		return
	}
	noteTypeID, err := t.artifact.NoteTypeID(TokenTransparentNote)
	if err != nil {
		return
	}

	if note.StorageSlot != slot || note.NoteTypeID != noteTypeID {
		return errors.Wrapf(
			ErrNoteNotFound,
			"slot %s / note type %s is not a pending shield",
			note.StorageSlot,
			note.NoteTypeID)
	}
	if note.Note == nil || len(note.Note.Items) != 2 {
		return errors.Wrap(ErrNoteNotFound, "transparent note must carry amount and secret hash")
	}

	amount, secretHash := note.Note.Items[0], note.Note.Items[1]

	for _, shield := range t.pendingShields {
		if shield.txHash != note.TxHash || shield.redeemed {
			continue
		}
		if shield.amount != amount || shield.secretHash != secretHash {
			continue
		}
		owner := note.Owner
		shield.owner = &owner
		return nil
	}

	return errors.Wrapf(ErrNoteNotFound, "no pending shield in tx %s", note.TxHash)
}
