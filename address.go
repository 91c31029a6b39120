package aztec

import (
	"github.com/pkg/errors"
)

// Address identifies an account or a contract on the private ledger. It is
// a single field element.
type Address Fr

var ZeroAddress Address

func ParseAddress(s string) (addr Address, err error) {
	f, err := FrFromHex(s)
	if err != nil {
		err = errors.Wrapf(ErrInvalidAddress, "'%s': %v", s, err)
		return
	}
	return Address(f), nil
}

func (a Address) Fr() Fr {
	return Fr(a)
}

func (a Address) IsZero() bool {
	return Fr(a).IsZero()
}

func (a Address) String() string {
	return Fr(a).String()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) (err error) {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return
	}
	*a = parsed
	return
}

// CompleteAddress is a registered account as reported by the PXE.
type CompleteAddress struct {
	Address        Address  `json:"address"`
	PublicKey      HexBytes `json:"publicKey"`
	PartialAddress Fr       `json:"partialAddress"`
}
