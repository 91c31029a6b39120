package aztec

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/pkg/errors"
)

const FrSize = fr.Bytes

// secretHashSeparator domain-separates secret hashes from any other MiMC
// use over the same field.
const secretHashSeparator = 0x53484945 // "SHIE"

// Fr is an element of the bn254 scalar field, the native word of the
// private ledger. The zero value is the field zero.
type Fr fr.Element

func NewFr(v uint64) (f Fr) {
	(*fr.Element)(&f).SetUint64(v)
	return
}

// FrFromBytes interprets b as a big-endian integer reduced modulo the field.
func FrFromBytes(b []byte) (f Fr) {
	(*fr.Element)(&f).SetBytes(b)
	return
}

func FrFromBigInt(b *big.Int) (f Fr, err error) {
	if b == nil || b.Sign() < 0 || b.Cmp(fr.Modulus()) >= 0 {
		err = errors.Wrapf(ErrInvalidFieldElement, "value %v out of range", b)
		return
	}
	(*fr.Element)(&f).SetBigInt(b)
	return
}

// FrFromHex parses a hex string with an optional 0x prefix. Shorter inputs
// are left padded; values at or above the modulus are rejected.
func FrFromHex(s string) (f Fr, err error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) == 0 || len(s) > FrSize*2 {
		err = errors.Wrapf(ErrInvalidFieldElement, "hex length %d", len(s))
		return
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		err = errors.Wrapf(ErrInvalidFieldElement, "%v", err)
		return
	}

	padded := make([]byte, FrSize)
	copy(padded[FrSize-len(raw):], raw)

	if err = (*fr.Element)(&f).SetBytesCanonical(padded); err != nil {
		err = errors.Wrapf(ErrInvalidFieldElement, "%v", err)
	}
	return
}

// RandomFr draws a uniformly random field element from crypto/rand.
func RandomFr() (f Fr, err error) {
	if _, err = (*fr.Element)(&f).SetRandom(); err != nil {
		err = errors.WithStack(err)
	}
	return
}

// ComputeSecretHash derives the hash that locks a pending shield. It is a
// pure function of the secret.
func ComputeSecretHash(secret Fr) Fr {
	separator := NewFr(secretHashSeparator)
	sepBytes := separator.Bytes()
	secretBytes := secret.Bytes()

	h := mimc.NewMiMC()
	_, _ = h.Write(sepBytes[:])
	_, _ = h.Write(secretBytes[:])

	return FrFromBytes(h.Sum(nil))
}

func (f Fr) element() *fr.Element {
	e := fr.Element(f)
	return &e
}

func (f Fr) Bytes() [FrSize]byte {
	return f.element().Bytes()
}

func (f Fr) BigInt() *big.Int {
	return f.element().BigInt(new(big.Int))
}

func (f Fr) Uint64() (uint64, bool) {
	b := f.BigInt()
	return b.Uint64(), b.IsUint64()
}

func (f Fr) IsZero() bool {
	return f.element().IsZero()
}

func (f Fr) Equal(o Fr) bool {
	return f.element().Equal(o.element())
}

func (f Fr) String() string {
	b := f.Bytes()
	return "0x" + hex.EncodeToString(b[:])
}

func (f Fr) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fr) UnmarshalText(text []byte) (err error) {
	parsed, err := FrFromHex(string(text))
	if err != nil {
		return
	}
	*f = parsed
	return
}
