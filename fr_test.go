package aztec

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFrFromHex(t *testing.T) {
	testCases := []struct {
		in       string
		expected uint64
	}{
		{"0x01", 1},
		{"0x1", 1},
		{"ff", 255},
		{"0X0a", 10},
		{"0x0000000000000000000000000000000000000000000000000000000000000054", 84},
	}

	for _, testCase := range testCases {
		f, err := FrFromHex(testCase.in)
		assert.Nil(t, err, testCase.in)
		assert.Equal(t, NewFr(testCase.expected), f, testCase.in)
	}
}

func TestFrFromHex_Invalid(t *testing.T) {
	modulus := fr.Modulus()
	aboveModulus := new(big.Int).Add(modulus, big.NewInt(1))

	for _, in := range []string{
		"",
		"0x",
		"0xzz",
		"0x" + modulus.Text(16),
		"0x" + aboveModulus.Text(16),
		"0x01000000000000000000000000000000000000000000000000000000000000000000",
	} {
		_, err := FrFromHex(in)
		assert.True(t, errors.Is(err, ErrInvalidFieldElement), "expected invalid field element for '%s'", in)
	}
}

func TestFr_String(t *testing.T) {
	f := NewFr(0x2a)
	assert.Equal(t, "0x000000000000000000000000000000000000000000000000000000000000002a", f.String())

	parsed, err := FrFromHex(f.String())
	assert.Nil(t, err)
	assert.True(t, parsed.Equal(f))

	j, err := json.Marshal([]Fr{f})
	assert.Nil(t, err)
	assert.Equal(t, `["0x000000000000000000000000000000000000000000000000000000000000002a"]`, string(j))
}

func TestFrFromBigInt(t *testing.T) {
	f, err := FrFromBigInt(big.NewInt(20))
	assert.Nil(t, err)
	v, ok := f.Uint64()
	assert.True(t, ok)
	assert.Equal(t, uint64(20), v)

	_, err = FrFromBigInt(big.NewInt(-1))
	assert.True(t, errors.Is(err, ErrInvalidFieldElement))

	_, err = FrFromBigInt(fr.Modulus())
	assert.True(t, errors.Is(err, ErrInvalidFieldElement))

	_, err = FrFromBigInt(nil)
	assert.True(t, errors.Is(err, ErrInvalidFieldElement))
}

func TestComputeSecretHash(t *testing.T) {
	secret, err := RandomFr()
	assert.Nil(t, err)

	hash := ComputeSecretHash(secret)
	assert.Equal(t, hash, ComputeSecretHash(secret), "secret hash must be deterministic")
	assert.False(t, hash.Equal(secret))

	other, err := RandomFr()
	assert.Nil(t, err)
	if other.Equal(secret) {
		t.Fatalf("two random field elements collided")
	}
	assert.NotEqual(t, hash, ComputeSecretHash(other))

}

func TestComputeSecretHash_KnownAnswers(t *testing.T) {
	testCases := []struct {
		secret   uint64
		expected string
	}{
		{1, "0x0828616f4f2382bc18bac25a6ddde1f695e9ac192e6defbada9948f337d77e5c"},
		{2, "0x130e616e675b0a46918a9b9782081e95bc4de37b22141881f8bc57b38fac1d3f"},
	}

	for _, testCase := range testCases {
		expected, err := FrFromHex(testCase.expected)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		hash := ComputeSecretHash(NewFr(testCase.secret))
		assert.Equal(t, expected, hash, "secret %d", testCase.secret)
		assert.Equal(t, testCase.expected, hash.String())
	}
}
