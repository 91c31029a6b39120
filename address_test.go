package aztec

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x0000000000000000000000000000000000000000000000000000000000000abc")
	assert.Nil(t, err)
	assert.Equal(t, Address(NewFr(0xabc)), addr)
	assert.False(t, addr.IsZero())
	assert.True(t, ZeroAddress.IsZero())

	for _, in := range []string{"", "0x", "not an address", "0x" + "ff" + "00000000000000000000000000000000000000000000000000000000000000"} {
		_, err = ParseAddress(in)
		assert.True(t, errors.Is(err, ErrInvalidAddress), "expected invalid address for '%s'", in)
	}
}

func TestCompleteAddress_Json(t *testing.T) {
	account := CompleteAddress{
		Address:        Address(NewFr(7)),
		PublicKey:      HexBytes{0x01, 0x02},
		PartialAddress: NewFr(9),
	}

	j, err := json.Marshal(account)
	assert.Nil(t, err)

	decoded := CompleteAddress{}
	err = json.Unmarshal(j, &decoded)
	assert.Nil(t, err)
	assert.Equal(t, account, decoded)

	err = json.Unmarshal([]byte(`{"address":"0xnope"}`), &decoded)
	assert.Error(t, err)
}
