package aztec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtendedNote_Buffer(t *testing.T) {
	note := &ExtendedNote{
		Note:            NewNote(NewFr(20), ComputeSecretHash(NewFr(5))),
		Owner:           Address(NewFr(1)),
		ContractAddress: Address(NewFr(2)),
		StorageSlot:     NewFr(5),
		NoteTypeID:      NewFr(0x54),
		TxHash:          TxHash{0xaa, 0xbb},
	}

	buf, err := note.ToBuffer()
	assert.Nil(t, err)

	decoded, err := ExtendedNoteFromBuffer(buf)
	assert.Nil(t, err)
	assert.Equal(t, note, decoded)

	assert.True(t, strings.HasPrefix(note.String(), "0x"))

	j, err := json.Marshal([]*ExtendedNote{note})
	assert.Nil(t, err)
	assert.Equal(t, `["`+note.String()+`"]`, string(j))

	fromJson := []*ExtendedNote{}
	err = json.Unmarshal(j, &fromJson)
	assert.Nil(t, err)
	assert.Equal(t, note, fromJson[0])
}

func TestExtendedNoteFromBuffer_Invalid(t *testing.T) {
	_, err := ExtendedNoteFromBuffer([]byte{0xff, 0x00})
	assert.Error(t, err)

	note := &ExtendedNote{}
	assert.Error(t, note.UnmarshalText([]byte("0xnothex")))
}
