package aztec

import (
	"encoding/hex"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Note is the plaintext of a private state commitment.
type Note struct {
	Items []Fr `json:"items"`
}

func NewNote(items ...Fr) *Note {
	return &Note{Items: items}
}

// ExtendedNote is a note plus everything the PXE needs to index it for its
// owner: where it lives and which transaction created it.
type ExtendedNote struct {
	Note            *Note
	Owner           Address
	ContractAddress Address
	StorageSlot     Fr
	NoteTypeID      Fr
	TxHash          TxHash
}

type extendedNoteBuffer struct {
	_               struct{} `cbor:",toarray"`
	Items           [][]byte
	Owner           []byte
	ContractAddress []byte
	StorageSlot     []byte
	NoteTypeID      []byte
	TxHash          []byte
}

func frBytes(f Fr) []byte {
	b := f.Bytes()
	return b[:]
}

func frFromBuffer(b []byte) (f Fr, err error) {
	if len(b) != FrSize {
		err = errors.Wrapf(ErrInvalidFieldElement, "buffer length %d", len(b))
		return
	}
	return FrFromHex(hex.EncodeToString(b))
}

// ToBuffer serialises the note as a cbor array.
func (n *ExtendedNote) ToBuffer() ([]byte, error) {
	buf := extendedNoteBuffer{
		Owner:           frBytes(n.Owner.Fr()),
		ContractAddress: frBytes(n.ContractAddress.Fr()),
		StorageSlot:     frBytes(n.StorageSlot),
		NoteTypeID:      frBytes(n.NoteTypeID),
		TxHash:          n.TxHash[:],
	}
	if n.Note != nil {
		for _, item := range n.Note.Items {
			buf.Items = append(buf.Items, frBytes(item))
		}
	}

	out, err := cbor.Marshal(buf)
	return out, errors.WithStack(err)
}

func ExtendedNoteFromBuffer(data []byte) (n *ExtendedNote, err error) {
	buf := extendedNoteBuffer{}
	if err = cbor.Unmarshal(data, &buf); err != nil {
		err = errors.Wrap(err, "unable to decode extended note")
		return
	}

	n = &ExtendedNote{Note: &Note{}}

	for i, raw := range buf.Items {
		var item Fr
		if item, err = frFromBuffer(raw); err != nil {
			return nil, errors.Wrapf(err, "note item %d", i)
		}
		n.Note.Items = append(n.Note.Items, item)
	}

	fields := []struct {
		name   string
		raw    []byte
		target *Fr
	}{
		{"owner", buf.Owner, (*Fr)(&n.Owner)},
		{"contract address", buf.ContractAddress, (*Fr)(&n.ContractAddress)},
		{"storage slot", buf.StorageSlot, &n.StorageSlot},
		{"note type id", buf.NoteTypeID, &n.NoteTypeID},
	}
	for _, field := range fields {
		if *field.target, err = frFromBuffer(field.raw); err != nil {
			return nil, errors.Wrap(err, field.name)
		}
	}

	if len(buf.TxHash) != TxHashSize {
		return nil, errors.Errorf("invalid tx hash length %d", len(buf.TxHash))
	}
	copy(n.TxHash[:], buf.TxHash)

	return
}

// String renders the 0x hex of ToBuffer, which is also the wire form.
func (n *ExtendedNote) String() string {
	buf, err := n.ToBuffer()
	if err != nil {
		return "<invalid note>"
	}
	return "0x" + hex.EncodeToString(buf)
}

func (n *ExtendedNote) MarshalText() ([]byte, error) {
	buf, err := n.ToBuffer()
	if err != nil {
		return nil, err
	}
	return []byte("0x" + hex.EncodeToString(buf)), nil
}

func (n *ExtendedNote) UnmarshalText(text []byte) (err error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil {
		return errors.Wrap(err, "invalid extended note hex")
	}
	decoded, err := ExtendedNoteFromBuffer(raw)
	if err != nil {
		return
	}
	*n = *decoded
	return
}
