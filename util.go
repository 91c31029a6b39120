package aztec

import (
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// HexBytes marshals to and from 0x prefixed hex text.
type HexBytes []byte

func (h HexBytes) String() string {
	return "0x" + hex.EncodeToString(h)
}

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HexBytes) UnmarshalText(text []byte) (err error) {
	s := strings.TrimPrefix(string(text), "0x")
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrapf(err, "invalid hex '%s'", string(text))
	}
	*h = decoded
	return
}

// PrintableString keeps printable runes of b and drops the rest, the way
// log payloads are shown to humans.
func PrintableString(b []byte) string {
	var sb strings.Builder
	for _, r := range string(b) {
		if unicode.IsPrint(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
