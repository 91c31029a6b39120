package aztec

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/sha3"
)

type FunctionType string

const (
	FunctionTypeSecret        FunctionType = "secret"
	FunctionTypeOpen          FunctionType = "open"
	FunctionTypeUnconstrained FunctionType = "unconstrained"
)

const (
	AbiKindField   = "field"
	AbiKindInteger = "integer"
	AbiKindBoolean = "boolean"
	AbiKindStruct  = "struct"
)

type AbiType struct {
	Kind  string `json:"kind"`
	Sign  string `json:"sign,omitempty"`
	Width int    `json:"width,omitempty"`
	Path  string `json:"path,omitempty"`
}

type AbiParameter struct {
	Name       string  `json:"name"`
	Type       AbiType `json:"type"`
	Visibility string  `json:"visibility,omitempty"`
}

type FunctionArtifact struct {
	Name         string         `json:"name"`
	FunctionType FunctionType   `json:"functionType"`
	IsInternal   bool           `json:"isInternal"`
	Parameters   []AbiParameter `json:"parameters"`
	ReturnTypes  []AbiType      `json:"returnTypes"`
}

// Signature renders name(kind,kind,...), the preimage of the selector.
func (f *FunctionArtifact) Signature() string {
	kinds := make([]string, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		if p.Type.Kind == AbiKindStruct {
			kinds = append(kinds, "(Field)")
			continue
		}
		kinds = append(kinds, p.Type.Kind)
	}
	return f.Name + "(" + strings.Join(kinds, ",") + ")"
}

func (f *FunctionArtifact) Selector() FunctionSelector {
	return NewFunctionSelector(f.Signature())
}

type FunctionSelector [4]byte

// NewFunctionSelector takes the first four bytes of the keccak256 of the
// signature.
func NewFunctionSelector(signature string) (sel FunctionSelector) {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(signature))
	copy(sel[:], h.Sum(nil))
	return
}

func (s FunctionSelector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s FunctionSelector) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *FunctionSelector) UnmarshalText(text []byte) (err error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil {
		return errors.Wrapf(err, "invalid selector '%s'", string(text))
	}
	if len(raw) != len(s) {
		return errors.Errorf("invalid selector length %d", len(raw))
	}
	copy(s[:], raw)
	return
}

// ContractArtifact is the static description of a compiled contract: its
// functions and enough of its layout to build notes client side.
type ContractArtifact struct {
	Name      string             `json:"name"`
	Functions []FunctionArtifact `json:"functions"`

	raw []byte
}

func LoadContractArtifact(data []byte) (artifact *ContractArtifact, err error) {
	if !gjson.ValidBytes(data) {
		err = errors.Wrap(ErrArtifactMismatch, "artifact is not valid json")
		return
	}

	artifact = &ContractArtifact{}
	if err = json.Unmarshal(data, artifact); err != nil {
		err = errors.Wrapf(ErrArtifactMismatch, "unable to unmarshal artifact: %v", err)
		return nil, err
	}

	if artifact.Name == "" {
		return nil, errors.Wrap(ErrArtifactMismatch, "artifact has no name")
	}
	if len(artifact.Functions) == 0 {
		return nil, errors.Wrapf(ErrArtifactMismatch, "artifact %s has no functions", artifact.Name)
	}
	for _, fn := range artifact.Functions {
		switch fn.FunctionType {
		case FunctionTypeSecret, FunctionTypeOpen, FunctionTypeUnconstrained:
		default:
			return nil, errors.Wrapf(
				ErrArtifactMismatch,
				"function %s.%s has unknown type '%s'",
				artifact.Name,
				fn.Name,
				fn.FunctionType)
		}
	}

	artifact.raw = data

	return
}

func (a *ContractArtifact) Function(name string) (*FunctionArtifact, error) {
	for i := range a.Functions {
		if a.Functions[i].Name == name {
			return &a.Functions[i], nil
		}
	}
	return nil, errors.Wrapf(ErrFunctionNotFound, "%s.%s", a.Name, name)
}

// StorageSlot reads storageLayout.<name>.slot from the artifact.
func (a *ContractArtifact) StorageSlot(name string) (Fr, error) {
	return a.lookupFr("storageLayout." + escapePath(name) + ".slot")
}

// NoteTypeID reads notes.<name>.id from the artifact.
func (a *ContractArtifact) NoteTypeID(name string) (Fr, error) {
	return a.lookupFr("notes." + escapePath(name) + ".id")
}

func (a *ContractArtifact) lookupFr(path string) (f Fr, err error) {
	result := gjson.GetBytes(a.raw, path)

	switch result.Type {
	case gjson.String:
		f, err = FrFromHex(result.String())
		if err != nil {
			err = errors.Wrapf(ErrArtifactMismatch, "%s in %s: %v", path, a.Name, err)
		}
	case gjson.Number:
		f = NewFr(result.Uint())
	default:
		err = errors.Wrapf(ErrArtifactMismatch, "%s missing from %s artifact", path, a.Name)
	}

	return
}

func escapePath(name string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`)
	return replacer.Replace(name)
}
