package aztec

import (
	"math/big"

	"github.com/pkg/errors"
)

// EncodeArguments flattens args into field elements following the
// parameter kinds of fn. Each supported parameter encodes to one element.
func EncodeArguments(fn *FunctionArtifact, args []any) (encoded []Fr, err error) {
	if len(args) != len(fn.Parameters) {
		err = errors.Wrapf(
			ErrArtifactMismatch,
			"%s expects %d arguments, got %d",
			fn.Name,
			len(fn.Parameters),
			len(args))
		return
	}

	encoded = make([]Fr, 0, len(args))

	for i, param := range fn.Parameters {
		var f Fr
		f, err = encodeArgument(param.Type, args[i])
		if err != nil {
			err = errors.Wrapf(err, "%s argument %d (%s)", fn.Name, i, param.Name)
			return nil, err
		}
		encoded = append(encoded, f)
	}

	return
}

func encodeArgument(typ AbiType, arg any) (f Fr, err error) {
	switch typ.Kind {
	case AbiKindStruct:
		switch v := arg.(type) {
		case Address:
			return v.Fr(), nil
		case *Address:
			return v.Fr(), nil
		}
		err = errors.Wrapf(ErrArtifactMismatch, "struct %s cannot encode %T", typ.Path, arg)
		return

	case AbiKindBoolean:
		v, ok := arg.(bool)
		if !ok {
			err = errors.Wrapf(ErrArtifactMismatch, "boolean cannot encode %T", arg)
			return
		}
		if v {
			return NewFr(1), nil
		}
		return NewFr(0), nil

	case AbiKindField, AbiKindInteger:
		var b *big.Int
		b, err = toBigInt(arg)
		if err != nil {
			return
		}
		if typ.Kind == AbiKindInteger && typ.Width > 0 && b.BitLen() > typ.Width {
			err = errors.Wrapf(ErrArtifactMismatch, "%v overflows u%d", b, typ.Width)
			return
		}
		return FrFromBigInt(b)
	}

	err = errors.Wrapf(ErrArtifactMismatch, "unsupported abi kind '%s'", typ.Kind)
	return
}

func toBigInt(arg any) (b *big.Int, err error) {
	switch v := arg.(type) {
	case Fr:
		return v.BigInt(), nil
	case *big.Int:
		if v == nil {
			break
		}
		b = new(big.Int).Set(v)
	case uint64:
		b = new(big.Int).SetUint64(v)
	case uint32:
		b = new(big.Int).SetUint64(uint64(v))
	case uint:
		b = new(big.Int).SetUint64(uint64(v))
	case int:
		b = big.NewInt(int64(v))
	case int64:
		b = big.NewInt(v)
	case int32:
		b = big.NewInt(int64(v))
	}

	if b == nil {
		err = errors.Wrapf(ErrArtifactMismatch, "cannot encode %T as a field", arg)
		return
	}
	if b.Sign() < 0 {
		err = errors.Wrapf(ErrArtifactMismatch, "negative value %v", b)
		return nil, err
	}
	return
}
