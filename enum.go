package settings

import (
	"fmt"
	"reflect"

	"github.com/rotorz/tile-system-settings/internal/convert"
)

// Enum registers (or fetches) an enumeration setting on g. T must be a
// declared integer type; using a predeclared type such as plain int fails
// fast with ErrNotEnum, signalling a programming error.
//
// The persisted representation is a signed 64-bit integer. The checked
// converter for T is built once at registration, never per call. When
// values is non-empty, deserialization additionally rejects integers that
// are not declared enumerators, so stale or hand-edited documents degrade to
// the default instead of smuggling in an undefined enumerator.
func Enum[T IntegerKind](g *Group, key string, def T, values []T, opts ...ValueOption[T]) (*Value[T], error) {
	t := reflect.TypeFor[T]()
	if t.PkgPath() == "" {
		return nil, fmt.Errorf("settings: %s: %s: %w", key, t.String(), ErrNotEnum)
	}
	conv, err := convert.ForInt64[T]()
	if err != nil {
		return nil, err
	}

	codec := enumCodec[T]{conv: conv}
	if len(values) > 0 {
		codec.valid = make(map[int64]struct{}, len(values))
		for _, v := range values {
			n, err := conv.To(v)
			if err != nil {
				return nil, err
			}
			codec.valid[n] = struct{}{}
		}
	}
	return register(g, key, def, codec, equalOp[T], opts...)
}

// enumCodec persists enumerations as their integral representation. Equality
// on the cell is integral equality, so assigning a value with the same
// underlying integer is a no-op.
type enumCodec[T IntegerKind] struct {
	conv  convert.Int64Conv[T]
	valid map[int64]struct{}
}

func (c enumCodec[T]) Encode(sz Serializer, key string, value T) error {
	n, err := c.conv.To(value)
	if err != nil {
		return err
	}
	sz.WriteInt(key, n)
	return nil
}

func (c enumCodec[T]) Decode(sz Serializer, key string, fallback T) (T, error) {
	var zero T
	def, err := c.conv.To(fallback)
	if err != nil {
		return zero, err
	}
	n, err := sz.ReadInt(key, def)
	if err != nil {
		return zero, err
	}
	if c.valid != nil {
		if _, ok := c.valid[n]; !ok {
			return zero, fmt.Errorf("settings: %s: %d: %w", key, n, ErrEnumValue)
		}
	}
	return c.conv.From(n)
}
