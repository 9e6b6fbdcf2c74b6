package settings

import (
	"github.com/rotorz/tile-system-settings/internal/convert"
)

// IntegerKind constrains the integral value kinds supported by Int and Enum
// settings.
type IntegerKind interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// FloatKind constrains the floating point value kinds supported by Float
// settings.
type FloatKind interface {
	~float32 | ~float64
}

// Int registers (or fetches) an integer setting on g. The persisted
// representation is a signed 64-bit integer; reading back into narrower
// types is overflow-checked.
func Int[T IntegerKind](g *Group, key string, def T, opts ...ValueOption[T]) (*Value[T], error) {
	conv, err := convert.ForInt64[T]()
	if err != nil {
		return nil, err
	}
	return register(g, key, def, intCodec[T]{conv: conv}, equalOp[T], opts...)
}

// Float registers (or fetches) a floating point setting on g.
func Float[T FloatKind](g *Group, key string, def T, opts ...ValueOption[T]) (*Value[T], error) {
	return register(g, key, def, floatCodec[T]{}, equalOp[T], opts...)
}

// Bool registers (or fetches) a boolean setting on g.
func Bool[T ~bool](g *Group, key string, def T, opts ...ValueOption[T]) (*Value[T], error) {
	return register(g, key, def, boolCodec[T]{}, equalOp[T], opts...)
}

// String registers (or fetches) a string setting on g.
func String[T ~string](g *Group, key string, def T, opts ...ValueOption[T]) (*Value[T], error) {
	return register(g, key, def, stringCodec[T]{}, equalOp[T], opts...)
}

func equalOp[T comparable](a, b T) bool {
	return a == b
}

type intCodec[T IntegerKind] struct {
	conv convert.Int64Conv[T]
}

func (c intCodec[T]) Encode(sz Serializer, key string, value T) error {
	n, err := c.conv.To(value)
	if err != nil {
		return err
	}
	sz.WriteInt(key, n)
	return nil
}

func (c intCodec[T]) Decode(sz Serializer, key string, fallback T) (T, error) {
	var zero T
	def, err := c.conv.To(fallback)
	if err != nil {
		return zero, err
	}
	n, err := sz.ReadInt(key, def)
	if err != nil {
		return zero, err
	}
	return c.conv.From(n)
}

type floatCodec[T FloatKind] struct{}

func (floatCodec[T]) Encode(sz Serializer, key string, value T) error {
	sz.WriteFloat(key, float64(value))
	return nil
}

func (floatCodec[T]) Decode(sz Serializer, key string, fallback T) (T, error) {
	f, err := sz.ReadFloat(key, float64(fallback))
	if err != nil {
		var zero T
		return zero, err
	}
	return T(f), nil
}

type boolCodec[T ~bool] struct{}

func (boolCodec[T]) Encode(sz Serializer, key string, value T) error {
	sz.WriteBool(key, bool(value))
	return nil
}

func (boolCodec[T]) Decode(sz Serializer, key string, fallback T) (T, error) {
	b, err := sz.ReadBool(key, bool(fallback))
	if err != nil {
		var zero T
		return zero, err
	}
	return T(b), nil
}

type stringCodec[T ~string] struct{}

func (stringCodec[T]) Encode(sz Serializer, key string, value T) error {
	sz.WriteString(key, string(value))
	return nil
}

func (stringCodec[T]) Decode(sz Serializer, key string, fallback T) (T, error) {
	s, err := sz.ReadString(key, string(fallback))
	if err != nil {
		var zero T
		return zero, err
	}
	return T(s), nil
}
