package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Object registers (or fetches) a composite setting on g. T must be a
// pointer type; anything else fails fast with ErrNotReference, signalling a
// programming error. The persisted representation is an opaque JSON tree.
//
// The default equality strategy is reference identity, so replacing the
// value with a different but structurally equal object still marks the cell
// dirty. Values implementing Dirtyable additionally report their own
// internal modifications through the cell's IsDirty.
func Object[T comparable](g *Group, key string, def T, opts ...ValueOption[T]) (*Value[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("settings: %s: %s: %w", key, t.String(), ErrNotReference)
	}
	return register(g, key, def, jsonCodec[T]{elem: t.Elem()}, equalOp[T], opts...)
}

// jsonCodec persists values as opaque JSON trees. Decoding always allocates
// a fresh object, so a cell loaded from its fallback holds a copy of the
// default rather than aliasing it.
type jsonCodec[T any] struct {
	elem reflect.Type
}

func (c jsonCodec[T]) Encode(sz Serializer, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("settings: encode %s: %w", key, err)
	}
	sz.WriteRaw(key, raw)
	return nil
}

func (c jsonCodec[T]) Decode(sz Serializer, key string, fallback T) (T, error) {
	var zero T

	defRaw, err := json.Marshal(fallback)
	if err != nil {
		return zero, fmt.Errorf("settings: encode default %s: %w", key, err)
	}
	raw, err := sz.ReadRaw(key, defRaw)
	if err != nil {
		return zero, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fallback, nil
	}

	target := reflect.New(c.elem)
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return zero, fmt.Errorf("settings: decode %s: %w", key, err)
	}
	return target.Interface().(T), nil
}
