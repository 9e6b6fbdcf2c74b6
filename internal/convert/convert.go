// Package convert builds checked numeric converters between fixed integral
// types and int64. Building a converter inspects the destination type
// through reflection and is allowed to be expensive; converters are cached
// per concrete type, so invoking one is cheap.
package convert

import (
	"fmt"
	"math"
	"reflect"
	"sync"
)

// Error is a checked conversion failure. It carries the offending value and
// both type names so callers can surface a precise warning.
type Error struct {
	Value  any
	Source string
	Target string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("convert: %v (%s) -> %s: %s", e.Value, e.Source, e.Target, e.Reason)
}

// Int64Conv converts between one integral type T and int64, detecting
// overflow in both directions.
type Int64Conv[T any] struct {
	To   func(T) (int64, error)
	From func(int64) (T, error)
}

var (
	cacheMu sync.RWMutex
	cache   = map[reflect.Type]any{}
)

// ForInt64 returns the checked converter pair for T and int64. The pair is
// built on first use for each concrete T and reused thereafter. Building
// fails when T's underlying kind is not integral; that is a programming
// error, not a data error.
func ForInt64[T any]() (Int64Conv[T], error) {
	t := reflect.TypeFor[T]()

	cacheMu.RLock()
	cached, ok := cache[t]
	cacheMu.RUnlock()
	if ok {
		return cached.(Int64Conv[T]), nil
	}

	built, err := buildInt64Conv[T](t)
	if err != nil {
		return Int64Conv[T]{}, err
	}

	cacheMu.Lock()
	// First build wins so every caller shares one converter per type.
	if cached, ok := cache[t]; ok {
		cacheMu.Unlock()
		return cached.(Int64Conv[T]), nil
	}
	cache[t] = built
	cacheMu.Unlock()
	return built, nil
}

func buildInt64Conv[T any](t reflect.Type) (Int64Conv[T], error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		minValue := int64(-1) << (bits - 1)
		maxValue := int64(1)<<(bits-1) - 1
		return Int64Conv[T]{
			To: func(v T) (int64, error) {
				return reflect.ValueOf(v).Int(), nil
			},
			From: func(v int64) (T, error) {
				var zero T
				if v < minValue || v > maxValue {
					return zero, &Error{
						Value:  v,
						Source: "int64",
						Target: t.String(),
						Reason: fmt.Sprintf("overflows %d-bit signed integer", bits),
					}
				}
				out := reflect.New(t).Elem()
				out.SetInt(v)
				return out.Interface().(T), nil
			},
		}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		bits := t.Bits()
		var maxValue uint64 = math.MaxUint64
		if bits < 64 {
			maxValue = uint64(1)<<bits - 1
		}
		return Int64Conv[T]{
			To: func(v T) (int64, error) {
				u := reflect.ValueOf(v).Uint()
				if u > math.MaxInt64 {
					return 0, &Error{
						Value:  u,
						Source: t.String(),
						Target: "int64",
						Reason: "overflows 64-bit signed integer",
					}
				}
				return int64(u), nil
			},
			From: func(v int64) (T, error) {
				var zero T
				if v < 0 || uint64(v) > maxValue {
					return zero, &Error{
						Value:  v,
						Source: "int64",
						Target: t.String(),
						Reason: fmt.Sprintf("overflows %d-bit unsigned integer", bits),
					}
				}
				out := reflect.New(t).Elem()
				out.SetUint(uint64(v))
				return out.Interface().(T), nil
			},
		}, nil

	default:
		return Int64Conv[T]{}, &Error{
			Value:  t.String(),
			Source: t.String(),
			Target: "int64",
			Reason: "underlying kind is not integral",
		}
	}
}
