// Package settings implements a typed key/value configuration model with
// pluggable persistence backends, lazy loading with safe fallback to default
// values, and dirty-state tracking down to mutable nested objects.
//
// Settings are grouped under a group key, groups are owned by a Manager, and
// a single Adapter moves dirty settings to and from a persistent store. The
// store subpackage provides the JSON-backed adapter together with the
// synchronization pass that reconciles freshly read documents against live
// settings.
package settings

import (
	"fmt"
	"reflect"
)

// Setting is one named, typed configuration value with a default and dirty
// tracking. Concrete cells are created through the generic constructors
// (Int, Float, Bool, String, Enum, Object) and registered on a Group.
type Setting interface {
	// GroupKey returns the key of the group owning this setting.
	GroupKey() string
	// Key returns the setting key, unique within its group.
	Key() string
	// IsDirty reports whether the in-memory value changed since the last
	// successful Serialize or Deserialize.
	IsDirty() bool
	// Serialize writes the current value through sz and clears the dirty
	// flag on success.
	Serialize(sz Serializer) error
	// Deserialize reads the persisted value from sz, falling back to the
	// default when nothing was persisted, and clears the dirty flag on
	// success. The value is left untouched when an error is returned.
	Deserialize(sz Serializer) error
	// RestoreDefault assigns the default value through the normal
	// assignment path: observers fire and the dirty flag is raised when the
	// value actually changes.
	RestoreDefault()
}

// Dirtyable is an optional capability for object setting values that track
// their own internal modifications. A setting holding a Dirtyable value
// reports dirty whenever the value reports itself dirty, even if the
// reference held by the setting never changed.
type Dirtyable interface {
	IsDirty() bool
	MarkClean()
}

// Codec converts a setting value to and from the primitives understood by a
// Serializer. Codecs are constructed once per setting; any expensive
// per-type preparation happens at construction time.
type Codec[T any] interface {
	Encode(sz Serializer, key string, value T) error
	Decode(sz Serializer, key string, fallback T) (T, error)
}

// Value is a typed setting cell. It holds the current and default values,
// tracks dirtiness, and delegates persistence to its codec. Values are
// created through the package-level generic constructors and live for the
// lifetime of their manager.
type Value[T any] struct {
	group *Group
	key   string

	value T
	def   T
	dirty bool

	codec     Codec[T]
	equal     func(a, b T) bool
	filter    func(T) T
	observers []func(old, next T)

	constraintExpr string
}

// ValueOption configures a setting cell at registration time.
type ValueOption[T any] func(*Value[T])

// WithEquality replaces the cell's equality strategy. Assigning a value that
// compares equal to the current one under this strategy is a no-op: no dirty
// flag, no observer notification.
func WithEquality[T any](eq func(a, b T) bool) ValueOption[T] {
	return func(v *Value[T]) {
		if eq != nil {
			v.equal = eq
		}
	}
}

// WithFilter applies filter to every candidate value before the equality
// check, both on assignment and after deserialization. Typical use is
// clamping to a valid range.
func WithFilter[T any](filter func(T) T) ValueOption[T] {
	return func(v *Value[T]) {
		v.filter = filter
	}
}

// WithObserver registers fn to run after every effective value change.
func WithObserver[T any](fn func(old, next T)) ValueOption[T] {
	return func(v *Value[T]) {
		if fn != nil {
			v.observers = append(v.observers, fn)
		}
	}
}

// WithConstraint attaches a validation expression evaluated against each
// candidate value by the manager's constraint evaluator. An expression that
// returns false, or fails to evaluate, rejects the assignment and emits a
// warning feedback event.
func WithConstraint[T any](expr string) ValueOption[T] {
	return func(v *Value[T]) {
		v.constraintExpr = expr
	}
}

// GroupKey returns the key of the group owning this setting.
func (v *Value[T]) GroupKey() string {
	return v.group.Key()
}

// Key returns the setting key.
func (v *Value[T]) Key() string {
	return v.key
}

// Value returns the current value.
func (v *Value[T]) Value() T {
	return v.value
}

// Default returns the default value.
func (v *Value[T]) Default() T {
	return v.def
}

// IsDirty reports whether the value changed since the last successful
// serialize or deserialize. Values implementing Dirtyable contribute their
// own internal dirty state.
func (v *Value[T]) IsDirty() bool {
	if v.dirty {
		return true
	}
	if d, ok := dirtyable(v.value); ok {
		return d.IsDirty()
	}
	return false
}

// Set assigns next as the current value. The filter runs first, then the
// equality strategy decides whether anything changed; assigning an equal
// value is a no-op. An attached constraint may reject the assignment.
func (v *Value[T]) Set(next T) {
	if v.filter != nil {
		next = v.filter(next)
	}
	if v.equal(v.value, next) {
		return
	}
	allowed, err := v.constraintVerdict(next)
	if err != nil || !allowed {
		m := v.group.Manager()
		m.Feedback(SeverityWarning,
			"settings: constraint rejected value for "+v.group.Key()+"/"+v.key, err)
		return
	}
	old := v.value
	v.value = next
	v.dirty = true
	v.notify(old, next)
}

// RestoreDefault assigns the default value through Set.
func (v *Value[T]) RestoreDefault() {
	v.Set(v.def)
}

// Serialize writes the current value through sz. On success the cell is
// clean, and a Dirtyable value is marked clean as well.
func (v *Value[T]) Serialize(sz Serializer) error {
	if err := v.codec.Encode(sz, v.key, v.value); err != nil {
		return err
	}
	v.markClean()
	return nil
}

// Deserialize reads the persisted value from sz, using the default as
// fallback when nothing was persisted. On success the cell holds the read
// value and is clean; on error the cell is untouched.
func (v *Value[T]) Deserialize(sz Serializer) error {
	next, err := v.codec.Decode(sz, v.key, v.def)
	if err != nil {
		return err
	}
	if v.filter != nil {
		next = v.filter(next)
	}
	allowed, err := v.constraintVerdict(next)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("settings: %s/%s: %w", v.group.Key(), v.key, ErrConstraint)
	}
	old := v.value
	changed := !v.equal(old, next)
	v.value = next
	v.markClean()
	if changed {
		v.notify(old, next)
	}
	return nil
}

func (v *Value[T]) markClean() {
	v.dirty = false
	if d, ok := dirtyable(v.value); ok {
		d.MarkClean()
	}
}

// dirtyable reports whether value carries usable dirty tracking. A typed nil
// pointer satisfies the interface assertion but cannot be called.
func dirtyable(value any) (Dirtyable, bool) {
	d, ok := value.(Dirtyable)
	if !ok || d == nil {
		return nil, false
	}
	rv := reflect.ValueOf(d)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
	}
	return d, true
}

func (v *Value[T]) notify(old, next T) {
	for _, fn := range v.observers {
		fn(old, next)
	}
}

// constraintVerdict evaluates the attached constraint expression, if any.
// It never emits feedback; callers decide how a rejection surfaces.
func (v *Value[T]) constraintVerdict(next T) (bool, error) {
	if v.constraintExpr == "" {
		return true, nil
	}
	return v.group.Manager().evaluateConstraint(ConstraintContext{
		GroupKey: v.group.Key(),
		Key:      v.key,
		Value:    next,
		Default:  v.def,
	}, v.constraintExpr)
}
