package settings

import (
	"fmt"
	"iter"
)

// Group is a namespace of settings sharing a group key. Groups are created
// lazily by their manager on first reference and live for the manager's
// lifetime. Registration order is preserved so that serialization output
// stays deterministic.
type Group struct {
	manager *Manager
	key     string
	cells   map[string]Setting
	order   []string
	sealed  bool
}

func newGroup(m *Manager, key string) *Group {
	return &Group{
		manager: m,
		key:     key,
		cells:   map[string]Setting{},
	}
}

// Key returns the group key.
func (g *Group) Key() string {
	return g.key
}

// Manager returns the manager owning this group.
func (g *Group) Manager() *Manager {
	return g.manager
}

// Has reports whether a setting is registered under key.
func (g *Group) Has(key string) bool {
	_, ok := g.cells[key]
	return ok
}

// Find returns the setting registered under key, or nil.
func (g *Group) Find(key string) Setting {
	return g.cells[key]
}

// Settings returns a snapshot of all registered settings in registration
// order.
func (g *Group) Settings() []Setting {
	out := make([]Setting, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.cells[key])
	}
	return out
}

// DirtySettings returns a restartable sequence over the settings that are
// dirty at iteration time. Each call takes a fresh snapshot of the group.
func (g *Group) DirtySettings() iter.Seq[Setting] {
	snapshot := g.Settings()
	return func(yield func(Setting) bool) {
		for _, s := range snapshot {
			if !s.IsDirty() {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// Seal closes the group for further registrations. A sealed group has
// fetched everything it will ever fetch, which is what makes unreferenced
// persisted keys meaningful.
func (g *Group) Seal() {
	g.sealed = true
}

// Sealed reports whether the group is closed for registrations.
func (g *Group) Sealed() bool {
	return g.sealed
}

// RestoreDefaults restores every setting in the group to its default value,
// seals the group, and asks the bound adapter to delete persisted keys no
// longer referenced by any live setting. Deletion I/O failures propagate.
func (g *Group) RestoreDefaults() error {
	g.Seal()
	for _, s := range g.Settings() {
		s.RestoreDefault()
	}
	adapter := g.manager.Adapter()
	if adapter == nil {
		return nil
	}
	return adapter.DeleteUnreferenced(g)
}

func (g *Group) add(key string, s Setting) {
	g.cells[key] = s
	g.order = append(g.order, key)
}

// register implements idempotent get-or-create for the generic setting
// constructors. Fetching an existing key with a different value type fails
// with ErrTypeMismatch; registering into a sealed group fails with
// ErrGroupSealed.
func register[T any](g *Group, key string, def T, codec Codec[T], eq func(a, b T) bool, opts ...ValueOption[T]) (*Value[T], error) {
	if g == nil {
		return nil, ErrNilGroup
	}
	if existing := g.Find(key); existing != nil {
		v, ok := existing.(*Value[T])
		if !ok {
			return nil, fmt.Errorf("settings: %s/%s: %w", g.key, key, ErrTypeMismatch)
		}
		return v, nil
	}
	if g.sealed {
		return nil, fmt.Errorf("settings: %s/%s: %w", g.key, key, ErrGroupSealed)
	}

	v := &Value[T]{
		group: g,
		key:   key,
		value: def,
		def:   def,
		codec: codec,
		equal: eq,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	g.add(key, v)
	g.manager.loadSetting(v)
	return v, nil
}
