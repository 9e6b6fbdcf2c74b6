package settings

import (
	"errors"
	"testing"
)

// recordingAdapter is a stub persistence backend recording the calls made by
// the manager and its groups.
type recordingAdapter struct {
	AdapterBase
	loaded       []string
	saves        int
	deleted      []string
	deletedAll   int
	unreferenced []string
}

func (a *recordingAdapter) LoadSetting(s Setting) {
	a.loaded = append(a.loaded, s.GroupKey()+"/"+s.Key())
}

func (a *recordingAdapter) SaveDirty() error {
	a.saves++
	return nil
}

func (a *recordingAdapter) DeleteGroup(key string) error {
	a.deleted = append(a.deleted, key)
	return nil
}

func (a *recordingAdapter) DeleteAll() error {
	a.deletedAll++
	return nil
}

func (a *recordingAdapter) DeleteUnreferenced(g *Group) error {
	if g == nil {
		return ErrNilGroup
	}
	a.unreferenced = append(a.unreferenced, g.Key())
	return nil
}

func TestRegisterIsIdempotent(t *testing.T) {
	m := NewManager()
	g := m.Group("general")

	first, err := Int(g, "volume", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Int(g, "volume", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same cell for repeated registration")
	}
	if got := second.Default(); got != 10 {
		t.Fatalf("expected first registration to win, default %d", got)
	}
}

func TestRegisterTypeMismatch(t *testing.T) {
	m := NewManager()
	g := m.Group("general")

	if _, err := Int(g, "volume", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := String(g, "volume", "loud"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestRegisterNilGroup(t *testing.T) {
	if _, err := Int(nil, "volume", 10); !errors.Is(err, ErrNilGroup) {
		t.Fatalf("expected ErrNilGroup, got %v", err)
	}
}

func TestSealedGroupRejectsNewKeys(t *testing.T) {
	m := NewManager()
	g := m.Group("general")

	volume, err := Int(g, "volume", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.Seal()
	if !g.Sealed() {
		t.Fatalf("expected group to report sealed")
	}
	if _, err := Bool(g, "muted", false); !errors.Is(err, ErrGroupSealed) {
		t.Fatalf("expected ErrGroupSealed, got %v", err)
	}

	// Fetching an already-registered key still works on a sealed group.
	again, err := Int(g, "volume", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != volume {
		t.Fatalf("expected existing cell back from sealed group")
	}
}

func TestSettingsPreserveRegistrationOrder(t *testing.T) {
	m := NewManager()
	g := m.Group("general")

	for _, key := range []string{"c", "a", "b"} {
		if _, err := Int(g, key, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	var keys []string
	for _, s := range g.Settings() {
		keys = append(keys, s.Key())
	}
	if len(keys) != 3 || keys[0] != "c" || keys[1] != "a" || keys[2] != "b" {
		t.Fatalf("unexpected order: %v", keys)
	}
}

func TestDirtySettingsIsRestartable(t *testing.T) {
	m := NewManager()
	g := m.Group("general")

	volume, _ := Int(g, "volume", 10)
	if _, err := Bool(g, "muted", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, _ := String(g, "label", "")

	volume.Set(3)
	label.Set("x")

	seq := g.DirtySettings()
	for range 2 {
		var keys []string
		for s := range seq {
			keys = append(keys, s.Key())
		}
		if len(keys) != 2 || keys[0] != "volume" || keys[1] != "label" {
			t.Fatalf("unexpected dirty settings: %v", keys)
		}
	}
}

func TestRestoreDefaultsSealsAndDeletesUnreferenced(t *testing.T) {
	adapter := &recordingAdapter{}
	m := NewManager()
	if err := m.Bind(adapter); err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}

	g := m.Group("general")
	volume, err := Int(g, "volume", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	volume.Set(3)

	if err := g.RestoreDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := volume.Value(); got != 10 {
		t.Fatalf("expected default back, got %d", got)
	}
	if !g.Sealed() {
		t.Fatalf("expected RestoreDefaults to seal the group")
	}
	if len(adapter.unreferenced) != 1 || adapter.unreferenced[0] != "general" {
		t.Fatalf("expected DeleteUnreferenced(general), got %v", adapter.unreferenced)
	}
}

func TestRestoreDefaultsWithoutAdapter(t *testing.T) {
	m := NewManager()
	g := m.Group("general")
	if _, err := Int(g, "volume", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.RestoreDefaults(); err != nil {
		t.Fatalf("expected nil error without adapter, got %v", err)
	}
}
