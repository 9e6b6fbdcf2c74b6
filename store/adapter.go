package store

import (
	"errors"
	"fmt"

	settings "github.com/rotorz/tile-system-settings"
)

// Adapter is the JSON-backed persistence adapter. It lazily reads and
// synchronizes the document from its medium on first use, serializes dirty
// cells into store records, and writes the document back out.
type Adapter struct {
	settings.AdapterBase

	store  *Store
	medium Medium

	loaded     bool
	saveNeeded bool
}

// NewAdapter constructs an adapter persisting through medium. A nil medium
// defaults to an empty in-memory one.
func NewAdapter(medium Medium) *Adapter {
	if medium == nil {
		medium = NewMemoryMedium(nil)
	}
	return &Adapter{
		store:  NewStore(),
		medium: medium,
	}
}

// Store returns the adapter's document mirror.
func (a *Adapter) Store() *Store {
	return a.store
}

// SaveNeeded reports whether the last synchronization found live state
// disagreeing with the document, so a save should be scheduled.
func (a *Adapter) SaveNeeded() bool {
	return a.saveNeeded
}

// Load reads the document from the medium and synchronizes it against the
// bound manager's live groups. It runs implicitly before the first setting
// load or save; calling it again re-reads the medium, picking up external
// edits to the document.
func (a *Adapter) Load() error {
	m := a.Manager()
	if m == nil {
		return settings.ErrNilManager
	}
	a.loaded = true
	doc, err := a.medium.ReadDocument()
	if err != nil {
		return err
	}
	saveNeeded, err := a.store.Sync(doc, m)
	if err != nil {
		return err
	}
	if saveNeeded {
		a.saveNeeded = true
	}
	return nil
}

// LoadSetting populates s from the store. Any failure degrades to the
// setting's default value plus a warning feedback event; loading is never
// fatal to the host.
func (a *Adapter) LoadSetting(s settings.Setting) {
	m := a.Manager()
	if m == nil || s == nil {
		return
	}
	if err := a.ensureLoaded(); err != nil {
		m.Feedback(settings.SeverityWarning,
			"settings: failed to read persisted settings document", err)
	}
	rec := a.store.Record(s.GroupKey())
	if err := s.Deserialize(rec); err != nil {
		s.RestoreDefault()
		m.Feedback(settings.SeverityWarning,
			fmt.Sprintf("settings: failed to load %s/%s; default restored", s.GroupKey(), s.Key()),
			err)
	}
}

// SaveDirty serializes every dirty setting of every known group into the
// store and writes the document. Cells that fail to serialize are reported
// in the joined error while the rest are still persisted.
func (a *Adapter) SaveDirty() error {
	m := a.Manager()
	if m == nil {
		return settings.ErrNilManager
	}
	if err := a.ensureLoaded(); err != nil {
		return err
	}

	var errs []error
	for _, g := range m.Groups() {
		rec := a.store.Record(g.Key())
		for cell := range g.DirtySettings() {
			if err := cell.Serialize(rec); err != nil {
				errs = append(errs, fmt.Errorf("settings: save %s/%s: %w", g.Key(), cell.Key(), err))
			}
		}
	}

	if err := a.writeDocument(); err != nil {
		errs = append(errs, err)
	} else {
		a.saveNeeded = false
	}
	return errors.Join(errs...)
}

// DeleteGroup removes one group's persisted values and rewrites the
// document. Live settings are untouched; medium failures propagate.
func (a *Adapter) DeleteGroup(groupKey string) error {
	if err := a.ensureLoaded(); err != nil {
		return err
	}
	a.store.Remove(groupKey)
	return a.writeDocument()
}

// DeleteAll removes every persisted value and rewrites the document. Live
// settings are untouched; medium failures propagate.
func (a *Adapter) DeleteAll() error {
	if err := a.ensureLoaded(); err != nil {
		return err
	}
	a.store.Clear()
	return a.writeDocument()
}

// DeleteUnreferenced removes persisted keys of g's group with no
// corresponding live setting, then rewrites the document.
func (a *Adapter) DeleteUnreferenced(g *settings.Group) error {
	if g == nil {
		return settings.ErrNilGroup
	}
	if err := a.ensureLoaded(); err != nil {
		return err
	}
	rec, ok := a.store.Find(g.Key())
	if !ok {
		return nil
	}
	removed := false
	for _, key := range rec.Keys() {
		if g.Has(key) {
			continue
		}
		rec.Delete(key)
		removed = true
	}
	if !removed {
		return nil
	}
	return a.writeDocument()
}

func (a *Adapter) ensureLoaded() error {
	if a.loaded {
		return nil
	}
	return a.Load()
}

func (a *Adapter) writeDocument() error {
	doc, err := a.store.Document()
	if err != nil {
		return fmt.Errorf("settings: serialize document: %w", err)
	}
	return a.medium.WriteDocument(doc)
}
