package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	settings "github.com/rotorz/tile-system-settings"
)

// Sync reconciles a freshly read persisted document against the store and,
// when a manager is supplied, against its live groups. It returns true when
// live state disagreed with the document, meaning a follow-up save should be
// scheduled.
//
// Known records are merged first, each against its live group if one exists
// (there is none at first load, or for groups the host never instantiated).
// Group objects discovered in the document that the store has never seen
// then seed new records, so later record lookups succeed without re-parsing
// the document; if the host instantiated such a group in the meantime it is
// reconciled right away, otherwise a later Sync picks it up once a record
// exists.
//
// Top-level document members whose value is not a JSON object are foreign
// data: tolerated on read, never written back, never an error.
func (s *Store) Sync(doc []byte, m *settings.Manager) (bool, error) {
	fresh, discovered, err := parseDocument(doc)
	if err != nil {
		return false, err
	}

	report := syncReporter(m)
	saveNeeded := false

	for _, groupKey := range s.GroupKeys() {
		rec := s.records[groupKey]
		groupFresh := fresh[groupKey]
		delete(fresh, groupKey)
		if rec.sync(groupFresh, liveGroup(m, groupKey), report) {
			saveNeeded = true
		}
	}

	for _, groupKey := range discovered {
		groupFresh, ok := fresh[groupKey]
		if !ok {
			continue // already known, handled above
		}
		rec := s.Record(groupKey)
		if rec.sync(groupFresh, liveGroup(m, groupKey), report) {
			saveNeeded = true
		}
	}

	return saveNeeded, nil
}

// freshGroup is the raw contents of one group object in a freshly read
// document, with member order preserved.
type freshGroup struct {
	values map[string]json.RawMessage
	order  []string
}

func (f *freshGroup) get(key string) (json.RawMessage, bool) {
	if f == nil {
		return nil, false
	}
	raw, ok := f.values[key]
	return raw, ok
}

// sync merges fresh data for one group against the live group's cells.
//
// For every live cell with a fresh counterpart the fresh primitive wins:
// the cell deserializes from it, degrading to its default plus a warning on
// conversion failure. The save-needed result reports whether any such cell's
// persisted representation differed from what was freshly read. Live cells
// without a fresh counterpart are left alone; they reach the document on the
// next dirty save. For keys no live cell holds, the document is
// authoritative: new keys are adopted into the record, vanished keys are
// dropped.
func (r *Record) sync(fresh *freshGroup, group *settings.Group, report func(settings.Setting, error)) bool {
	saveNeeded := false

	if group != nil {
		for _, cell := range group.Settings() {
			raw, ok := fresh.get(cell.Key())
			if !ok {
				continue
			}
			// Capture the cell's current persisted representation before
			// adopting the fresh value.
			if err := cell.Serialize(r); err == nil {
				if !bytes.Equal(r.values[cell.Key()], raw) {
					saveNeeded = true
				}
			}
			r.set(cell.Key(), append(json.RawMessage(nil), raw...))
			if err := cell.Deserialize(r); err != nil {
				cell.RestoreDefault()
				if report != nil {
					report(cell, err)
				}
				saveNeeded = true
			}
			// Re-encode so the record holds the canonical representation
			// of whatever the cell now holds, fresh value or restored
			// default, rather than echoing the document's formatting.
			_ = cell.Serialize(r)
		}
	}

	for _, key := range r.Keys() {
		if group != nil && group.Has(key) {
			continue
		}
		if _, ok := fresh.get(key); !ok {
			r.Delete(key)
		}
	}
	if fresh != nil {
		for _, key := range fresh.order {
			if group != nil && group.Has(key) {
				continue
			}
			r.set(key, append(json.RawMessage(nil), fresh.values[key]...))
		}
	}

	return saveNeeded
}

func liveGroup(m *settings.Manager, groupKey string) *settings.Group {
	if m == nil {
		return nil
	}
	return m.FindGroup(groupKey)
}

func syncReporter(m *settings.Manager) func(settings.Setting, error) {
	if m == nil {
		return nil
	}
	return func(cell settings.Setting, cause error) {
		m.Feedback(settings.SeverityWarning,
			fmt.Sprintf("settings: failed to load %s/%s; default restored", cell.GroupKey(), cell.Key()),
			cause)
	}
}

// parseDocument extracts every top-level object member of doc as one group's
// raw key/value map. An empty document parses to no groups; malformed JSON
// or a non-object root is an error.
func parseDocument(doc []byte) (map[string]*freshGroup, []string, error) {
	fresh := map[string]*freshGroup{}
	var order []string

	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 {
		return fresh, order, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, nil, fmt.Errorf("store: document is not valid JSON")
	}
	root := gjson.ParseBytes(trimmed)
	if !root.IsObject() {
		return nil, nil, fmt.Errorf("store: document root must be a JSON object")
	}

	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		group, seen := fresh[key.String()]
		if !seen {
			group = &freshGroup{values: map[string]json.RawMessage{}}
			fresh[key.String()] = group
			order = append(order, key.String())
		}
		value.ForEach(func(k, v gjson.Result) bool {
			if _, dup := group.values[k.String()]; !dup {
				group.order = append(group.order, k.String())
			}
			group.values[k.String()] = json.RawMessage(v.Raw)
			return true
		})
		return true
	})

	return fresh, order, nil
}
