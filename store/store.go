package store

import (
	"strings"

	"github.com/tidwall/sjson"
)

// Store is an in-memory tree mirroring the persisted JSON document: one
// record per group key, created lazily the first time any setting key in
// that group is touched, alive for the lifetime of the store.
//
// The store is driven synchronously from a single thread, like the rest of
// the framework.
type Store struct {
	records map[string]*Record
	order   []string
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{records: map[string]*Record{}}
}

// Record returns the record for groupKey, creating it on first use.
func (s *Store) Record(groupKey string) *Record {
	if rec, ok := s.records[groupKey]; ok {
		return rec
	}
	rec := newRecord(s, groupKey)
	s.records[groupKey] = rec
	s.order = append(s.order, groupKey)
	return rec
}

// Find returns the record for groupKey without creating one.
func (s *Store) Find(groupKey string) (*Record, bool) {
	rec, ok := s.records[groupKey]
	return rec, ok
}

// GroupKeys returns the known group keys in creation order.
func (s *Store) GroupKeys() []string {
	return append([]string(nil), s.order...)
}

// Remove drops the record for groupKey from the store.
func (s *Store) Remove(groupKey string) {
	if _, ok := s.records[groupKey]; !ok {
		return
	}
	delete(s.records, groupKey)
	for i, key := range s.order {
		if key == groupKey {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Clear drops every record from the store.
func (s *Store) Clear() {
	s.records = map[string]*Record{}
	s.order = nil
}

// Document serializes every non-empty record into one JSON object keyed by
// group key. Empty records are omitted. Output order follows record and key
// insertion order, keeping successive documents diffable.
func (s *Store) Document() ([]byte, error) {
	doc := []byte("{}")
	var err error
	for _, groupKey := range s.order {
		rec := s.records[groupKey]
		if rec.Len() == 0 {
			continue
		}
		prefix := escapePath(groupKey) + "."
		for _, key := range rec.order {
			doc, err = sjson.SetRawBytes(doc, prefix+escapePath(key), rec.values[key])
			if err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

// escapePath neutralizes sjson/gjson path syntax inside group and setting
// keys so keys containing dots or wildcards address a single member.
func escapePath(key string) string {
	if !strings.ContainsAny(key, `.*?|#@\`) {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
