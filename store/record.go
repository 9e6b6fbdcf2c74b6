// Package store implements the JSON-backed persistence adapter for the
// settings framework: an in-memory tree mirroring the persisted JSON
// document, a synchronization pass reconciling freshly read documents
// against live settings, and the media the document is read from and
// written to.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Record holds the last-known-persisted raw JSON values of one settings
// group, keyed by setting key. It implements settings.Serializer, so setting
// cells serialize directly into it. Key order is preserved for deterministic
// document output.
//
// A record is reference data once its group is live: the group's cells are
// authoritative for keys they hold, while the record stays authoritative for
// keys no live cell references.
type Record struct {
	store    *Store
	groupKey string
	values   map[string]json.RawMessage
	order    []string
}

func newRecord(s *Store, groupKey string) *Record {
	return &Record{
		store:    s,
		groupKey: groupKey,
		values:   map[string]json.RawMessage{},
	}
}

// GroupKey returns the key of the group this record mirrors.
func (r *Record) GroupKey() string {
	return r.groupKey
}

// Store returns the store owning this record.
func (r *Record) Store() *Store {
	return r.store
}

// Len returns the number of persisted keys held by the record.
func (r *Record) Len() int {
	return len(r.values)
}

// Keys returns the persisted keys in insertion order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.order...)
}

// Raw returns the raw JSON value persisted under key.
func (r *Record) Raw(key string) (json.RawMessage, bool) {
	raw, ok := r.values[key]
	return raw, ok
}

// Delete removes key from the record.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Record) set(key string, raw json.RawMessage) {
	if _, ok := r.values[key]; !ok {
		r.order = append(r.order, key)
	}
	r.values[key] = raw
}

// WriteInt implements settings.Serializer.
func (r *Record) WriteInt(key string, value int64) {
	r.set(key, json.RawMessage(strconv.FormatInt(value, 10)))
}

// WriteFloat implements settings.Serializer.
func (r *Record) WriteFloat(key string, value float64) {
	r.set(key, json.RawMessage(strconv.FormatFloat(value, 'g', -1, 64)))
}

// WriteBool implements settings.Serializer.
func (r *Record) WriteBool(key string, value bool) {
	r.set(key, json.RawMessage(strconv.FormatBool(value)))
}

// WriteString implements settings.Serializer.
func (r *Record) WriteString(key string, value string) {
	raw, _ := json.Marshal(value)
	r.set(key, raw)
}

// WriteRaw implements settings.Serializer.
func (r *Record) WriteRaw(key string, value json.RawMessage) {
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	r.set(key, append(json.RawMessage(nil), value...))
}

// ReadInt implements settings.Serializer.
func (r *Record) ReadInt(key string, fallback int64) (int64, error) {
	raw, ok := r.values[key]
	if !ok {
		return fallback, nil
	}
	result := gjson.ParseBytes(raw)
	if result.Type != gjson.Number {
		return 0, r.typeError(key, "integer", result)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(result.Raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("store: %s/%s: %q is not an integer", r.groupKey, key, result.Raw)
	}
	return n, nil
}

// ReadFloat implements settings.Serializer.
func (r *Record) ReadFloat(key string, fallback float64) (float64, error) {
	raw, ok := r.values[key]
	if !ok {
		return fallback, nil
	}
	result := gjson.ParseBytes(raw)
	if result.Type != gjson.Number {
		return 0, r.typeError(key, "number", result)
	}
	return result.Float(), nil
}

// ReadBool implements settings.Serializer.
func (r *Record) ReadBool(key string, fallback bool) (bool, error) {
	raw, ok := r.values[key]
	if !ok {
		return fallback, nil
	}
	result := gjson.ParseBytes(raw)
	switch result.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	default:
		return false, r.typeError(key, "boolean", result)
	}
}

// ReadString implements settings.Serializer.
func (r *Record) ReadString(key string, fallback string) (string, error) {
	raw, ok := r.values[key]
	if !ok {
		return fallback, nil
	}
	result := gjson.ParseBytes(raw)
	if result.Type != gjson.String {
		return "", r.typeError(key, "string", result)
	}
	return result.String(), nil
}

// ReadRaw implements settings.Serializer.
func (r *Record) ReadRaw(key string, fallback json.RawMessage) (json.RawMessage, error) {
	raw, ok := r.values[key]
	if !ok {
		return fallback, nil
	}
	return append(json.RawMessage(nil), raw...), nil
}

func (r *Record) typeError(key, want string, result gjson.Result) error {
	return fmt.Errorf("store: %s/%s: expected %s, got %s", r.groupKey, key, want, describeJSON(result))
}

func describeJSON(result gjson.Result) string {
	switch result.Type {
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Null:
		return "null"
	case gjson.JSON:
		if result.IsArray() {
			return "array"
		}
		return "object"
	default:
		return "unknown"
	}
}
