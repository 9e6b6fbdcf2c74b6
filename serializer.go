package settings

import "encoding/json"

// Serializer is implemented by persistence backends able to read and write
// the primitive values of one settings group. Read methods return fallback
// with a nil error when the key has never been persisted; they return an
// error when a persisted value exists but cannot be interpreted as the
// requested primitive.
//
// Primitive kinds: signed 64-bit integer, floating point, boolean, string,
// and an opaque JSON tree for composite settings.
type Serializer interface {
	WriteInt(key string, value int64)
	WriteFloat(key string, value float64)
	WriteBool(key string, value bool)
	WriteString(key string, value string)
	WriteRaw(key string, value json.RawMessage)

	ReadInt(key string, fallback int64) (int64, error)
	ReadFloat(key string, fallback float64) (float64, error)
	ReadBool(key string, fallback bool) (bool, error)
	ReadString(key string, fallback string) (string, error)
	ReadRaw(key string, fallback json.RawMessage) (json.RawMessage, error)
}
