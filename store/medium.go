package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/pretty"
)

// Medium is the physical home of one persisted settings document. Reads and
// writes are synchronous and may fail; a medium that has never been written
// reads as an empty document, not an error.
type Medium interface {
	ReadDocument() ([]byte, error)
	WriteDocument(doc []byte) error
}

// MemoryMedium keeps the document in memory. Intended for tests and
// examples.
type MemoryMedium struct {
	doc []byte
}

// NewMemoryMedium constructs a medium seeded with doc, which may be nil.
func NewMemoryMedium(doc []byte) *MemoryMedium {
	return &MemoryMedium{doc: append([]byte(nil), doc...)}
}

// ReadDocument returns a copy of the held document.
func (m *MemoryMedium) ReadDocument() ([]byte, error) {
	return append([]byte(nil), m.doc...), nil
}

// WriteDocument replaces the held document with a copy of doc.
func (m *MemoryMedium) WriteDocument(doc []byte) error {
	m.doc = append([]byte(nil), doc...)
	return nil
}

// Document returns the current document without copying.
func (m *MemoryMedium) Document() []byte {
	return m.doc
}

// FileMedium persists the document as a pretty-printed JSON file.
type FileMedium struct {
	path string
}

// NewFileMedium constructs a medium writing to path. Parent directories are
// created on first write.
func NewFileMedium(path string) *FileMedium {
	return &FileMedium{path: path}
}

// Path returns the document file path.
func (m *FileMedium) Path() string {
	return m.path
}

// ReadDocument reads the document file. A missing file is an empty
// document.
func (m *FileMedium) ReadDocument() ([]byte, error) {
	doc, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", m.path, err)
	}
	return doc, nil
}

// WriteDocument pretty-prints doc and writes it to the file, creating
// parent directories as needed.
func (m *FileMedium) WriteDocument(doc []byte) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("store: write %s: %w", m.path, err)
	}
	if err := os.WriteFile(m.path, pretty.Pretty(doc), 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", m.path, err)
	}
	return nil
}
