package connection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/connauth/pkg/logging"
)

// Source produces snapshots of connection records.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
	// Describe names the source for log messages.
	Describe() string
}

// document is the on-disk layout of a connections file.
type document struct {
	Connections []Record `yaml:"connections"`
}

// Parse decodes a connections document. Unknown fields are rejected so
// that a misspelled secret field does not silently drop a credential.
func Parse(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var doc document
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse connections: %w", err)
	}
	return doc.Connections, nil
}

// Marshal encodes records in the connections file layout.
func Marshal(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(document{Connections: records}); err != nil {
		return nil, fmt.Errorf("failed to encode connections: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode connections: %w", err)
	}
	return buf.Bytes(), nil
}

// FileSource loads records from a YAML file.
type FileSource struct {
	Path string
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Describe implements Source.
func (f *FileSource) Describe() string {
	return "file " + f.Path
}

// Load implements Source.
func (f *FileSource) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read connections file %s: %w", f.Path, err)
	}

	records, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}

	snapshot, err := NewSnapshot(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}

	logging.Debug("Connection", "Loaded %d connections from %s", snapshot.Len(), f.Path)
	return snapshot, nil
}
