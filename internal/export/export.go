// Package export produces deployment artifacts from connection records
// with every secret-bearing field cleared.
//
// Secret fields are discovered through the `secret:"true"` struct tag on
// connection.Record, so a newly added secret field is sanitized as soon as
// it is tagged.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/giantswarm/connauth/internal/connection"
	"github.com/giantswarm/connauth/pkg/logging"
)

// Format is an artifact encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name case-insensitively. Empty means YAML.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatYAML, "yml":
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (expected yaml or json)", s)
	}
}

const secretTag = "secret"

// SecretFields returns the Go names of the tagged secret fields of
// connection.Record, in declaration order.
func SecretFields() []string {
	t := reflect.TypeOf(connection.Record{})
	var names []string
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get(secretTag) == "true" {
			names = append(names, t.Field(i).Name)
		}
	}
	return names
}

// Sanitize returns a copy of record with every secret field set to the
// empty string. All other fields are preserved.
func Sanitize(record connection.Record) connection.Record {
	v := reflect.ValueOf(&record).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get(secretTag) != "true" {
			continue
		}
		field := v.Field(i)
		// Tagged fields of any kind are zeroed, not only strings.
		field.Set(reflect.Zero(field.Type()))
	}
	if record.AdditionalHeaders != nil {
		headers := make([]connection.Header, len(record.AdditionalHeaders))
		copy(headers, record.AdditionalHeaders)
		record.AdditionalHeaders = headers
	}
	return record
}

// SanitizeAll sanitizes every record.
func SanitizeAll(records []connection.Record) []connection.Record {
	out := make([]connection.Record, len(records))
	for i, r := range records {
		out[i] = Sanitize(r)
	}
	return out
}

// Artifact is the exported document.
type Artifact struct {
	Connections []connection.Record `json:"connections"`
}

// Export writes the sanitized records to w.
func Export(w io.Writer, records []connection.Record, format Format) error {
	artifact := Artifact{Connections: SanitizeAll(records)}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(artifact, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case FormatYAML, "":
		data, err = yaml.Marshal(artifact)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode export artifact: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export artifact: %w", err)
	}

	logging.Audit(logging.AuditEvent{
		Action:  "export",
		Outcome: "success",
		Detail:  fmt.Sprintf("connections=%d format=%s", len(records), format),
	})
	return nil
}
