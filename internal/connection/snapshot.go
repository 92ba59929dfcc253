package connection

import (
	"errors"
	"fmt"

	"github.com/giantswarm/connauth/pkg/auth"
)

// Snapshot is an immutable, validated set of connection records with
// unique names. Reloads replace the whole snapshot.
type Snapshot struct {
	records []Record
	byName  map[string]int
}

// NewSnapshot validates records and indexes them by name. All problems are
// reported together.
func NewSnapshot(records []Record) (*Snapshot, error) {
	s := &Snapshot{
		records: make([]Record, 0, len(records)),
		byName:  make(map[string]int, len(records)),
	}

	var errs []error
	for i, r := range records {
		if r.Name == "" {
			errs = append(errs, auth.NewConfigurationError(fmt.Sprintf("connections[%d].name", i), "name is required"))
			continue
		}
		if _, dup := s.byName[r.Name]; dup {
			errs = append(errs, auth.NewConfigurationError(fmt.Sprintf("connections[%d].name", i), fmt.Sprintf("duplicate connection name %q", r.Name)))
			continue
		}
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("connection %q: %w", r.Name, err))
			continue
		}
		s.byName[r.Name] = len(s.records)
		s.records = append(s.records, cloneRecord(r))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// Get returns the record named name.
func (s *Snapshot) Get(name string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return Record{}, false
	}
	return cloneRecord(s.records[i]), true
}

// Records returns copies of all records in load order.
func (s *Snapshot) Records() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = cloneRecord(r)
	}
	return out
}

// Names returns the record names in load order.
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.records))
	for i, r := range s.records {
		names[i] = r.Name
	}
	return names
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

func cloneRecord(r Record) Record {
	if r.AdditionalHeaders != nil {
		headers := make([]Header, len(r.AdditionalHeaders))
		copy(headers, r.AdditionalHeaders)
		r.AdditionalHeaders = headers
	}
	return r
}
