package domain

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// IDSet is a set of identity references. It marshals as a JSON array sorted by
// string form so reads are stable regardless of insertion order.
type IDSet map[uuid.UUID]struct{}

func NewIDSet(ids ...uuid.UUID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add reports whether id was newly inserted.
func (s IDSet) Add(id uuid.UUID) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s IDSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Slice() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

func (s IDSet) Strings() []string {
	ids := s.Slice()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// ParseIDSet builds a set from string ids, skipping anything that is not a uuid.
func ParseIDSet(values []string) IDSet {
	s := make(IDSet, len(values))
	for _, v := range values {
		if id, err := uuid.Parse(v); err == nil {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
