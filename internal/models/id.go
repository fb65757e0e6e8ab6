package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID identifies a quiz, question or option. Documents may carry ids as strings or numbers;
// both decode to the trimmed textual form.
type ID string

func NewID(s string) ID {
	return ID(strings.TrimSpace(s))
}

func (id ID) String() string {
	return string(id)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NewID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = NewID(n.String())
	return nil
}

// IDSet is an unordered set of ids.
type IDSet map[ID]struct{}

func NewIDSet(ids ...ID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[NewID(string(id))] = struct{}{}
	}
	return set
}

func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Equal reports whether both sets hold exactly the same ids.
func (s IDSet) Equal(other IDSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}
