package models

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// SerializableOrderedMap is an insertion-ordered string map that marshals to a
// JSON object whose key order is preserved. Panel layouts and chart series use
// it because the dashboard renders entries in the order they were defined.
type SerializableOrderedMap struct {
	*orderedmap.OrderedMap[string, string]
}

func NewSerializableOrderedMap() SerializableOrderedMap {
	return SerializableOrderedMap{orderedmap.New[string, string]()}
}

func (s SerializableOrderedMap) MarshalBinary() (data []byte, err error) {
	if s.OrderedMap == nil {
		s.OrderedMap = orderedmap.New[string, string]()
	}
	return json.Marshal(s.OrderedMap)
}

func (s *SerializableOrderedMap) UnmarshalBinary(data []byte) error {
	if s.OrderedMap == nil {
		s.OrderedMap = orderedmap.New[string, string]()
	}
	return json.Unmarshal(data, &s.OrderedMap)
}

func (s SerializableOrderedMap) MarshalText() (data []byte, err error) {
	return s.MarshalBinary()
}

func (s *SerializableOrderedMap) UnmarshalText(data []byte) error {
	return s.UnmarshalBinary(data)
}

// MarshalJSON and UnmarshalJSON shadow the embedded map's methods so that a
// zero value map is usable, the embedded pointer would be nil otherwise.
func (s SerializableOrderedMap) MarshalJSON() ([]byte, error) {
	return s.MarshalBinary()
}

func (s *SerializableOrderedMap) UnmarshalJSON(data []byte) error {
	return s.UnmarshalBinary(data)
}
