package models

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializableOrderedMapJSON(t *testing.T) {
	a := NewSerializableOrderedMap()
	a.Set("panel-2", "idle")
	a.Set("panel-1", "throughput")
	data, err := json.Marshal(a)
	require.NoError(t, err)
	// plain string comparison on purpose, the key order is part of the contract
	assert.Equal(t, `{"panel-2":"idle","panel-1":"throughput"}`, string(data))

	var b SerializableOrderedMap
	require.NoError(t, json.Unmarshal(data, &b))
	assert.True(t, reflect.DeepEqual(a, b))
}

func TestSerializableOrderedMapText(t *testing.T) {
	a := NewSerializableOrderedMap()
	a.Set("panel-1", `{"chart":"line"}`)
	data, err := a.MarshalText()
	require.NoError(t, err)
	var b SerializableOrderedMap
	err = b.UnmarshalText(data)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSerializableOrderedMapKeepsInsertionOrder(t *testing.T) {
	a := NewSerializableOrderedMap()
	a.Set("panel-1", "1")
	a.Set("panel-2", "2")
	b := NewSerializableOrderedMap()
	b.Set("panel-1", "1")
	b.Set("panel-2", "2")
	assert.False(t, a == b)
	assert.True(t, reflect.DeepEqual(a, b))
	c := NewSerializableOrderedMap()
	c.Set("panel-2", "2")
	c.Set("panel-1", "1")
	assert.False(t, reflect.DeepEqual(a, c))
}
