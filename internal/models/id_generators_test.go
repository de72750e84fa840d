package models

import (
	"encoding/base64"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGenerator(t *testing.T) {
	generator := ULIDGenerator{}

	id, err := generator.ID()

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	_, err = ulid.ParseStrict(id)
	assert.NoError(t, err)
}

func TestRandomGenerator(t *testing.T) {
	generator := NewRandomGenerator(32)

	id, err := generator.ID()

	require.NoError(t, err)
	assert.NotEmpty(t, id)

	decoded, err := base64.RawURLEncoding.DecodeString(id)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}
