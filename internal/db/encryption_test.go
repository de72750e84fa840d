package db

import (
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	secretKey := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, secretKey)
	require.NoError(t, err)
	enc, err := NewGCMEncryptor(string(secretKey))
	require.NoError(t, err)
	val := "some-secret-value-123"
	valEnc, err := enc.Encrypt(val)
	require.NoError(t, err)
	assert.NotEqual(t, val, valEnc)
	valDec, err := enc.Decrypt(valEnc)
	require.NoError(t, err)
	assert.NotEqual(t, valDec, valEnc)
	assert.Equal(t, val, valDec)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	keyA := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, keyA)
	require.NoError(t, err)
	keyB := make([]byte, 32)
	_, err = io.ReadFull(rand.Reader, keyB)
	require.NoError(t, err)
	encA, err := NewGCMEncryptor(string(keyA))
	require.NoError(t, err)
	encB, err := NewGCMEncryptor(string(keyB))
	require.NoError(t, err)
	valEnc, err := encA.Encrypt("some-secret-value-123")
	require.NoError(t, err)
	_, err = encB.Decrypt(valEnc)
	assert.Error(t, err)
}

func TestDecryptTruncatedValueFails(t *testing.T) {
	secretKey := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, secretKey)
	require.NoError(t, err)
	enc, err := NewGCMEncryptor(string(secretKey))
	require.NoError(t, err)
	_, err = enc.Decrypt("short")
	assert.Error(t, err)
}

func TestInvalidKeySize(t *testing.T) {
	_, err := NewGCMEncryptor("too-short")
	assert.Error(t, err)
}
