package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("12345678901234567890123456789012")

func TestNewSealer_KeySize(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		wantErr error
	}{
		{name: "valid 32 byte key", key: testKey},
		{name: "16 byte key", key: []byte("1234567890123456"), wantErr: ErrInvalidKeySize},
		{name: "empty key", key: nil, wantErr: ErrInvalidKeySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSealer(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestSealer_SealOpen(t *testing.T) {
	s, err := NewSealer(testKey)
	require.NoError(t, err)

	sealed, err := s.Seal("openkey-secret-中文")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, sealed, "openkey-secret")

	again, err := s.Seal("openkey-secret-中文")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "openkey-secret-中文", plain)
}

func TestSealer_PassThrough(t *testing.T) {
	s, err := NewSealer(testKey)
	require.NoError(t, err)

	v, err := s.Seal("")
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = s.Open("plain-authkey")
	require.NoError(t, err)
	assert.Equal(t, "plain-authkey", v)

	sealed, _ := s.Seal("x")
	v, err = s.Seal(sealed)
	require.NoError(t, err)
	assert.Equal(t, sealed, v)
}

func TestSealer_OpenFailures(t *testing.T) {
	s, err := NewSealer(testKey)
	require.NoError(t, err)
	other, err := NewSealer([]byte(strings.Repeat("k", 32)))
	require.NoError(t, err)

	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = s.Open(SealedPrefix + "AAAA")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = s.Open(SealedPrefix + "!!not base64!!")
	assert.Error(t, err)
}
