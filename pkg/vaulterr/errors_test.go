package vaulterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeString(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{ErrNotFound, "NotFound"},
		{ErrAlreadyExists, "AlreadyExists"},
		{ErrBadPassphrase, "BadPassphrase"},
		{ErrCorruptVault, "CorruptVault"},
		{ErrChunkIntegrity, "ChunkIntegrity"},
		{ErrNameIntegrity, "NameIntegrity"},
		{Code(999), "Unknown(999)"},
	}

	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.code.String())
		})
	}
}

func TestVaultErrorMessage(t *testing.T) {
	t.Run("WithPathOnly", func(t *testing.T) {
		err := NewNotFoundError("/docs/report.pdf")
		assert.Contains(t, err.Error(), "NotFound")
		assert.Contains(t, err.Error(), "/docs/report.pdf")
	})

	t.Run("WithWrappedCause", func(t *testing.T) {
		cause := errors.New("short read")
		err := NewIOError("/docs/report.pdf", "failed to read chunk", cause)
		assert.Contains(t, err.Error(), "short read")
		assert.Contains(t, err.Error(), "/docs/report.pdf")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("BareCode", func(t *testing.T) {
		err := NewKeyDestroyedError()
		assert.Equal(t, "KeyDestroyed: master key has been wiped", err.Error())
	})

	t.Run("ChunkIntegrityCarriesIndex", func(t *testing.T) {
		err := NewChunkIntegrityError("/docs/report.pdf", 7)
		assert.Contains(t, err.Error(), "chunk: 7")
	})

	t.Run("NameIntegrityCarriesDirIDAndEncoded", func(t *testing.T) {
		err := NewNameIntegrityError("dir-xyz", "aGVsbG8")
		assert.Contains(t, err.Error(), "dir_id: dir-xyz")
		assert.Contains(t, err.Error(), "encoded: aGVsbG8")
	})
}

func TestErrorTypeCheckingHelpers(t *testing.T) {
	t.Run("IsNotFound", func(t *testing.T) {
		assert.True(t, IsNotFound(NewNotFoundError("/x")))
		assert.False(t, IsNotFound(NewAlreadyExistsError("/x")))
	})

	t.Run("IsAlreadyExists", func(t *testing.T) {
		assert.True(t, IsAlreadyExists(NewAlreadyExistsError("/x")))
	})

	t.Run("IsChunkIntegrity", func(t *testing.T) {
		assert.True(t, IsChunkIntegrity(NewChunkIntegrityError("/x", 3)))
		assert.False(t, IsChunkIntegrity(NewNotFoundError("/x")))
	})

	t.Run("IsNameIntegrity", func(t *testing.T) {
		assert.True(t, IsNameIntegrity(NewNameIntegrityError("dir-1", "enc")))
	})

	t.Run("IsFalseForPlainError", func(t *testing.T) {
		assert.False(t, IsNotFound(errors.New("plain error")))
	})
}

func TestVaultErrorUnwrap(t *testing.T) {
	cause := errors.New("integrity check failed")
	err := Wrap(ErrBadPassphrase, "key wrap unwrap failed", cause)

	var target *VaultError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, cause, errors.Unwrap(err))
}
