package errs

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(NotFound, "/tmp/missing")
	assert.Equal(t, NotFound, KindOf(err))
	assert.True(t, IsKind(err, NotFound))
	assert.False(t, IsKind(err, PermissionDenied))

	wrapped := Wrap(IO, "/tmp/x", fs.ErrClosed)
	assert.Equal(t, IO, KindOf(wrapped))
	assert.True(t, Is(wrapped, fs.ErrClosed))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(fs.ErrInvalid))
}

func TestFromOS(t *testing.T) {
	_, err := os.Open(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, NotFound, KindOf(FromOS("nope", err)))

	assert.NoError(t, FromOS("x", nil))
	assert.Equal(t, IO, KindOf(FromOS("x", fs.ErrClosed)))
}

func TestErrorString(t *testing.T) {
	assert.Contains(t, New(CorruptArchive, "a.zip").Error(), "a.zip")
	assert.Contains(t, Newf(ReadOnlyArchive, "b.tar", "append to %s", "b.tar").Error(), "read-only")
}
