package app

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cert.pem")
	require.NoError(t, os.WriteFile(path, []byte("contents"), 0600))

	for _, fileURL := range []string{path, "file://" + path} {
		actual, err := LoadFile(fileURL)
		require.NoError(t, err)
		assert.Equal(t, []byte("contents"), actual)
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}

func TestLoadFile_UnknownScheme(t *testing.T) {
	_, err := LoadFile("s3://bucket/cert.pem")
	assert.Error(t, err)
}

func TestRegisterFileLoaderCtor_Duplicate(t *testing.T) {
	assert.Panics(t, func() {
		RegisterFileLoaderCtor("file", func() (FileLoader, error) {
			return &LocalLoader{}, nil
		})
	})
}

func TestLocalLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte("key"), 0600))

	u, err := url.Parse(path)
	require.NoError(t, err)

	actual, err := (&LocalLoader{}).Load(u)
	require.NoError(t, err)
	assert.Equal(t, []byte("key"), actual)
}
