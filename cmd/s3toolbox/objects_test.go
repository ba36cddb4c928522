package main

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebluefowl/s3toolbox/internal/storage"
)

func TestStoreRequestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0600))

	req, err := storeRequestFromFile("b", path, "reports/", "")
	require.NoError(t, err)

	assert.Equal(t, "b", req.BucketName)
	assert.Equal(t, "reports/report.json", req.Key())
	assert.Equal(t, "application/json", req.ContentType)

	decoded, err := base64.StdEncoding.DecodeString(req.Base64Content)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(decoded))

	_, err = storeRequestFromFile("b", filepath.Join(dir, "missing"), "", "")
	assert.Error(t, err)
}

func TestStoreRequestFromEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	req, err := storeRequestFromFile("b", path, "", "")
	require.NoError(t, err)
	assert.Equal(t, "empty.txt", req.Key())
	assert.Empty(t, req.Base64Content)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("content", func(t *testing.T) {
		dest := filepath.Join(dir, "c.txt")
		require.NoError(t, writeFile(dest, []byte("hello")))
		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
	})

	t.Run("empty object", func(t *testing.T) {
		dest := filepath.Join(dir, "marker")
		require.NoError(t, writeFile(dest, nil))
		info, err := os.Stat(dest)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})

	t.Run("unwritable destination", func(t *testing.T) {
		err := writeFile(filepath.Join(dir, "missing", "x.txt"), []byte("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create file")
	})
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"json", "a.json", "application/json"},
		{"no extension", "Makefile", "application/octet-stream"},
		{"unknown extension", "a.zzzunknown", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectContentType(tt.file))
		})
	}
}

func TestRenderMetadata(t *testing.T) {
	out := renderMetadata("b", "k.txt", &storage.ObjectMetadata{
		ContentType:    "text/plain",
		ContentLength:  42,
		LastModified:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		ETag:           `"e"`,
		StorageClass:   "STANDARD",
		CustomMetadata: map[string]string{"owner": "ops"},
	})

	for _, want := range []string{"s3://b/k.txt", "text/plain", "42", "STANDARD", "owner: ops"} {
		assert.Contains(t, out, want)
	}
}
