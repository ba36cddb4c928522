package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileNameFromKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"nested", "a/b/c.txt", "c.txt"},
		{"no separator", "c.txt", "c.txt"},
		{"single level", "reports/jan.csv", "jan.csv"},
		{"trailing separator", "folder/", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FileNameFromKey(tt.key))
		})
	}
}

func TestStoreRequestKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		fileName string
		want     string
	}{
		{"folder prefix", "invoices/2025/", "report.pdf", "invoices/2025/report.pdf"},
		{"empty prefix", "", "report.pdf", "report.pdf"},
		{"prefix without separator", "invoices", "report.pdf", "invoicesreport.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := StoreRequest{Prefix: tt.prefix, FileName: tt.fileName}
			assert.Equal(t, tt.want, req.Key())
		})
	}
}

func TestOpError(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *OpError
		want string
	}{
		{"object", &OpError{Op: "get object", Bucket: "b", Key: "k", Err: cause}, "get object failed for b/k: boom"},
		{"bucket", &OpError{Op: "list objects", Bucket: "b", Err: cause}, "list objects failed for bucket b: boom"},
		{"no target", &OpError{Op: "list buckets", Err: cause}, "list buckets failed: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, cause)

			wrapped := fmt.Errorf("tool: %w", tt.err)
			assert.True(t, IsOperationFailed(wrapped))
		})
	}

	assert.False(t, IsOperationFailed(cause))
}
