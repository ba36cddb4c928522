package storage

import (
	"context"
	"strings"
	"time"
)

// Storage is the set of bucket and object operations exposed as tools.
// Implementations call the backend directly: no caching, retries or pagination.
type Storage interface {
	// ListBuckets returns the names of all buckets visible to the configured credentials.
	ListBuckets(ctx context.Context) ([]string, error)

	// ListObjects returns the keys in bucket that start with prefix.
	// Only the first page reported by the backend is returned.
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)

	// GetObjectMetadata returns the metadata of a single object without downloading it.
	GetObjectMetadata(ctx context.Context, bucket, key string) (*ObjectMetadata, error)

	// PutObject decodes req.Base64Content and stores it under req.Key().
	PutObject(ctx context.Context, req StoreRequest) (*StoreResult, error)

	// GetObject downloads an object into memory.
	GetObject(ctx context.Context, bucket, key string) (*RetrievedObject, error)

	// DeleteObject removes an object. Deleting an absent key is not an error
	// unless the backend reports one.
	DeleteObject(ctx context.Context, bucket, key string) error
}

// ObjectMetadata describes a stored object.
type ObjectMetadata struct {
	ContentType    string            `json:"contentType"`
	ContentLength  int64             `json:"contentLength"`
	LastModified   time.Time         `json:"lastModified"`
	ETag           string            `json:"eTag"`
	StorageClass   string            `json:"storageClass"`
	CustomMetadata map[string]string `json:"customMetadata"`
}

// RetrievedObject is a downloaded object.
type RetrievedObject struct {
	FileName    string `json:"fileName"`
	Content     []byte `json:"content"`
	ContentType string `json:"contentType"`
}

// StoreRequest is an upload request. Content travels base64-encoded.
type StoreRequest struct {
	BucketName    string `json:"bucketName"`
	Prefix        string `json:"prefix"`
	FileName      string `json:"fileName"`
	ContentType   string `json:"contentType"`
	Base64Content string `json:"base64Content"`
}

// Key returns the object key the request is stored under.
// Prefix and FileName are concatenated as-is; include a trailing "/" in
// Prefix to place the file inside a folder.
func (r StoreRequest) Key() string {
	return r.Prefix + r.FileName
}

// StoreResult is the outcome of a successful upload.
type StoreResult struct {
	ETag string `json:"eTag"`
}

// FileNameFromKey returns the last path segment of key.
func FileNameFromKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
