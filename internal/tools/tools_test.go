package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thebluefowl/s3toolbox/internal/metrics"
	"github.com/thebluefowl/s3toolbox/internal/storage"
)

type mockStore struct {
	mock.Mock
}

var _ storage.Storage = (*mockStore)(nil)

func (m *mockStore) ListBuckets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

func (m *mockStore) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	args := m.Called(ctx, bucket, prefix)
	out, _ := args.Get(0).([]string)
	return out, args.Error(1)
}

func (m *mockStore) GetObjectMetadata(ctx context.Context, bucket, key string) (*storage.ObjectMetadata, error) {
	args := m.Called(ctx, bucket, key)
	out, _ := args.Get(0).(*storage.ObjectMetadata)
	return out, args.Error(1)
}

func (m *mockStore) PutObject(ctx context.Context, req storage.StoreRequest) (*storage.StoreResult, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*storage.StoreResult)
	return out, args.Error(1)
}

func (m *mockStore) GetObject(ctx context.Context, bucket, key string) (*storage.RetrievedObject, error) {
	args := m.Called(ctx, bucket, key)
	out, _ := args.Get(0).(*storage.RetrievedObject)
	return out, args.Error(1)
}

func (m *mockStore) DeleteObject(ctx context.Context, bucket, key string) error {
	return m.Called(ctx, bucket, key).Error(0)
}

func newTestTools(t *testing.T) (*Tools, *mockStore) {
	t.Helper()
	store := &mockStore{}
	t.Cleanup(func() { store.AssertExpectations(t) })
	return New(store), store
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestDefinitions(t *testing.T) {
	tl, _ := newTestTools(t)

	defs := tl.Definitions()
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Tool.Name)
		assert.NotEmpty(t, d.Tool.Description, d.Tool.Name)
		assert.NotNil(t, d.Handler, d.Tool.Name)
	}
	assert.Equal(t, []string{
		ToolListBuckets,
		ToolListFiles,
		ToolGetObjectMetadata,
		ToolPutObject,
		ToolGetObject,
		ToolDeleteObject,
	}, names)

	required := map[string][]string{
		ToolListFiles:         {"bucketName"},
		ToolGetObjectMetadata: {"bucketName", "key"},
		ToolPutObject:         {"bucketName", "fileName", "contentType", "base64Content"},
		ToolGetObject:         {"bucketName", "key"},
		ToolDeleteObject:      {"bucketName", "key"},
	}
	for _, d := range defs {
		assert.ElementsMatch(t, required[d.Tool.Name], d.Tool.InputSchema.Required, d.Tool.Name)
	}
}

func TestListBuckets(t *testing.T) {
	tl, store := newTestTools(t)
	store.On("ListBuckets", mock.Anything).Return([]string{"bucket1", "bucket2"}, nil)

	res, err := tl.ListBuckets(context.Background(), callRequest(ToolListBuckets, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `["bucket1","bucket2"]`, resultText(t, res))
}

func TestListFiles(t *testing.T) {
	t.Run("with prefix", func(t *testing.T) {
		tl, store := newTestTools(t)
		store.On("ListObjects", mock.Anything, "reports", "2024/").
			Return([]string{"2024/jan.csv", "2024/feb.csv"}, nil)

		res, err := tl.ListFiles(context.Background(), callRequest(ToolListFiles, map[string]any{
			"bucketName": "reports",
			"prefix":     "2024/",
		}))
		require.NoError(t, err)
		assert.JSONEq(t, `["2024/jan.csv","2024/feb.csv"]`, resultText(t, res))
	})

	t.Run("prefix omitted", func(t *testing.T) {
		tl, store := newTestTools(t)
		store.On("ListObjects", mock.Anything, "reports", "").Return([]string{}, nil)

		res, err := tl.ListFiles(context.Background(), callRequest(ToolListFiles, map[string]any{
			"bucketName": "reports",
		}))
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, resultText(t, res))
	})
}

func TestGetObjectMetadata(t *testing.T) {
	tl, store := newTestTools(t)
	store.On("GetObjectMetadata", mock.Anything, "b", "k.txt").Return(&storage.ObjectMetadata{
		ContentType:    "text/plain",
		ContentLength:  5,
		LastModified:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		ETag:           `"abc"`,
		StorageClass:   "STANDARD",
		CustomMetadata: map[string]string{"owner": "ops"},
	}, nil)

	res, err := tl.GetObjectMetadata(context.Background(), callRequest(ToolGetObjectMetadata, map[string]any{
		"bucketName": "b",
		"key":        "k.txt",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"contentType": "text/plain",
		"contentLength": 5,
		"lastModified": "2025-01-02T03:04:05Z",
		"eTag": "\"abc\"",
		"storageClass": "STANDARD",
		"customMetadata": {"owner": "ops"}
	}`, resultText(t, res))
}

func TestPutObject(t *testing.T) {
	tl, store := newTestTools(t)
	store.On("PutObject", mock.Anything, storage.StoreRequest{
		BucketName:    "b",
		Prefix:        "docs/",
		FileName:      "a.txt",
		ContentType:   "text/plain",
		Base64Content: "aGk=",
	}).Return(&storage.StoreResult{ETag: "etag-1"}, nil)

	res, err := tl.PutObject(context.Background(), callRequest(ToolPutObject, map[string]any{
		"bucketName":    "b",
		"prefix":        "docs/",
		"fileName":      "a.txt",
		"contentType":   "text/plain",
		"base64Content": "aGk=",
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"eTag":"etag-1"}`, resultText(t, res))
}

func TestGetObject(t *testing.T) {
	tl, store := newTestTools(t)
	store.On("GetObject", mock.Anything, "b", "a/b/c.txt").Return(&storage.RetrievedObject{
		FileName:    "c.txt",
		Content:     []byte("hi"),
		ContentType: "text/plain",
	}, nil)

	res, err := tl.GetObject(context.Background(), callRequest(ToolGetObject, map[string]any{
		"bucketName": "b",
		"key":        "a/b/c.txt",
	}))
	require.NoError(t, err)

	var got storage.RetrievedObject
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, "c.txt", got.FileName)
	assert.Equal(t, []byte("hi"), got.Content)
	assert.Equal(t, "text/plain", got.ContentType)
}

func TestDeleteObject(t *testing.T) {
	tl, store := newTestTools(t)
	store.On("DeleteObject", mock.Anything, "b", "gone.txt").Return(nil)

	res, err := tl.DeleteObject(context.Background(), callRequest(ToolDeleteObject, map[string]any{
		"bucketName": "b",
		"key":        "gone.txt",
	}))
	require.NoError(t, err)
	assert.Empty(t, resultText(t, res))
}

func TestErrorsPropagateUnchanged(t *testing.T) {
	opErr := &storage.OpError{Op: "get object", Bucket: "b", Key: "k", Err: errors.New("NoSuchKey")}

	tests := []struct {
		name  string
		setup func(*mockStore)
		call  func(*Tools) (*mcp.CallToolResult, error)
	}{
		{
			"list buckets",
			func(s *mockStore) { s.On("ListBuckets", mock.Anything).Return(nil, opErr) },
			func(tl *Tools) (*mcp.CallToolResult, error) {
				return tl.ListBuckets(context.Background(), callRequest(ToolListBuckets, nil))
			},
		},
		{
			"list files",
			func(s *mockStore) { s.On("ListObjects", mock.Anything, "b", "").Return(nil, opErr) },
			func(tl *Tools) (*mcp.CallToolResult, error) {
				return tl.ListFiles(context.Background(), callRequest(ToolListFiles, map[string]any{"bucketName": "b"}))
			},
		},
		{
			"metadata",
			func(s *mockStore) { s.On("GetObjectMetadata", mock.Anything, "b", "k").Return(nil, opErr) },
			func(tl *Tools) (*mcp.CallToolResult, error) {
				return tl.GetObjectMetadata(context.Background(), callRequest(ToolGetObjectMetadata, map[string]any{"bucketName": "b", "key": "k"}))
			},
		},
		{
			"put",
			func(s *mockStore) { s.On("PutObject", mock.Anything, mock.Anything).Return(nil, opErr) },
			func(tl *Tools) (*mcp.CallToolResult, error) {
				return tl.PutObject(context.Background(), callRequest(ToolPutObject, map[string]any{"bucketName": "b"}))
			},
		},
		{
			"get",
			func(s *mockStore) { s.On("GetObject", mock.Anything, "b", "k").Return(nil, opErr) },
			func(tl *Tools) (*mcp.CallToolResult, error) {
				return tl.GetObject(context.Background(), callRequest(ToolGetObject, map[string]any{"bucketName": "b", "key": "k"}))
			},
		},
		{
			"delete",
			func(s *mockStore) { s.On("DeleteObject", mock.Anything, "b", "k").Return(opErr) },
			func(tl *Tools) (*mcp.CallToolResult, error) {
				return tl.DeleteObject(context.Background(), callRequest(ToolDeleteObject, map[string]any{"bucketName": "b", "key": "k"}))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, store := newTestTools(t)
			tt.setup(store)

			res, err := tt.call(tl)
			assert.Nil(t, res)
			assert.Same(t, opErr, err)
		})
	}
}

func TestObserve(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	m := metrics.New()
	mw := Observe(log, m)

	boom := errors.New("boom")
	failing := mw(func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, boom
	})
	ok := mw(func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		assert.NotEqual(t, zerolog.Disabled, zerolog.Ctx(ctx).GetLevel())
		return mcp.NewToolResultText("done"), nil
	})

	_, err := failing(context.Background(), callRequest(ToolGetObject, nil))
	assert.Same(t, boom, err)

	res, err := ok(context.Background(), callRequest(ToolListBuckets, nil))
	require.NoError(t, err)
	assert.Equal(t, "done", resultText(t, res))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `s3toolbox_tool_calls_total{status="error",tool="get_s3_object"} 1`)
	assert.Contains(t, rec.Body.String(), `s3toolbox_tool_calls_total{status="ok",tool="list_s3_buckets"} 1`)
	assert.Contains(t, buf.String(), `"tool":"get_s3_object"`)
	assert.Contains(t, buf.String(), `"request_id":`)
	assert.Contains(t, buf.String(), "tool call failed")
}
