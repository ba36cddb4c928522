package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thebluefowl/s3toolbox/internal/storage"
)

const (
	// ToolListBuckets is the name of a tool for listing buckets.
	ToolListBuckets = "list_s3_buckets"

	// ToolListFiles is the name of a tool for listing object keys in a bucket.
	ToolListFiles = "list_s3_files"

	// ToolGetObjectMetadata is the name of a tool for reading object metadata.
	ToolGetObjectMetadata = "get_s3_object_metadata"

	// ToolPutObject is the name of a tool for uploading an object.
	ToolPutObject = "put_s3_object"

	// ToolGetObject is the name of a tool for downloading an object.
	ToolGetObject = "get_s3_object"

	// ToolDeleteObject is the name of a tool for deleting an object.
	ToolDeleteObject = "delete_s3_object"
)

// Tools exposes a storage.Storage as MCP tools. Handlers only translate
// arguments and results; errors from the store are returned unchanged.
type Tools struct {
	store storage.Storage
}

// New creates Tools backed by store.
func New(store storage.Storage) *Tools {
	return &Tools{store: store}
}

// Definitions returns the registration table: one entry per tool.
func (t *Tools) Definitions() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolListBuckets,
				mcp.WithDescription("Lists all the s3 buckets for the given account."),
			),
			Handler: t.ListBuckets,
		},
		{
			Tool: mcp.NewTool(ToolListFiles,
				mcp.WithDescription("Returns a list of object keys in the specified S3 bucket, optionally filtered by a prefix."),
				mcp.WithString("bucketName", mcp.Description("Name of the S3 bucket to search"), mcp.Required()),
				mcp.WithString("prefix", mcp.Description("Optional prefix to filter results (e.g. 'invoices/'). Use empty string or omit to list all objects."), mcp.DefaultString("")),
			),
			Handler: t.ListFiles,
		},
		{
			Tool: mcp.NewTool(ToolGetObjectMetadata,
				mcp.WithDescription("Retrieves metadata (e.g., size, content-type, last modified, storage class) for the specified S3 object."),
				mcp.WithString("bucketName", mcp.Description("Name of the S3 bucket containing the object"), mcp.Required()),
				mcp.WithString("key", mcp.Description("Key (path and filename) of the S3 object to retrieve metadata for"), mcp.Required()),
			),
			Handler: t.GetObjectMetadata,
		},
		{
			Tool: mcp.NewTool(ToolPutObject,
				mcp.WithDescription("Upload file bytes to S3 with optional prefix, returning ETag. The key is prefix followed directly by fileName."),
				mcp.WithString("bucketName", mcp.Description("Name of the target S3 bucket (e.g., 'my-bucket')"), mcp.Required()),
				mcp.WithString("prefix", mcp.Description("Optional path prefix/folder inside the bucket (e.g., 'invoices/2025/'). Leave empty or omit to upload to the bucket root."), mcp.DefaultString("")),
				mcp.WithString("fileName", mcp.Description("Filename to save in S3 (e.g., 'report.pdf')"), mcp.Required()),
				mcp.WithString("contentType", mcp.Description("MIME type of the file (e.g., 'application/pdf', 'image/png')"), mcp.Required()),
				mcp.WithString("base64Content", mcp.Description("The file's binary content, provided as a Base64-encoded string."), mcp.Required()),
			),
			Handler: t.PutObject,
		},
		{
			Tool: mcp.NewTool(ToolGetObject,
				mcp.WithDescription("Download an object from S3 by bucket name and key, returning its file name, base64-encoded content and content type."),
				mcp.WithString("bucketName", mcp.Description("The name of the S3 bucket where the object is stored."), mcp.Required()),
				mcp.WithString("key", mcp.Description("The full key (path/filename) of the object to retrieve."), mcp.Required()),
			),
			Handler: t.GetObject,
		},
		{
			Tool: mcp.NewTool(ToolDeleteObject,
				mcp.WithDescription("Delete an object from S3 by bucket name and key."),
				mcp.WithString("bucketName", mcp.Description("Name of the S3 bucket that contains the object to delete."), mcp.Required()),
				mcp.WithString("key", mcp.Description("Key (path/filename) of the object to delete from the bucket."), mcp.Required()),
			),
			Handler: t.DeleteObject,
		},
	}
}

// Register adds every tool to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTools(t.Definitions()...)
}

// ListBuckets implements the list_s3_buckets MCP tool.
func (t *Tools) ListBuckets(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := t.store.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(names)
}

// ListFiles implements the list_s3_files MCP tool.
func (t *Tools) ListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys, err := t.store.ListObjects(ctx,
		mcp.ParseString(request, "bucketName", ""),
		mcp.ParseString(request, "prefix", ""),
	)
	if err != nil {
		return nil, err
	}
	return jsonResult(keys)
}

// GetObjectMetadata implements the get_s3_object_metadata MCP tool.
func (t *Tools) GetObjectMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md, err := t.store.GetObjectMetadata(ctx,
		mcp.ParseString(request, "bucketName", ""),
		mcp.ParseString(request, "key", ""),
	)
	if err != nil {
		return nil, err
	}
	return jsonResult(md)
}

// PutObject implements the put_s3_object MCP tool.
func (t *Tools) PutObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := t.store.PutObject(ctx, storage.StoreRequest{
		BucketName:    mcp.ParseString(request, "bucketName", ""),
		Prefix:        mcp.ParseString(request, "prefix", ""),
		FileName:      mcp.ParseString(request, "fileName", ""),
		ContentType:   mcp.ParseString(request, "contentType", ""),
		Base64Content: mcp.ParseString(request, "base64Content", ""),
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}

// GetObject implements the get_s3_object MCP tool.
func (t *Tools) GetObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	obj, err := t.store.GetObject(ctx,
		mcp.ParseString(request, "bucketName", ""),
		mcp.ParseString(request, "key", ""),
	)
	if err != nil {
		return nil, err
	}
	return jsonResult(obj)
}

// DeleteObject implements the delete_s3_object MCP tool.
func (t *Tools) DeleteObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	err := t.store.DeleteObject(ctx,
		mcp.ParseString(request, "bucketName", ""),
		mcp.ParseString(request, "key", ""),
	)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(""), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
