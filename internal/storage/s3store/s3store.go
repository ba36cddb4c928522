package s3store

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/thebluefowl/s3toolbox/internal/storage"
)

// Compile-time check to ensure Service implements storage.Storage interface
var _ storage.Storage = (*Service)(nil)

// API is the part of *s3.Client used by Service.
type API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObjectAttributes(ctx context.Context, params *s3.GetObjectAttributesInput, optFns ...func(*s3.Options)) (*s3.GetObjectAttributesOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ API = (*s3.Client)(nil)

// Service implements storage.Storage on top of an S3 client.
// It holds no state besides the client and is safe for concurrent use.
type Service struct {
	client API
	log    zerolog.Logger
}

// New returns a Service using client for every backend call.
func New(client API, log zerolog.Logger) *Service {
	return &Service{
		client: client,
		log:    log.With().Str("component", "s3store").Logger(),
	}
}

// ListBuckets lists the buckets owned by the caller.
func (s *Service) ListBuckets(ctx context.Context) ([]string, error) {
	out, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, s.fail("list buckets", "", "", err)
	}

	names := make([]string, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		names = append(names, aws.ToString(b.Name))
	}
	return names, nil
}

// ListObjects returns the keys of the first ListObjectsV2 page for prefix.
func (s *Service) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, s.fail("list objects", bucket, "", err)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

// GetObjectMetadata issues HeadObject and GetObjectAttributes concurrently and
// merges the two responses. Both calls run to completion; if either fails the
// whole operation fails.
func (s *Service) GetObjectMetadata(ctx context.Context, bucket, key string) (*storage.ObjectMetadata, error) {
	var (
		head  *s3.HeadObjectOutput
		attrs *s3.GetObjectAttributesOutput
		g     errgroup.Group
	)

	g.Go(func() error {
		var err error
		head, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		return err
	})
	g.Go(func() error {
		var err error
		attrs, err = s.client.GetObjectAttributes(ctx, &s3.GetObjectAttributesInput{
			Bucket:           aws.String(bucket),
			Key:              aws.String(key),
			ObjectAttributes: []types.ObjectAttributes{types.ObjectAttributesStorageClass},
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail("get object metadata", bucket, key, err)
	}

	return &storage.ObjectMetadata{
		ContentType:    aws.ToString(head.ContentType),
		ContentLength:  aws.ToInt64(head.ContentLength),
		LastModified:   aws.ToTime(head.LastModified),
		ETag:           aws.ToString(head.ETag),
		StorageClass:   string(attrs.StorageClass),
		CustomMetadata: head.Metadata,
	}, nil
}

// decodeBase64 decodes standard-alphabet base64 with or without trailing padding.
func decodeBase64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// PutObject decodes the base64 payload and uploads it in a single request.
func (s *Service) PutObject(ctx context.Context, req storage.StoreRequest) (*storage.StoreResult, error) {
	key := req.Key()

	body, err := decodeBase64(req.Base64Content)
	if err != nil {
		return nil, s.fail("put object", req.BucketName, key, fmt.Errorf("decode base64 content: %w", err))
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(req.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if req.ContentType != "" {
		input.ContentType = aws.String(req.ContentType)
	}

	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return nil, s.fail("put object", req.BucketName, key, err)
	}

	return &storage.StoreResult{ETag: aws.ToString(out.ETag)}, nil
}

// GetObject downloads an object into memory.
func (s *Service) GetObject(ctx context.Context, bucket, key string) (*storage.RetrievedObject, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.fail("get object", bucket, key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.fail("get object", bucket, key, fmt.Errorf("read object data: %w", err))
	}

	return &storage.RetrievedObject{
		FileName:    storage.FileNameFromKey(key),
		Content:     content,
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

// DeleteObject deletes a single object.
func (s *Service) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s.fail("delete object", bucket, key, err)
	}
	return nil
}

// fail logs err and wraps it into a *storage.OpError.
func (s *Service) fail(op, bucket, key string, err error) error {
	ev := s.log.Error().Err(err).Str("op", op)
	if bucket != "" {
		ev = ev.Str("bucket", bucket)
	}
	if key != "" {
		ev = ev.Str("key", key)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ev = ev.Str("code", apiErr.ErrorCode())
	}
	ev.Msg("s3 operation failed")

	return &storage.OpError{Op: op, Bucket: bucket, Key: key, Err: err}
}
