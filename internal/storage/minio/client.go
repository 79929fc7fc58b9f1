// Package minio issues short-lived upload grants against a MinIO (or any
// S3-compatible) bucket using presigned POST policies.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/wingit-app/wingit-server/internal/model"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PresignedPostPolicy(ctx context.Context, policy *minio.PostPolicy) (*url.URL, map[string]string, error)
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PresignedPostPolicy(ctx context.Context, policy *minio.PostPolicy) (*url.URL, map[string]string, error) {
	return w.c.PresignedPostPolicy(ctx, policy)
}

var _ model.GrantStorage = (*Client)(nil)

type Client struct {
	api    minioAPI
	bucket string
	expiry time.Duration
}

// NewClient creates a grant storage client backed by a real *minio.Client.
func NewClient(ctx context.Context, client *minio.Client, bucket string, expiry time.Duration) (*Client, error) {
	return NewClientWithAPI(ctx, minioClientWrapper{c: client}, bucket, expiry)
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(ctx context.Context, api minioAPI, bucket string, expiry time.Duration) (*Client, error) {
	c := &Client{
		api:    api,
		bucket: bucket,
		expiry: expiry,
	}

	if err := c.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return c, nil
}

func (c *Client) ensureBucketExists(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// PresignUploadPost returns a time-boxed POST grant for one object key: the
// URL to POST to plus the form fields the upload must carry.
func (c *Client) PresignUploadPost(ctx context.Context, objectKey string) (model.UploadGrant, error) {
	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(c.bucket); err != nil {
		return model.UploadGrant{}, fmt.Errorf("failed to set policy bucket: %w", err)
	}
	if err := policy.SetKey(objectKey); err != nil {
		return model.UploadGrant{}, fmt.Errorf("failed to set policy key: %w", err)
	}
	if err := policy.SetExpires(time.Now().UTC().Add(c.expiry)); err != nil {
		return model.UploadGrant{}, fmt.Errorf("failed to set policy expiry: %w", err)
	}

	postURL, formData, err := c.api.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return model.UploadGrant{}, fmt.Errorf("failed to presign post policy: %w", err)
	}

	return model.UploadGrant{
		URL:    postURL.String(),
		Fields: formData,
	}, nil
}
