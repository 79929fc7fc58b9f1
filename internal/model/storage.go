package model

import "context"

// UploadGrant is a short-lived permission to upload one object: the URL to
// POST to plus the form fields that must accompany the file.
type UploadGrant struct {
	URL    string
	Fields map[string]string
}

// GrantStorage issues upload grants for object storage destinations.
type GrantStorage interface {
	PresignUploadPost(ctx context.Context, objectKey string) (UploadGrant, error)
}
