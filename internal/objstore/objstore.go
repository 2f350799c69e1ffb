// Package objstore uploads synthesized feature images to S3-compatible
// object storage and returns their public URLs.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Uploader writes objects to a single bucket.
type Uploader struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// New creates an Uploader for the given endpoint and bucket. publicURL is the
// externally reachable base under which uploaded keys are served.
func New(endpoint, accessKey, secretKey, bucket, publicURL string) (*Uploader, error) {
	if endpoint == "" || bucket == "" {
		return nil, fmt.Errorf("object storage endpoint and bucket are required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	if publicURL == "" {
		publicURL = "https://" + endpoint + "/" + bucket
	}
	return &Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload stores data under key with the given content type and metadata, and
// returns the public URL of the object.
func (u *Uploader) Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error) {
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return u.publicURL + "/" + key, nil
}
