package common

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// Define abstract interfaces for Cloud Storage

// The StorageClient interface is defined for the *storage.Client type.
type StorageClient interface {
	Bucket(name string) BucketHandle
}

type BucketHandle interface {
	Object(name string) ObjectHandle
}

type ObjectHandle interface {
	NewReader(ctx context.Context) (io.ReadCloser, error)
	NewWriter(ctx context.Context, contentType string) io.WriteCloser
}

// ReadObject reads the whole object into memory.
func ReadObject(ctx context.Context, client StorageClient, bucketName, objectName string) ([]byte, error) {
	r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}
	return data, nil
}

// WriteObject creates or replaces an object. The object only becomes visible
// once the writer is closed successfully.
func WriteObject(ctx context.Context, client StorageClient, bucketName, objectName, contentType string, data []byte) error {
	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx, contentType)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("Write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}

// Map the abstract interfaces to the real implementation

type RealStorageClient struct {
	Client *storage.Client
}

func (r *RealStorageClient) Bucket(name string) BucketHandle {
	return &RealStorageBucketHandle{bucket: r.Client.Bucket(name)}
}

type RealStorageBucketHandle struct {
	bucket *storage.BucketHandle
}

func (rbh *RealStorageBucketHandle) Object(name string) ObjectHandle {
	return &RealStorageObjectHandle{object: rbh.bucket.Object(name)}
}

type RealStorageObjectHandle struct {
	object *storage.ObjectHandle
}

func (roh *RealStorageObjectHandle) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return roh.object.NewReader(ctx)
}

func (roh *RealStorageObjectHandle) NewWriter(ctx context.Context, contentType string) io.WriteCloser {
	w := roh.object.NewWriter(ctx)
	w.ContentType = contentType
	return w
}
