// Package blob stores the generated QR images behind a small S3-like
// interface with filesystem, S3/MinIO, and in-memory backends.
package blob

import (
	"context"
	"errors"
)

// Driver identifies a concrete blob storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default, dev)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// ErrNotFound is returned by Get when no blob exists at the key.
var ErrNotFound = errors.New("blob: not found")

// Store is the interface for blob storage backends. Semantics mirror a
// minimal subset of S3 so the S3 adapter is nearly 1:1 while the filesystem
// adapter can emulate them.
type Store interface {
	// Put stores a blob at key, overwriting any previous content.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns the blob contents and content type, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, string, error)
	// Delete removes a blob. Returns (false, nil) if the key was absent.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns keys with the given prefix, ascending.
	List(ctx context.Context, prefix string) ([]string, error)
	// Driver returns the configured backend driver.
	Driver() Driver
}

// Options selects and configures a backend for Open.
type Options struct {
	Driver      Driver
	FSRoot      string // driver=fs: directory root (default ./blobdata)
	S3Bucket    string // driver=s3: bucket name (required)
	S3Region    string
	S3Endpoint  string // optional, for MinIO
	S3PathStyle bool
}

// Open selects a Store implementation from Options.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, errors.New("blob: unknown driver " + string(opts.Driver))
	}
}
