package vfs

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrReadOnly indicates a write was attempted on a read-only store.
	ErrReadOnly = errors.New("content store is read-only")
)

// Metadata describes a stored entity without its content.
type Metadata struct {
	IsDraft      bool      `json:"is_draft"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// Entity is a stored file plus its metadata. Path is always normalized.
type Entity struct {
	Path     string   `json:"path"`
	Data     []byte   `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// PutOptions carries the writable metadata for a Put.
type PutOptions struct {
	IsDraft bool
}

// Store is the content store contract shared by all backends. Get returns
// (nil, nil) for an absent path; Delete of an absent path is a no-op.
// List returns the sorted normalized paths under a prefix.
type Store interface {
	Get(ctx context.Context, path string) (*Entity, error)
	Put(ctx context.Context, path string, data []byte, opts PutOptions) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	IsReadOnly() bool
}
