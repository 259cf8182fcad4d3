package vfs

import "context"

// FileSystem is the namespace-bound facade the rest of the system works
// through. It adds text helpers and draft gating on top of the raw store.
// Text content is UTF-8 end-to-end; a PutText followed by Text reproduces
// the exact original character sequence.
type FileSystem struct {
	store Store
}

// NewFileSystem wraps a store.
func NewFileSystem(store Store) *FileSystem {
	return &FileSystem{store: store}
}

// Store exposes the underlying store, e.g. for archive transfer walks.
func (f *FileSystem) Store() Store { return f.store }

func (f *FileSystem) IsReadOnly() bool { return f.store.IsReadOnly() }

// Open returns the entity at path, or nil when absent.
func (f *FileSystem) Open(ctx context.Context, path string) (*Entity, error) {
	return f.store.Get(ctx, path)
}

// OpenPublished behaves like Open but hides drafts, which are invisible to
// non-author readers regardless of store backend.
func (f *FileSystem) OpenPublished(ctx context.Context, path string) (*Entity, error) {
	entity, err := f.store.Get(ctx, path)
	if err != nil || entity == nil {
		return entity, err
	}
	if entity.Metadata.IsDraft {
		return nil, nil
	}
	return entity, nil
}

// IsFile reports whether a path resolves to a stored entity.
func (f *FileSystem) IsFile(ctx context.Context, path string) (bool, error) {
	entity, err := f.store.Get(ctx, path)
	if err != nil {
		return false, err
	}
	return entity != nil, nil
}

// Put stores raw bytes at path, fully replacing prior content and metadata.
func (f *FileSystem) Put(ctx context.Context, path string, data []byte, opts PutOptions) error {
	return f.store.Put(ctx, path, data, opts)
}

// PutText stores a UTF-8 text file at path.
func (f *FileSystem) PutText(ctx context.Context, path, text string, opts PutOptions) error {
	return f.store.Put(ctx, path, []byte(text), opts)
}

// Delete removes the entity at path; deleting an absent path is a no-op.
func (f *FileSystem) Delete(ctx context.Context, path string) error {
	return f.store.Delete(ctx, path)
}

// List returns the sorted entity paths under prefix.
func (f *FileSystem) List(ctx context.Context, prefix string) ([]string, error) {
	return f.store.List(ctx, prefix)
}

// Text decodes an entity's bytes as UTF-8 text.
func Text(entity *Entity) string {
	if entity == nil {
		return ""
	}
	return string(entity.Data)
}
