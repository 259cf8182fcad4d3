package vfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// LocalStore serves an immutable snapshot of course content from a local
// directory tree. Writes fail with ErrReadOnly; nothing it serves is ever a
// draft.
type LocalStore struct {
	root string
}

// NewLocalStore builds a read-only store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: filepath.Clean(dir)}
}

func (s *LocalStore) IsReadOnly() bool { return true }

func (s *LocalStore) Get(ctx context.Context, p string) (*Entity, error) {
	p = NormalizePath(p)
	full := s.localPath(p)

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	return &Entity{
		Path: p,
		Data: data,
		Metadata: Metadata{
			IsDraft:      false,
			Size:         int64(len(data)),
			ContentType:  mimetype.Detect(data).String(),
			LastModified: info.ModTime().UTC(),
		},
	}, nil
}

func (s *LocalStore) Put(ctx context.Context, p string, data []byte, opts PutOptions) error {
	return ErrReadOnly
}

func (s *LocalStore) Delete(ctx context.Context, p string) error {
	return ErrReadOnly
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	prefix = NormalizePath(prefix)

	var paths []string
	err := filepath.WalkDir(s.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			return err
		}
		p := NormalizePath(filepath.ToSlash(rel))
		if isUnder(p, prefix) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func (s *LocalStore) localPath(normalized string) string {
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(normalized, "/")))
}
