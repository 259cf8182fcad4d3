package vfs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/widya-lms/widya-core/internal/models"
)

// DatastoreBackedStore is the mutable content store. Entities live as
// FileEntity rows scoped by namespace; Put fully overwrites content and
// metadata for a path.
type DatastoreBackedStore struct {
	db        *gorm.DB
	namespace string
}

// NewDatastoreBackedStore binds a mutable store to one namespace.
func NewDatastoreBackedStore(db *gorm.DB, namespace string) *DatastoreBackedStore {
	return &DatastoreBackedStore{db: db, namespace: namespace}
}

func (s *DatastoreBackedStore) IsReadOnly() bool { return false }

// Namespace returns the isolation key this store was bound to.
func (s *DatastoreBackedStore) Namespace() string { return s.namespace }

func (s *DatastoreBackedStore) Get(ctx context.Context, p string) (*Entity, error) {
	p = NormalizePath(p)

	var row models.FileEntity
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND path = ?", s.namespace, p).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", p, err)
	}

	return entityFromRow(row), nil
}

func (s *DatastoreBackedStore) Put(ctx context.Context, p string, data []byte, opts PutOptions) error {
	p = NormalizePath(p)

	row := models.FileEntity{
		Namespace:   s.namespace,
		Path:        p,
		Data:        data,
		IsDraft:     opts.IsDraft,
		Size:        int64(len(data)),
		ContentType: mimetype.Detect(data).String(),
		UpdatedAt:   time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "path"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("put %s: %w", p, err)
	}
	return nil
}

func (s *DatastoreBackedStore) Delete(ctx context.Context, p string) error {
	p = NormalizePath(p)

	// Absent path is a no-op, not an error.
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND path = ?", s.namespace, p).
		Delete(&models.FileEntity{}).Error
	if err != nil {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	return nil
}

func (s *DatastoreBackedStore) List(ctx context.Context, prefix string) ([]string, error) {
	prefix = NormalizePath(prefix)

	var rows []models.FileEntity
	query := s.db.WithContext(ctx).
		Select("path").
		Where("namespace = ?", s.namespace)
	if prefix != "/" {
		query = query.Where("path = ? OR path LIKE ?", prefix, prefix+"/%")
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	paths := make([]string, 0, len(rows))
	for _, row := range rows {
		paths = append(paths, row.Path)
	}
	sort.Strings(paths)
	return paths, nil
}

func entityFromRow(row models.FileEntity) *Entity {
	return &Entity{
		Path: row.Path,
		Data: row.Data,
		Metadata: Metadata{
			IsDraft:      row.IsDraft,
			Size:         row.Size,
			ContentType:  row.ContentType,
			LastModified: row.UpdatedAt,
		},
	}
}
