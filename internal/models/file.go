package models

import "time"

// FileEntity is a single stored file in the datastore-backed content store.
// The (namespace, path) pair is the unique key; paths are kept normalized by
// the vfs layer before they ever reach this model.
type FileEntity struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Namespace   string    `gorm:"size:128;uniqueIndex:idx_file_ns_path;not null" json:"namespace"`
	Path        string    `gorm:"size:512;uniqueIndex:idx_file_ns_path;not null" json:"path"`
	Data        []byte    `gorm:"not null" json:"-"`
	IsDraft     bool      `gorm:"not null;default:false" json:"is_draft"`
	Size        int64     `gorm:"not null" json:"size"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`
}
