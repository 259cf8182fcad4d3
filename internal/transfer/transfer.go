package transfer

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/widya-lms/widya-core/internal/course"
	"github.com/widya-lms/widya-core/internal/sites"
	"github.com/widya-lms/widya-core/internal/vfs"
)

var (
	// ErrArchiveExists indicates the download target already exists on disk.
	ErrArchiveExists = errors.New("archive path already exists")
	// ErrArchiveUnreadable indicates the bundle could not be opened or read.
	ErrArchiveUnreadable = errors.New("archive unreadable")
	// ErrCourseDocMalformed indicates the archived course document or
	// settings failed to parse.
	ErrCourseDocMalformed = errors.New("malformed archived course document")
	// ErrDestinationNotEmpty indicates the import target already has tree
	// content; imports only target empty courses.
	ErrDestinationNotEmpty = errors.New("destination course is not empty")
	// ErrDestinationMissing indicates no course context matched the target.
	ErrDestinationMissing = errors.New("destination course not found")
	// ErrVersionUnsupported indicates the course schema predates the
	// minimum the archive format supports.
	ErrVersionUnsupported = errors.New("course schema version unsupported")
)

// Transfer moves whole courses between content stores through archive
// bundles. It holds no long-lived lock; a failed Upload guarantees zero
// destination mutation, so retrying is safe. Running Download concurrently
// with an uncoordinated writer on the same namespace is the caller's
// responsibility to avoid.
type Transfer struct {
	logger zerolog.Logger
	tracer trace.Tracer
}

// New constructs a Transfer.
func New(logger zerolog.Logger) *Transfer {
	return &Transfer{
		logger: logger.With().Str("component", "transfer").Logger(),
		tracer: otel.Tracer("github.com/widya-lms/widya-core/internal/transfer"),
	}
}

// Download exports every stored entity of a course into a zip bundle at
// archivePath, with a manifest describing exactly what the bundle restores.
func (t *Transfer) Download(ctx context.Context, appContext *sites.Context, archivePath string) (err error) {
	ctx, span := t.tracer.Start(ctx, "transfer.download",
		trace.WithAttributes(attribute.String("namespace", appContext.Namespace())))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	if _, statErr := os.Stat(archivePath); statErr == nil {
		return fmt.Errorf("%w: %s", ErrArchiveExists, archivePath)
	}

	c := course.New(appContext, t.logger)
	if err := c.Load(ctx); err != nil {
		return err
	}
	if c.Version() != course.ModelVersion13 {
		return fmt.Errorf("%w: %s", ErrVersionUnsupported, c.Version())
	}

	paths, err := appContext.FS().List(ctx, "/")
	if err != nil {
		return err
	}

	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)
	manifest := &Manifest{
		Version: course.ModelVersion13,
		Raw:     rawLocator(appContext),
	}

	for _, path := range paths {
		entity, err := appContext.FS().Open(ctx, path)
		if err != nil {
			return err
		}
		if entity == nil {
			continue
		}
		name := strings.TrimPrefix(entity.Path, "/")
		entry, err := writer.Create(name)
		if err != nil {
			return fmt.Errorf("archive %s: %w", name, err)
		}
		if _, err := entry.Write(entity.Data); err != nil {
			return fmt.Errorf("archive %s: %w", name, err)
		}
		manifest.Entities = append(manifest.Entities, ManifestEntity{
			Path:     name,
			IsDraft:  entity.Metadata.IsDraft,
			Size:     entity.Metadata.Size,
			Checksum: checksum(entity.Data),
		})
	}

	manifestData, err := serializeManifest(manifest)
	if err != nil {
		return err
	}
	entry, err := writer.Create(ManifestFilename)
	if err != nil {
		return fmt.Errorf("archive manifest: %w", err)
	}
	if _, err := entry.Write(manifestData); err != nil {
		return fmt.Errorf("archive manifest: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}

	t.logger.Info().
		Str("namespace", appContext.Namespace()).
		Str("archive", archivePath).
		Int("entities", len(manifest.Entities)).
		Msg("course exported")
	return nil
}

// Upload restores a bundle into an empty destination course. Every
// validation failure aborts before any write lands; entities not listed in
// the manifest are not restored.
func (t *Transfer) Upload(ctx context.Context, appContext *sites.Context, archivePath string) (err error) {
	if appContext == nil {
		return ErrDestinationMissing
	}

	ctx, span := t.tracer.Start(ctx, "transfer.upload",
		trace.WithAttributes(attribute.String("namespace", appContext.Namespace())))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveUnreadable, err)
	}
	defer reader.Close()

	manifestData, err := readArchiveFile(reader, ManifestFilename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifestMalformed, err)
	}
	manifest, err := parseManifest(manifestData)
	if err != nil {
		return err
	}

	// The course document and settings must both parse before any write.
	docData, err := readArchiveFile(reader, strings.TrimPrefix(course.DocumentPath, "/"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCourseDocMalformed, err)
	}
	if err := validateCourseDocument(docData); err != nil {
		return err
	}
	settingsData, err := readArchiveFile(reader, strings.TrimPrefix(course.SettingsPath, "/"))
	if err == nil {
		if _, parseErr := course.ParseSettings(settingsData); parseErr != nil {
			return fmt.Errorf("%w: %v", ErrCourseDocMalformed, parseErr)
		}
	}

	dst := course.New(appContext, t.logger)
	units, err := dst.GetUnits(ctx)
	if err != nil {
		return err
	}
	if len(units) > 0 {
		return ErrDestinationNotEmpty
	}

	// Stage and verify every entity before the first write, so a truncated
	// or corrupted bundle leaves the destination untouched.
	staged := make([][]byte, len(manifest.Entities))
	for i, entity := range manifest.Entities {
		data, err := readArchiveFile(reader, entity.Path)
		if err != nil {
			return fmt.Errorf("%w: entity %s: %v", ErrArchiveUnreadable, entity.Path, err)
		}
		if checksum(data) != entity.Checksum {
			return fmt.Errorf("%w: entity %s: checksum mismatch", ErrArchiveUnreadable, entity.Path)
		}
		staged[i] = data
	}

	written := make([]string, 0, len(manifest.Entities))
	for i, entity := range manifest.Entities {
		err := appContext.FS().Put(ctx, "/"+entity.Path, staged[i], vfs.PutOptions{IsDraft: entity.IsDraft})
		if err != nil {
			// Undo what landed so a failed restore persists nothing.
			for _, path := range written {
				if delErr := appContext.FS().Delete(ctx, path); delErr != nil {
					t.logger.Warn().Err(delErr).Str("path", path).Msg("rollback failed")
				}
			}
			return err
		}
		written = append(written, "/"+entity.Path)
	}

	// Re-index from the freshly written store.
	restored := course.New(appContext, t.logger)
	if err := restored.Load(ctx); err != nil {
		return err
	}

	t.logger.Info().
		Str("namespace", appContext.Namespace()).
		Str("archive", archivePath).
		Int("entities", len(manifest.Entities)).
		Msg("course imported")
	return nil
}

func validateCourseDocument(data []byte) error {
	if err := course.ValidateDocument(data); err != nil {
		return fmt.Errorf("%w: %v", ErrCourseDocMalformed, err)
	}
	return nil
}

func readArchiveFile(reader *zip.ReadCloser, name string) ([]byte, error) {
	file, err := reader.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func rawLocator(appContext *sites.Context) string {
	return fmt.Sprintf("course:%s:%s:%s",
		appContext.URLPrefix(), appContext.HomeFolder(), appContext.Namespace())
}
