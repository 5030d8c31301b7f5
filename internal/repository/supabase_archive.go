package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"pdf-revision-engine/internal/domain"
	apperrors "pdf-revision-engine/pkg/errors"

	storage_go "github.com/supabase-community/storage-go"
)

// ObjectUploader is the part of the Supabase storage client the archive uses.
type ObjectUploader interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
}

// SupabaseArchive copies produced revisions into a storage bucket.
type SupabaseArchive struct {
	uploader ObjectUploader
	index    domain.RevisionIndex
	bucket   string
	logger   domain.Logger
}

// NewSupabaseArchive creates an archive; index may be nil.
func NewSupabaseArchive(uploader ObjectUploader, index domain.RevisionIndex, bucket string, logger domain.Logger) *SupabaseArchive {
	return &SupabaseArchive{
		uploader: uploader,
		index:    index,
		bucket:   bucket,
		logger:   logger,
	}
}

// Archive uploads localPath to objectPath, replacing any earlier object.
func (a *SupabaseArchive) Archive(ctx context.Context, objectPath string, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return apperrors.NewInternalError("open revision for archiving", err)
	}
	defer f.Close()

	contentType := "application/pdf"
	upsert := true
	_, err = a.uploader.UploadFile(a.bucket, objectPath, f, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return apperrors.NewExternalServiceError(fmt.Sprintf("archive %s", objectPath), err)
	}

	a.logger.Debug("Revision archived", "bucket", a.bucket, "object", objectPath)

	if a.index == nil {
		return nil
	}
	return a.index.Record(ctx, domain.ArchivedRevision{
		SessionID:  path.Dir(objectPath),
		Bucket:     a.bucket,
		ObjectPath: objectPath,
		Kind:       path.Base(objectPath),
	})
}

var _ domain.RevisionArchive = (*SupabaseArchive)(nil)
