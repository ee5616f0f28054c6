package storage

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/h2non/filetype"

	"github.com/Sayam753/SendToS3/internal/apperr"
	"github.com/Sayam753/SendToS3/internal/logger"
	"github.com/Sayam753/SendToS3/internal/retention"
	"github.com/Sayam753/SendToS3/internal/selector"
)

// sniffLen is the number of leading bytes filetype needs to match a type.
const sniffLen = 261

const defaultContentType = "application/octet-stream"

// Uploader sends single files to an ObjectStore. Failures are returned as
// data in the Outcome, never as errors, so one file cannot abort a run.
type Uploader struct {
	store  ObjectStore
	logger *logger.Logger
}

// NewUploader creates an uploader over store.
func NewUploader(store ObjectStore, log *logger.Logger) *Uploader {
	if log == nil {
		log = logger.Nop()
	}
	return &Uploader{store: store, logger: log}
}

// CheckBucket verifies the bucket before any file is sent.
func (u *Uploader) CheckBucket(ctx context.Context, bucket string) error {
	return u.store.HeadBucket(ctx, bucket)
}

// Upload performs one blocking transfer of the file's current contents.
func (u *Uploader) Upload(ctx context.Context, c selector.Candidate, technology, bucket, key string) retention.Outcome {
	outcome := retention.Outcome{
		LocalPath:  c.Path,
		Technology: technology,
		RemoteKey:  key,
		Size:       c.Size,
		Status:     retention.StatusFailure,
	}

	if err := u.put(ctx, c.Path, bucket, key); err != nil {
		outcome.AddDetail(err)
		u.logger.Error("An error occurred while trying to upload", err,
			logger.Field{Key: "file", Value: c.Name},
			logger.Field{Key: "key", Value: key})
		return outcome
	}

	outcome.Status = retention.StatusSuccess
	u.logger.Info("Uploaded file",
		logger.Field{Key: "file", Value: c.Name},
		logger.Field{Key: "key", Value: key},
		logger.Field{Key: "size_bytes", Value: c.Size})
	return outcome
}

func (u *Uploader) put(ctx context.Context, path, bucket, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperr.IO("%w", err)
	}
	defer f.Close()

	contentType, err := detectContentType(f)
	if err != nil {
		return apperr.IO("%w", err)
	}

	return u.store.PutObject(ctx, bucket, key, f, contentType)
}

// detectContentType sniffs the file header and rewinds the file.
func detectContentType(f io.ReadSeeker) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return defaultContentType, nil
	}
	return kind.MIME.Value, nil
}
