package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	cfg "github.com/markdave123-py/Mosaic/internal/config"
	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/logger"
)

var _ core.ObjectClient = (*MirroredClient)(nil)

// MirroredClient keeps the working copy of every upload on local disk and
// archives a copy to a second store. Archive failures are logged, never returned.
type MirroredClient struct {
	primary *LocalClient
	archive core.ObjectClient
}

func NewMirroredClient(primary *LocalClient, archive core.ObjectClient) *MirroredClient {
	return &MirroredClient{primary: primary, archive: archive}
}

// NewObjectClient returns the local upload store, mirrored to S3 when a
// bucket and credentials are configured.
func NewObjectClient(ctx context.Context, c *cfg.Config) (core.ObjectClient, error) {
	local, err := NewLocalClient(c.UploadDir)
	if err != nil {
		return nil, err
	}
	if !c.S3Enabled() {
		return local, nil
	}

	s3c, err := NewS3Client(ctx, S3OptionsFrom(c))
	if err != nil {
		return nil, fmt.Errorf("s3 archive: %w", err)
	}
	return NewMirroredClient(local, s3c), nil
}

func (m *MirroredClient) UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	location, err := m.primary.UploadFile(ctx, key, data, contentType)
	if err != nil {
		return "", err
	}

	f, err := os.Open(location)
	if err != nil {
		logger.Warn("archive skipped", "key", key, "error", err)
		return location, nil
	}
	defer f.Close()

	if url, err := m.archive.UploadFile(ctx, key, f, contentType); err != nil {
		logger.Warn("archive upload failed", "key", key, "error", err)
	} else {
		logger.Debug("upload archived", "key", key, "url", url)
	}
	return location, nil
}

func (m *MirroredClient) DeleteFile(ctx context.Context, key string) error {
	if err := m.archive.DeleteFile(ctx, key); err != nil {
		logger.Warn("archive delete failed", "key", key, "error", err)
	}
	return m.primary.DeleteFile(ctx, key)
}

// GetObjectReader serves the local copy and falls back to the archive when
// the upload directory no longer has the file.
func (m *MirroredClient) GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := m.primary.GetObjectReader(ctx, key)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return rc, err
	}
	logger.Debug("local copy missing, reading archive", "key", key)
	return m.archive.GetObjectReader(ctx, key)
}
