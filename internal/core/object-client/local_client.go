package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/Mosaic/internal/core"
)

var _ core.ObjectClient = (*LocalClient)(nil)

// ErrInvalidKey is returned for keys that are empty or escape the root directory.
var ErrInvalidKey = errors.New("invalid object key")

// LocalClient stores objects as files under a root directory. The location
// returned by UploadFile is the file path, ready for the extractors.
type LocalClient struct {
	root string
}

func NewLocalClient(root string) (*LocalClient, error) {
	if root == "" {
		return nil, errors.New("upload directory is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalClient{root: root}, nil
}

func (c *LocalClient) Root() string { return c.root }

func (c *LocalClient) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || clean == "." || filepath.IsAbs(clean) || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(c.root, clean), nil
}

// UploadFile writes data to root/key, replacing any file of the same name.
func (c *LocalClient) UploadFile(ctx context.Context, key string, data io.Reader, _ string) (string, error) {
	dst, err := c.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, ctxReader{ctx: ctx, r: data}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	return dst, nil
}

func (c *LocalClient) DeleteFile(_ context.Context, key string) error {
	p, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// GetObjectReader opens root/key. A missing file wraps fs.ErrNotExist.
func (c *LocalClient) GetObjectReader(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := c.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
