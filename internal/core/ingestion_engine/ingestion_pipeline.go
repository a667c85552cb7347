package ingestion_engine

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/core/extractors"
	"github.com/markdave123-py/Mosaic/internal/logger"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ Ingestor = (*DocumentIngestor)(nil)

// DocumentIngestor orchestrates ingestion:
//
// registry: format detection and per-format extractors.
// youtube:  remote video extractor.
// obj:      upload persistence (local directory, optionally archived).
// index:    receives the records of each batch.
// tracker:  session list of uploaded items (may be nil).
type DocumentIngestor struct {
	registry *extractors.Registry
	youtube  core.Extractor
	obj      core.ObjectClient
	index    Indexer
	tracker  Tracker
	cfg      IngestConfig
}

func NewDocumentIngestor(registry *extractors.Registry, youtube core.Extractor, obj core.ObjectClient, index Indexer, tracker Tracker, cfg IngestConfig) *DocumentIngestor {
	return &DocumentIngestor{
		registry: registry,
		youtube:  youtube,
		obj:      obj,
		index:    index,
		tracker:  tracker,
		cfg:      cfg,
	}
}

// ProcessUpload validates, stores and extracts one file. It does not index
// the records; see ProcessBatch.
func (i *DocumentIngestor) ProcessUpload(ctx context.Context, name string, r io.Reader, size int64) ([]models.Record, error) {
	name, ok := uploadName(name)
	if !ok {
		return nil, fmt.Errorf("%w: empty file name", extractors.ErrUnsupportedFormat)
	}

	if _, err := i.registry.Detect(name); err != nil {
		return nil, err
	}
	if i.cfg.MaxFileSize > 0 && size > i.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, name, size, i.cfg.MaxFileSize)
	}

	// guard uploads whose declared size was wrong
	lr := &limitedReader{r: r, max: i.cfg.MaxFileSize}
	location, err := i.obj.UploadFile(ctx, name, lr, contentType(name))
	if err != nil {
		if lr.exceeded {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, name)
		}
		return nil, fmt.Errorf("store %s: %w", name, err)
	}

	ectx := ctx
	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}

	records, err := i.registry.Extract(ectx, location)
	if err != nil {
		if derr := i.obj.DeleteFile(ctx, name); derr != nil {
			logger.Warn("could not remove rejected upload", "file_name", name, "error", derr)
		}
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}

	if i.tracker != nil {
		i.tracker.Track(uploadedFile(name, i.registry.Formats.Category(filepath.Ext(name)), lr.n))
	}
	logger.Info("file processed", "file_name", name, "records", len(records), "bytes", lr.n)
	return records, nil
}

// OpenUpload returns the stored copy of an uploaded file. Unknown names
// wrap fs.ErrNotExist.
func (i *DocumentIngestor) OpenUpload(ctx context.Context, name string) (io.ReadCloser, error) {
	key, ok := uploadName(name)
	if !ok || key != strings.TrimSpace(name) {
		return nil, fmt.Errorf("upload %q: %w", name, fs.ErrNotExist)
	}
	return i.obj.GetObjectReader(ctx, key)
}

// ProcessBatch runs ProcessUpload for every item in order, collects the
// per-item errors and indexes all successful records with a single Add.
func (i *DocumentIngestor) ProcessBatch(ctx context.Context, uploads []Upload) (BatchResult, error) {
	var (
		res batchBuilder
		all []models.Record
	)

	for _, up := range uploads {
		records, err := i.processOne(ctx, up)
		if err != nil {
			logger.Warn("file rejected", "file_name", up.Name, "error", err)
			res.fail(up.Name, err)
			continue
		}
		all = append(all, records...)
		res.ok(up.Name, len(records))
	}

	out := res.result()
	if len(all) == 0 {
		return out, nil
	}
	if err := i.index.Add(ctx, all); err != nil {
		return out, fmt.Errorf("index batch: %w", err)
	}
	return out, nil
}

func (i *DocumentIngestor) processOne(ctx context.Context, up Upload) ([]models.Record, error) {
	if up.Open == nil {
		return nil, fmt.Errorf("no content for %s", up.Name)
	}
	rc, err := up.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", up.Name, err)
	}
	defer rc.Close()
	return i.ProcessUpload(ctx, up.Name, rc, up.Size)
}

// ProcessURL extracts a remote video and indexes its single record.
func (i *DocumentIngestor) ProcessURL(ctx context.Context, url string) ([]models.Record, error) {
	if i.youtube == nil {
		return nil, fmt.Errorf("remote video ingestion is not configured")
	}
	url = strings.TrimSpace(url)

	records, err := i.youtube.Extract(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", url, err)
	}
	if err := i.index.Add(ctx, records); err != nil {
		return nil, fmt.Errorf("index %s: %w", url, err)
	}

	if i.tracker != nil {
		i.tracker.Track(uploadedFile("YouTube: "+extractors.ExtractVideoID(url), models.CategoryYouTube, 0))
	}
	logger.Info("youtube video processed", "url", url, "records", len(records))
	return records, nil
}

// batchBuilder accumulates per-item outcomes of a batch.
type batchBuilder struct {
	items   []ItemResult
	records int
}

func (b *batchBuilder) ok(name string, n int) {
	b.items = append(b.items, ItemResult{Name: name, Records: n})
	b.records += n
}

func (b *batchBuilder) fail(name string, err error) {
	b.items = append(b.items, ItemResult{Name: name, Error: err.Error()})
}

func (b *batchBuilder) result() BatchResult {
	return BatchResult{Items: b.items, Records: b.records}
}

// uploadName reduces a client supplied path to its base name. Both slash
// styles are separators, whatever the server OS.
func uploadName(name string) (string, bool) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	switch name {
	case "", ".", "..", "/":
		return "", false
	}
	return name, true
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// limitedReader fails once more than max bytes were read (max <= 0 means no limit).
type limitedReader struct {
	r        io.Reader
	max      int64
	n        int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.max > 0 && l.n > l.max {
		l.exceeded = true
		return n, ErrFileTooLarge
	}
	return n, err
}
