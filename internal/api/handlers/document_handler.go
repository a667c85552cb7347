package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/Mosaic/internal/api/middlewares"
	"github.com/markdave123-py/Mosaic/internal/core/extractors"
	"github.com/markdave123-py/Mosaic/internal/core/ingestion_engine"
	"github.com/markdave123-py/Mosaic/internal/logger"
	"github.com/markdave123-py/Mosaic/internal/models"
	"github.com/markdave123-py/Mosaic/internal/services"
)

// DocumentAPI is what the document endpoints need; *services.DocumentService implements it.
type DocumentAPI interface {
	Upload(ctx context.Context, uploads []ingestion_engine.Upload) (ingestion_engine.BatchResult, error)
	AddYouTube(ctx context.Context, url string) ([]models.Record, error)
	List(ctx context.Context) services.Listing
	DocumentCount(ctx context.Context) int
	ClearIndex(ctx context.Context) error
	Download(ctx context.Context, name string) (io.ReadCloser, error)
}

type DocumentHandler struct {
	docs    DocumentAPI
	formats extractors.Formats
	maxSize int64
}

func NewDocumentHandler(docs DocumentAPI, formats extractors.Formats, maxSize int64) *DocumentHandler {
	return &DocumentHandler{docs: docs, formats: formats, maxSize: maxSize}
}

type uploadResponse struct {
	ingestion_engine.BatchResult
	Failed        int `json:"failed"`
	DocumentCount int `json:"document_count"`
}

// UploadDocuments ingests every file of the multipart "files" field as one batch.
func (h *DocumentHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}

	uploads := make([]ingestion_engine.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, ingestion_engine.Upload{
			Name: fh.Filename,
			Size: fh.Size,
			Open: openPart(fh),
		})
	}

	res, err := h.docs.Upload(r.Context(), uploads)
	if err != nil {
		logger.Error("upload batch failed", "files", len(uploads), "error", err)
		http.Error(w, fmt.Sprintf("indexing failed: %v", err), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if res.Failed() == len(uploads) {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, uploadResponse{
		BatchResult:   res,
		Failed:        res.Failed(),
		DocumentCount: h.docs.DocumentCount(r.Context()),
	})
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return fh.Open() }
}

type youtubeRequest struct {
	URL string `json:"url"`
}

func (h *DocumentHandler) AddYouTube(w http.ResponseWriter, r *http.Request) {
	var req youtubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	records, err := h.docs.AddYouTube(r.Context(), req.URL)
	if err != nil {
		logger.Error("youtube ingestion failed", "url", req.URL, "error", err)
		http.Error(w, fmt.Sprintf("youtube ingestion failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records":        records,
		"document_count": h.docs.DocumentCount(r.Context()),
	})
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.docs.List(r.Context()))
}

func (h *DocumentHandler) ClearIndex(w http.ResponseWriter, r *http.Request) {
	who, ok := middleware.Subject(r.Context())
	if !ok {
		who = "anonymous"
	}
	if err := h.docs.ClearIndex(r.Context()); err != nil {
		logger.Error("clear index failed", "by", who, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logger.Info("index cleared", "by", who)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "cleared_by": who})
}

// DownloadDocument streams back the stored copy of an upload.
func (h *DocumentHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	rc, err := h.docs.Download(r.Context(), name)
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("download failed", "file_name", name, "error", err)
		http.Error(w, "download failed", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if _, err := io.Copy(w, rc); err != nil {
		logger.Warn("download interrupted", "file_name", name, "error", err)
	}
}

func (h *DocumentHandler) GetFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"formats":          h.formats,
		"max_file_size_mb": h.maxSize >> 20,
	})
}
