package models

import (
	"time"

	"github.com/google/uuid"
)

// FileType is the closed set of content kinds a Record can originate from.
type FileType string

const (
	FileTypeText    FileType = "text"
	FileTypePDF     FileType = "pdf"
	FileTypeDocx    FileType = "docx"
	FileTypeImage   FileType = "image"
	FileTypeAudio   FileType = "audio"
	FileTypeVideo   FileType = "video"
	FileTypeYouTube FileType = "youtube"
)

// Category is the upload allow-list a file extension belongs to.
type Category string

const (
	CategoryText    Category = "text"
	CategoryImage   Category = "image"
	CategoryAudio   Category = "audio"
	CategoryVideo   Category = "video"
	CategoryYouTube Category = "youtube"
	CategoryUnknown Category = "unknown"
)

// Metadata keys shared by every extractor.
const (
	MetaFileName      = "file_name"
	MetaFileType      = "file_type"
	MetaSource        = "source"
	MetaPageNumber    = "page_number"
	MetaImageSize     = "image_size"
	MetaOCREngine     = "ocr_engine"
	MetaDuration      = "duration_seconds"
	MetaFPS           = "fps"
	MetaError         = "error"
	MetaVideoID       = "video_id"
	MetaURL           = "url"
	MetaTitle         = "title"
	MetaAuthor        = "author"
	MetaHasTranscript = "has_transcript"
)

// Record is one unit of normalized text produced by an extractor.
// Text is never empty: failures that degrade still carry a bracketed placeholder.
type Record struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// NewRecord assigns a fresh ID.
func NewRecord(text string, meta map[string]any) Record {
	if meta == nil {
		meta = map[string]any{}
	}
	return Record{ID: uuid.NewString(), Text: text, Metadata: meta}
}

func (r Record) FileName() string {
	s, _ := r.Metadata[MetaFileName].(string)
	return s
}

func (r Record) FileType() FileType {
	switch v := r.Metadata[MetaFileType].(type) {
	case FileType:
		return v
	case string:
		return FileType(v)
	}
	return ""
}

// Failed reports whether the record is a degraded placeholder.
func (r Record) Failed() bool {
	_, ok := r.Metadata[MetaError]
	return ok
}

// UploadedFile is the presentational entry kept per ingested item.
type UploadedFile struct {
	Name       string    `json:"name"`
	Category   Category  `json:"type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Chunk is the stored, embedded unit of a record.
type Chunk struct {
	ID         string         `db:"id" json:"id"`
	RecordID   string         `db:"record_id" json:"record_id"`
	Collection string         `db:"collection" json:"collection"`
	Position   int            `db:"position" json:"position"`
	Text       string         `db:"text" json:"text"`
	Metadata   map[string]any `db:"metadata" json:"metadata"`
	Embedding  []float32      `db:"embedding" json:"-"`
	TokenCount int            `db:"token_count" json:"token_count"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// ScoredChunk is a search hit; higher Score is more similar.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// ChatMessage represents an individual chat message (user or assistant).
type ChatMessage struct {
	Role      string    `json:"role"`    // "user" or "assistant"
	Content   string    `json:"content"` // message text
	CreatedAt time.Time `json:"created_at"`
}
