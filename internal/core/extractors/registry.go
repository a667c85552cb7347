package extractors

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

// ErrUnsupportedFormat is returned for extensions outside every allow-list.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format is the closed set of file formats the registry dispatches on.
type Format int

const (
	FormatUnknown Format = iota
	FormatText
	FormatPDF
	FormatDocx
	FormatDoc
	FormatImage
	FormatAudio
	FormatVideo
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatPDF:
		return "pdf"
	case FormatDocx:
		return "docx"
	case FormatDoc:
		return "doc"
	case FormatImage:
		return "image"
	case FormatAudio:
		return "audio"
	case FormatVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Formats are the per-category extension allow-lists (".ext", lower case).
type Formats struct {
	Text  []string `json:"text"`
	Image []string `json:"image"`
	Audio []string `json:"audio"`
	Video []string `json:"video"`
}

func DefaultFormats() Formats {
	return Formats{
		Text:  []string{".txt", ".pdf", ".docx", ".doc", ".md"},
		Image: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"},
		Audio: []string{".mp3", ".wav", ".m4a", ".ogg"},
		Video: []string{".mp4", ".avi", ".mov", ".mkv"},
	}
}

// Category returns the allow-list an extension belongs to.
func (f Formats) Category(ext string) models.Category {
	ext = strings.ToLower(ext)
	switch {
	case slices.Contains(f.Text, ext):
		return models.CategoryText
	case slices.Contains(f.Image, ext):
		return models.CategoryImage
	case slices.Contains(f.Audio, ext):
		return models.CategoryAudio
	case slices.Contains(f.Video, ext):
		return models.CategoryVideo
	default:
		return models.CategoryUnknown
	}
}

// Registry maps files to the extractor for their format.
type Registry struct {
	Formats Formats

	Text  core.Extractor
	PDF   core.Extractor
	Word  core.Extractor
	Image core.Extractor
	Audio core.Extractor
	Video core.Extractor
}

// Detect resolves the format of a file name from its extension.
func (r *Registry) Detect(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch r.Formats.Category(ext) {
	case models.CategoryText:
		switch ext {
		case ".pdf":
			return FormatPDF, nil
		case ".docx":
			return FormatDocx, nil
		case ".doc":
			return FormatDoc, nil
		default:
			return FormatText, nil
		}
	case models.CategoryImage:
		return FormatImage, nil
	case models.CategoryAudio:
		return FormatAudio, nil
	case models.CategoryVideo:
		return FormatVideo, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Extract detects the format of path and runs the matching extractor.
func (r *Registry) Extract(ctx context.Context, path string) ([]models.Record, error) {
	format, err := r.Detect(path)
	if err != nil {
		return nil, err
	}

	var ex core.Extractor
	switch format {
	case FormatText:
		ex = r.Text
	case FormatPDF:
		ex = r.PDF
	case FormatDocx, FormatDoc:
		ex = r.Word
	case FormatImage:
		ex = r.Image
	case FormatAudio:
		ex = r.Audio
	case FormatVideo:
		ex = r.Video
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if ex == nil {
		return nil, fmt.Errorf("no extractor configured for %s", format)
	}
	return ex.Extract(ctx, path)
}
