package extractors

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ core.Extractor = (*PDFExtractor)(nil)

type pageSource interface {
	NumPage() int
	// PageText returns the plain text of the 1-based page i.
	PageText(i int) (string, error)
	Close() error
}

// PDFExtractor emits one record per page that carries text.
type PDFExtractor struct {
	open func(path string) (pageSource, error)
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{open: openPDF}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) ([]models.Record, error) {
	doc, err := e.open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var out []models.Record
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.PageText(i)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		meta := baseMeta(path, models.FileTypePDF)
		meta[models.MetaPageNumber] = i
		out = append(out, models.NewRecord(text, meta))
	}
	return out, nil
}

type ledongthucDoc struct {
	f *os.File
	r *pdf.Reader
}

func openPDF(path string) (pageSource, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &ledongthucDoc{f: f, r: r}, nil
}

func (d *ledongthucDoc) NumPage() int { return d.r.NumPage() }

func (d *ledongthucDoc) PageText(i int) (string, error) {
	page := d.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(make(map[string]*pdf.Font))
}

func (d *ledongthucDoc) Close() error { return d.f.Close() }
