package pdf

import (
	"bytes"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ContentTypePDF is the only media type accepted for uploads.
const ContentTypePDF = "application/pdf"

// UploadValidator enforces the inbound document limits: declared media type,
// byte-size ceiling, and page-count ceiling. Structural checks are delegated
// to pdfcpu with relaxed validation, matching how real-world ACORD PDFs are
// produced.
type UploadValidator struct {
	maxFileSize  int64
	maxPageCount int
}

// NewUploadValidator creates a validator with the given ceilings.
func NewUploadValidator(maxFileSize int64, maxPageCount int) *UploadValidator {
	return &UploadValidator{
		maxFileSize:  maxFileSize,
		maxPageCount: maxPageCount,
	}
}

// Validate checks an upload against the configured limits and returns the
// page count on success. All failures are DocumentErrors, reported before any
// pipeline stage runs.
func (v *UploadValidator) Validate(contentType string, data []byte) (int, error) {
	if normalizeContentType(contentType) != ContentTypePDF {
		return 0, NewUnsupportedMediaTypeError(contentType)
	}

	if int64(len(data)) > v.maxFileSize {
		return 0, NewPayloadTooLargeError(int64(len(data)), v.maxFileSize)
	}

	if len(data) == 0 {
		return 0, NewUnreadablePDFError("upload is empty", nil)
	}

	pageCount, err := v.pageCount(data)
	if err != nil {
		return 0, NewUnreadablePDFError("stream is not a valid PDF", err)
	}

	if pageCount > v.maxPageCount {
		return 0, NewDocumentTooLargeError(pageCount, v.maxPageCount)
	}

	return pageCount, nil
}

// pageCount parses the document structure with pdfcpu and returns the number
// of pages.
func (v *UploadValidator) pageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, err
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, err
	}

	return ctx.PageCount, nil
}

// normalizeContentType strips media type parameters such as charset and
// lowercases the base type.
func normalizeContentType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
