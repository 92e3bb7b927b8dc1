package pdf

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable classification of a document-level
// failure. Document-level errors abort the whole request; they are never
// paired with a partial field map.
type ErrorKind string

const (
	// KindUnreadablePDF covers corrupt byte streams and PDFs without an
	// extractable text layer. Terminal, non-retryable.
	KindUnreadablePDF ErrorKind = "unreadable_pdf"

	// KindUnsupportedMediaType is returned when the declared content type of
	// an upload is not application/pdf.
	KindUnsupportedMediaType ErrorKind = "unsupported_media_type"

	// KindPayloadTooLarge is returned when the upload exceeds the configured
	// byte ceiling.
	KindPayloadTooLarge ErrorKind = "payload_too_large"

	// KindDocumentTooLarge is returned when the page count exceeds the
	// configured ceiling.
	KindDocumentTooLarge ErrorKind = "document_too_large"
)

// DocumentError is a document-level extraction failure with a stable,
// JSON-serializable error kind.
type DocumentError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// ErrorPayload is the wire shape handed to transport collaborators.
type ErrorPayload struct {
	Error   ErrorKind `json:"error"`
	Message string    `json:"message"`
}

// Payload returns the JSON-serializable form of the error.
func (e *DocumentError) Payload() ErrorPayload {
	return ErrorPayload{Error: e.Kind, Message: e.Message}
}

// NewUnreadablePDFError reports a corrupt stream or missing text layer.
func NewUnreadablePDFError(message string, err error) *DocumentError {
	return &DocumentError{Kind: KindUnreadablePDF, Message: message, Err: err}
}

// NewUnsupportedMediaTypeError reports a non-PDF declared content type.
func NewUnsupportedMediaTypeError(contentType string) *DocumentError {
	return &DocumentError{
		Kind:    KindUnsupportedMediaType,
		Message: fmt.Sprintf("unsupported content type %q, expected application/pdf", contentType),
	}
}

// NewPayloadTooLargeError reports an upload exceeding the byte ceiling.
func NewPayloadTooLargeError(size, limit int64) *DocumentError {
	return &DocumentError{
		Kind:    KindPayloadTooLarge,
		Message: fmt.Sprintf("upload is %d bytes, limit is %d bytes", size, limit),
	}
}

// NewDocumentTooLargeError reports a page count exceeding the page ceiling.
func NewDocumentTooLargeError(pages, limit int) *DocumentError {
	return &DocumentError{
		Kind:    KindDocumentTooLarge,
		Message: fmt.Sprintf("document has %d pages, limit is %d pages", pages, limit),
	}
}

// AsDocumentError unwraps err into a *DocumentError when possible.
func AsDocumentError(err error) (*DocumentError, bool) {
	var docErr *DocumentError
	if errors.As(err, &docErr) {
		return docErr, true
	}
	return nil, false
}
