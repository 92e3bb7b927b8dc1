package pdf

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestDocumentErrorPayload(t *testing.T) {
	err := NewPayloadTooLargeError(2048, 1024)

	payload := err.Payload()
	if payload.Error != KindPayloadTooLarge {
		t.Errorf("expected kind %s, got %s", KindPayloadTooLarge, payload.Error)
	}

	encoded, jsonErr := json.Marshal(payload)
	if jsonErr != nil {
		t.Fatalf("failed to marshal payload: %v", jsonErr)
	}
	want := `{"error":"payload_too_large","message":"upload is 2048 bytes, limit is 1024 bytes"}`
	if string(encoded) != want {
		t.Errorf("unexpected payload JSON:\n got %s\nwant %s", encoded, want)
	}
}

func TestDocumentErrorUnwrap(t *testing.T) {
	cause := errors.New("xref table truncated")
	err := NewUnreadablePDFError("stream is not a valid PDF", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause to survive errors.Is")
	}
}

func TestAsDocumentError(t *testing.T) {
	docErr := NewUnsupportedMediaTypeError("text/plain")
	wrapped := fmt.Errorf("extract: %w", docErr)

	got, ok := AsDocumentError(wrapped)
	if !ok {
		t.Fatalf("expected AsDocumentError to unwrap")
	}
	if got.Kind != KindUnsupportedMediaType {
		t.Errorf("expected kind %s, got %s", KindUnsupportedMediaType, got.Kind)
	}

	if _, ok := AsDocumentError(errors.New("plain")); ok {
		t.Errorf("plain errors must not convert")
	}
}
