// Package extraction implements the field extraction pipeline: matching
// reconstructed layout lines against the field registry, normalizing winning
// values, and orchestrating the stages behind a single request entry point.
package extraction

import (
	"time"

	"github.com/acordkit/acord-extract/internal/pdf"
)

// FieldCandidate is one possible value for a canonical field, traced back to
// the layout line it came from. Multiple candidates may exist per field; the
// engine deterministically selects at most one winner.
type FieldCandidate struct {
	CanonicalField   string  `json:"canonical_field"`
	MatchedLabelText string  `json:"matched_label_text"`
	RawValueText     string  `json:"raw_value_text"`
	Page             int     `json:"page"`
	Y                float64 `json:"y"`
	LineID           int     `json:"line_id"`
	Confidence       float64 `json:"confidence"`
}

// FieldResult is the per-field entry of an extracted document. Value is null
// and Found false when the field was absent or failed normalization;
// SourcePage is null for fields that were not found or whose source carries
// no page (interactive form values).
type FieldResult struct {
	Value      any  `json:"value"`
	Found      bool `json:"found"`
	SourcePage *int `json:"source_page"`
}

// ExtractedDocument maps every canonical field in the registry to its result.
// The key set is closed: every registry field appears exactly once, found or
// not, so callers can treat the schema as stable.
type ExtractedDocument map[string]FieldResult

// Upload is the inbound file descriptor handed over by the transport
// collaborator.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Identity is the authenticated user on whose behalf an extraction runs. It
// is produced by the external auth collaborator and treated opaquely here.
type Identity struct {
	Subject string
}

// LocalIdentity is the identity used by the stdio and CLI surfaces, where the
// operating system user is the caller.
func LocalIdentity() Identity {
	return Identity{Subject: "local"}
}

// Record is the outcome of one extraction request as handed to the history
// collaborator: either a document or an error payload, never both.
type Record struct {
	Filename    string            `json:"filename"`
	RequestedAt time.Time         `json:"requested_at"`
	Document    ExtractedDocument `json:"document,omitempty"`
	Error       *pdf.ErrorPayload `json:"error,omitempty"`
}
