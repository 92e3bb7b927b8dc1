package extraction

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/acordkit/acord-extract/internal/layout"
	"github.com/acordkit/acord-extract/internal/pdf"
	"github.com/acordkit/acord-extract/internal/registry"
)

// Config carries the orchestrator's operational limits and the pipeline's
// tunable thresholds.
type Config struct {
	MaxFileSize         int64
	MaxPageCount        int
	LineOverlapFraction float64
	ConfidenceFloor     float64
}

// FragmentSource produces positioned text fragments from PDF bytes.
type FragmentSource interface {
	Read(data []byte) ([]pdf.TextFragment, error)
}

// FormSource produces filled interactive form field pairs from PDF bytes.
type FormSource interface {
	Read(data []byte) ([]pdf.FormFieldPair, error)
}

// AuthVerifier validates a bearer token into an identity. The pipeline never
// inspects credentials itself; verification happens in the transport layer
// before Extract runs.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// HistorySink receives the outcome of every extraction request for
// persistence. The pipeline has no knowledge of the storage format.
type HistorySink interface {
	Record(ctx context.Context, identity Identity, rec Record) error
}

// Service is the extraction request orchestrator: it validates an upload,
// drives the pipeline, and returns either a complete document or a
// document-level error, never a partial document. Each call is independent
// and safe to run concurrently; all per-request state is request-local.
type Service struct {
	validator     *pdf.UploadValidator
	fragments     FragmentSource
	forms         FormSource
	reconstructor *layout.Reconstructor
	engine        *Engine
	normalizer    *Normalizer
	history       HistorySink
	now           func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithHistorySink attaches a history collaborator notified on every outcome.
func WithHistorySink(sink HistorySink) Option {
	return func(s *Service) { s.history = sink }
}

// WithFragmentSource overrides the PDF text layer reader.
func WithFragmentSource(src FragmentSource) Option {
	return func(s *Service) { s.fragments = src }
}

// WithFormSource overrides the interactive form field reader.
func WithFormSource(src FormSource) Option {
	return func(s *Service) { s.forms = src }
}

// NewService wires the full pipeline over the given registry.
func NewService(cfg Config, reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		validator:     pdf.NewUploadValidator(cfg.MaxFileSize, cfg.MaxPageCount),
		fragments:     pdf.NewFragmentReader(),
		forms:         pdf.NewAcroFormReader(),
		reconstructor: layout.NewReconstructor(cfg.LineOverlapFraction, reg),
		engine:        NewEngine(reg, cfg.ConfidenceFloor),
		normalizer:    NewNormalizer(reg),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract runs the full pipeline for one upload on behalf of the given
// identity. Document-level failures return a nil document and a
// *pdf.DocumentError; a successful extraction always returns the complete
// canonical field map. The outcome, either way, is reported to the history
// collaborator.
func (s *Service) Extract(ctx context.Context, identity Identity, upload Upload) (ExtractedDocument, error) {
	doc, err := s.extract(upload)
	s.record(ctx, identity, upload, doc, err)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) extract(upload Upload) (ExtractedDocument, error) {
	if _, err := s.validator.Validate(upload.ContentType, upload.Data); err != nil {
		return nil, err
	}

	fragments, err := s.fragments.Read(upload.Data)
	if err != nil {
		return nil, err
	}

	lines := s.reconstructor.Lines(fragments)
	lines = append(lines, s.formLines(upload.Data, len(lines))...)

	candidates := s.engine.Candidates(lines)
	winners := s.engine.SelectWinners(candidates)

	return s.normalizer.Document(winners), nil
}

// formLines converts filled interactive form fields into synthetic layout
// lines so they flow through the same registry matching as text-layer lines.
// Form extraction failures are not fatal: the text layer has already been
// read by the time this runs.
func (s *Service) formLines(data []byte, nextLineID int) []layout.Line {
	pairs, err := s.forms.Read(data)
	if err != nil {
		log.Printf("[extract] form field harvesting failed: %v", err)
		return nil
	}

	lines := make([]layout.Line, 0, len(pairs))
	for i, pair := range pairs {
		lines = append(lines, layout.Line{
			ID:    nextLineID + i,
			Page:  FormFieldPage,
			Y:     -float64(i),
			Text:  pair.Name + ": " + pair.Value,
			Label: humanizeFieldName(pair.Name),
			Value: pair.Value,
		})
	}
	return lines
}

func (s *Service) record(ctx context.Context, identity Identity, upload Upload, doc ExtractedDocument, err error) {
	if s.history == nil {
		return
	}

	rec := Record{
		Filename:    upload.Filename,
		RequestedAt: s.now().UTC(),
		Document:    doc,
	}
	if err != nil {
		if docErr, ok := pdf.AsDocumentError(err); ok {
			payload := docErr.Payload()
			rec.Error = &payload
		} else {
			rec.Error = &pdf.ErrorPayload{Error: pdf.KindUnreadablePDF, Message: err.Error()}
		}
	}

	if recordErr := s.history.Record(ctx, identity, rec); recordErr != nil {
		log.Printf("[extract] history sink rejected record for %s: %v", upload.Filename, recordErr)
	}
}

// humanizeFieldName turns an AcroForm field name such as
// "Applicant.BusinessName" or "annual_revenue" into label words the synonym
// matcher can work with.
func humanizeFieldName(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)

	var prev rune
	for _, r := range name {
		switch {
		case r == '.' || r == '_' || r == '-':
			b.WriteByte(' ')
			r = ' '
		case unicode.IsUpper(r) && prev != 0 && !unicode.IsUpper(prev) && prev != ' ':
			b.WriteByte(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prev = r
	}

	return b.String()
}
