package extraction

import (
	"sort"
	"strings"

	"github.com/acordkit/acord-extract/internal/layout"
	"github.com/acordkit/acord-extract/internal/registry"
)

// Confidence levels emitted by the engine.
const (
	// ConfidenceFull means both the label and the value shape matched.
	ConfidenceFull = 1.0

	// ConfidenceLabelOnly means the label matched but the value shape was
	// rejected. The candidate is still emitted so the document can surface a
	// "found but malformed" signal through normalization.
	ConfidenceLabelOnly = 0.5

	// DefaultConfidenceFloor is the default minimum confidence a candidate
	// needs to be considered during selection at all.
	DefaultConfidenceFloor = 0.3
)

// FormFieldPage is the sentinel page assigned to candidates harvested from
// interactive form fields rather than the text layer. It sorts after every
// real page, so text-layer candidates win ties, and it is reported as a null
// source page.
const FormFieldPage = 1 << 30

// Engine matches layout lines against the field registry and selects at most
// one winning candidate per canonical field. The engine is stateless across
// requests; the registry it holds is process-wide and read-only.
type Engine struct {
	reg             *registry.Registry
	confidenceFloor float64
}

// NewEngine creates an engine. Candidates below confidenceFloor are
// discarded entirely, never selected even as a best-effort fallback.
func NewEngine(reg *registry.Registry, confidenceFloor float64) *Engine {
	if confidenceFloor < 0 || confidenceFloor >= 1 {
		confidenceFloor = DefaultConfidenceFloor
	}
	return &Engine{
		reg:             reg,
		confidenceFloor: confidenceFloor,
	}
}

// Candidates matches every line with a value part against the registry and
// returns all resulting field candidates in line order.
func (e *Engine) Candidates(lines []layout.Line) []FieldCandidate {
	var candidates []FieldCandidate

	for _, line := range lines {
		if strings.TrimSpace(line.Value) == "" {
			continue
		}

		field, ok := e.matchLabel(line.Label)
		if !ok {
			continue
		}

		value := strings.TrimSpace(line.Value)
		confidence := ConfidenceLabelOnly
		if field.Pattern.FindString(value) == value {
			confidence = ConfidenceFull
		}

		candidates = append(candidates, FieldCandidate{
			CanonicalField:   field.CanonicalName,
			MatchedLabelText: strings.TrimSpace(line.Label),
			RawValueText:     value,
			Page:             line.Page,
			Y:                line.Y,
			LineID:           line.ID,
			Confidence:       confidence,
		})
	}

	return candidates
}

// matchLabel resolves a raw label to the registry field it belongs to. A
// match requires the normalized label to equal a synonym or to contain (or be
// contained in) a synonym on word boundaries; the longest matching synonym
// wins, with exact equality preferred, so "Mailing Address" never falls
// through to the bare "Address" field when both are registered.
func (e *Engine) matchLabel(label string) (registry.Field, bool) {
	normalized := registry.NormalizeLabel(label)
	if normalized == "" {
		return registry.Field{}, false
	}

	var (
		best      registry.Field
		bestScore = -1
	)
	for _, field := range e.reg.Fields() {
		for _, syn := range field.Synonyms {
			score := synonymScore(normalized, syn)
			if score > bestScore {
				best = field
				bestScore = score
			}
		}
	}

	if bestScore < 0 {
		return registry.Field{}, false
	}
	return best, true
}

// synonymScore rates how well a normalized label matches a normalized
// synonym: exact equality beats boundary containment, longer synonyms beat
// shorter ones, and -1 means no match. A label contained in a longer synonym
// only counts when the label itself is multi-word; a stray single word like
// "name" must not claim every field whose synonyms mention it.
func synonymScore(label, syn string) int {
	if label == syn {
		return 2*len(syn) + 1
	}
	if containsWord(label, syn) {
		return 2 * len(syn)
	}
	if strings.Contains(label, " ") && containsWord(syn, label) {
		return 2 * len(syn)
	}
	return -1
}

// containsWord reports whether needle occurs in haystack on word boundaries.
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		startOK := start == 0 || haystack[start-1] == ' '
		endOK := end == len(haystack) || haystack[end] == ' '
		if startOK && endOK {
			return true
		}
		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}

// SelectWinners picks at most one candidate per canonical field. Candidates
// below the confidence floor are dropped first. Within a field the highest
// confidence wins, ties broken by earliest page then topmost line. Fields are
// resolved in registry order, and a line consumed as the value source for one
// field is excluded from consideration for all others.
func (e *Engine) SelectWinners(candidates []FieldCandidate) map[string]FieldCandidate {
	byField := make(map[string][]FieldCandidate)
	for _, c := range candidates {
		if c.Confidence < e.confidenceFloor {
			continue
		}
		byField[c.CanonicalField] = append(byField[c.CanonicalField], c)
	}

	for _, list := range byField {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Confidence != list[j].Confidence {
				return list[i].Confidence > list[j].Confidence
			}
			if list[i].Page != list[j].Page {
				return list[i].Page < list[j].Page
			}
			if list[i].Y != list[j].Y {
				return list[i].Y > list[j].Y
			}
			return list[i].LineID < list[j].LineID
		})
	}

	winners := make(map[string]FieldCandidate, len(byField))
	consumedLines := make(map[int]bool)

	for _, name := range e.reg.CanonicalNames() {
		for _, c := range byField[name] {
			if consumedLines[c.LineID] {
				continue
			}
			winners[name] = c
			consumedLines[c.LineID] = true
			break
		}
	}

	return winners
}
