// Package layout reconstructs logical text lines from positioned PDF text
// fragments. The reconstruction is purely geometric; field semantics are
// applied downstream by the extraction engine.
package layout

import (
	"sort"
	"strings"

	"github.com/acordkit/acord-extract/internal/pdf"
	"github.com/acordkit/acord-extract/internal/registry"
)

// Geometry tuning constants. Gap thresholds are expressed as multiples of the
// line height so they track the document's font size.
const (
	// DefaultOverlapFraction is the default vertical-overlap fraction two
	// fragments must share to be judged co-linear.
	DefaultOverlapFraction = 0.5

	// wordGapFactor is the widest horizontal gap still treated as glyph
	// spacing inside one word.
	wordGapFactor = 0.3

	// columnGapFactor is the narrowest horizontal gap treated as a column
	// break between a label part and a value part.
	columnGapFactor = 2.0
)

// Line is a reconstructed logical line of text. Label and Value carry the
// split halves when a delimiter was found; a line without a delimiter is
// label-only (typically a section header) and has an empty Value.
type Line struct {
	ID    int
	Page  int
	Y     float64
	Text  string
	Label string
	Value string
}

// Reconstructor groups text fragments into lines and splits each line into a
// label candidate and a value candidate. Identical fragment input always
// yields an identical line sequence.
type Reconstructor struct {
	overlapFraction float64
	synonyms        []string
}

// NewReconstructor creates a reconstructor. The registry's label synonyms are
// used as a fallback split boundary for lines without an explicit delimiter;
// overlapFraction controls line grouping and must be in (0, 1].
func NewReconstructor(overlapFraction float64, reg *registry.Registry) *Reconstructor {
	if overlapFraction <= 0 || overlapFraction > 1 {
		overlapFraction = DefaultOverlapFraction
	}

	var synonyms []string
	if reg != nil {
		for _, field := range reg.Fields() {
			synonyms = append(synonyms, field.Synonyms...)
		}
	}
	// Longest synonym first so "mailing address" is tried before "address".
	sort.Slice(synonyms, func(i, j int) bool {
		if len(synonyms[i]) != len(synonyms[j]) {
			return len(synonyms[i]) > len(synonyms[j])
		}
		return synonyms[i] < synonyms[j]
	})

	return &Reconstructor{
		overlapFraction: overlapFraction,
		synonyms:        synonyms,
	}
}

// Lines groups fragments into ordered layout lines: page-major, top to
// bottom. Fragments must already be request-local; the returned lines share
// no state with the input.
func (r *Reconstructor) Lines(fragments []pdf.TextFragment) []Line {
	buckets := r.groupIntoBuckets(fragments)

	lines := make([]Line, 0, len(buckets))
	for _, b := range buckets {
		text, runs := assembleRuns(b.fragments)
		if strings.TrimSpace(text) == "" {
			continue
		}
		label, value := r.splitLabelValue(text, runs)
		lines = append(lines, Line{
			Page:  b.page,
			Y:     b.top,
			Text:  text,
			Label: label,
			Value: value,
		})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Page != lines[j].Page {
			return lines[i].Page < lines[j].Page
		}
		return lines[i].Y > lines[j].Y
	})
	for i := range lines {
		lines[i].ID = i
	}
	return lines
}

type bucket struct {
	page      int
	top       float64
	bottom    float64
	minHeight float64
	fragments []pdf.TextFragment
}

// groupIntoBuckets assigns each fragment to the first existing line bucket it
// vertically overlaps by more than the configured fraction, creating a new
// bucket otherwise. First-match over an ordered bucket list keeps the result
// independent of map iteration order.
func (r *Reconstructor) groupIntoBuckets(fragments []pdf.TextFragment) []bucket {
	var buckets []bucket

	for _, f := range fragments {
		placed := false
		for i := range buckets {
			if buckets[i].page != f.Page {
				continue
			}
			if r.overlaps(f, &buckets[i]) {
				buckets[i].fragments = append(buckets[i].fragments, f)
				if f.Y+f.Height > buckets[i].top {
					buckets[i].top = f.Y + f.Height
				}
				if f.Y < buckets[i].bottom {
					buckets[i].bottom = f.Y
				}
				if f.Height < buckets[i].minHeight {
					buckets[i].minHeight = f.Height
				}
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{
				page:      f.Page,
				top:       f.Y + f.Height,
				bottom:    f.Y,
				minHeight: f.Height,
				fragments: []pdf.TextFragment{f},
			})
		}
	}

	return buckets
}

// overlaps reports whether the fragment's y-range overlaps the bucket's by
// more than the configured fraction of the smaller height.
func (r *Reconstructor) overlaps(f pdf.TextFragment, b *bucket) bool {
	top := f.Y + f.Height
	if b.top < top {
		top = b.top
	}
	bottom := f.Y
	if b.bottom > bottom {
		bottom = b.bottom
	}
	overlap := top - bottom
	if overlap <= 0 {
		return false
	}

	height := f.Height
	if b.minHeight < height {
		height = b.minHeight
	}
	if height <= 0 {
		return false
	}

	return overlap/height > r.overlapFraction
}

// assembleRuns orders a line's fragments by x-coordinate and joins them into
// text runs. Fragments separated by less than a word gap concatenate
// directly, up to a column gap they join with a space, and anything wider
// starts a new run.
func assembleRuns(fragments []pdf.TextFragment) (string, []string) {
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].X < fragments[j].X
	})

	height := fragments[0].Height
	for _, f := range fragments[1:] {
		if f.Height < height {
			height = f.Height
		}
	}

	var runs []string
	var current strings.Builder
	prevEnd := 0.0

	for i, f := range fragments {
		if i == 0 {
			current.WriteString(f.Text)
			prevEnd = f.X + f.Width
			continue
		}

		gap := f.X - prevEnd
		switch {
		case gap > columnGapFactor*height:
			runs = append(runs, strings.TrimSpace(current.String()))
			current.Reset()
			current.WriteString(f.Text)
		case gap > wordGapFactor*height:
			current.WriteByte(' ')
			current.WriteString(f.Text)
		default:
			current.WriteString(f.Text)
		}
		if f.X+f.Width > prevEnd {
			prevEnd = f.X + f.Width
		}
	}
	runs = append(runs, strings.TrimSpace(current.String()))

	return strings.Join(runs, " "), runs
}

// splitLabelValue splits a line into its label and value parts using the
// first strong delimiter: a colon, then a column gap, then a registry synonym
// boundary. Lines with no delimiter are label-only.
func (r *Reconstructor) splitLabelValue(text string, runs []string) (label, value string) {
	if idx := strings.Index(text, ":"); idx >= 0 {
		return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:])
	}

	if len(runs) >= 2 {
		return strings.TrimSpace(runs[0]), strings.TrimSpace(strings.Join(runs[1:], " "))
	}

	if lbl, val, ok := r.splitOnSynonym(text); ok {
		return lbl, val
	}

	return strings.TrimSpace(text), ""
}

// splitOnSynonym splits the line after the longest registry synonym that
// forms a word-boundary prefix of the line.
func (r *Reconstructor) splitOnSynonym(text string) (label, value string, ok bool) {
	words := strings.Fields(text)
	if len(words) < 2 {
		return "", "", false
	}

	for _, syn := range r.synonyms {
		for i := 1; i < len(words); i++ {
			prefix := strings.Join(words[:i], " ")
			if registry.NormalizeLabel(prefix) == syn {
				return prefix, strings.Join(words[i:], " "), true
			}
		}
	}

	return "", "", false
}
