// Package pdf turns uploaded PDF byte streams into the positioned text
// fragments and validation verdicts the extraction pipeline consumes.
package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextFragment is a single positioned run of text from a PDF text layer.
// Coordinates are in PDF user space: the origin is the lower-left corner of
// the page, so larger Y means closer to the top.
type TextFragment struct {
	Text   string  `json:"text"`
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FragmentReader extracts the text layer of a PDF as an ordered fragment
// sequence: page-major, then top-to-bottom, then left-to-right.
type FragmentReader struct{}

// NewFragmentReader creates a text layer reader.
func NewFragmentReader() *FragmentReader {
	return &FragmentReader{}
}

// Read parses the PDF in data and returns its positioned text fragments.
// It returns a DocumentError of kind unreadable_pdf when the stream is not a
// parseable PDF or carries no extractable text layer.
func (r *FragmentReader) Read(data []byte) ([]TextFragment, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewUnreadablePDFError("stream is not a valid PDF", err)
	}

	var fragments []TextFragment
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		pageFragments, err := r.readPage(reader, pageNum)
		if err != nil {
			// A single malformed page does not make the document unreadable;
			// remaining pages may still carry the fields we need.
			continue
		}
		fragments = append(fragments, pageFragments...)
	}

	if len(fragments) == 0 {
		return nil, NewUnreadablePDFError("PDF contains no extractable text layer", nil)
	}

	sortFragments(fragments)
	return fragments, nil
}

// readPage extracts the fragments of one page. Content stream walks in the
// underlying library can panic on malformed input, so the page walk is
// isolated behind a recover.
func (r *FragmentReader) readPage(reader *pdf.Reader, pageNum int) (fragments []TextFragment, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fragments = nil
			err = fmt.Errorf("panic while reading page %d: %v", pageNum, rec)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("invalid page %d", pageNum)
	}

	content := page.Content()
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		height := t.FontSize
		if height <= 0 {
			height = defaultGlyphHeight
		}
		fragments = append(fragments, TextFragment{
			Text:   t.S,
			Page:   pageNum,
			X:      t.X,
			Y:      t.Y,
			Width:  t.W,
			Height: height,
		})
	}

	return fragments, nil
}

// defaultGlyphHeight stands in when the content stream carries no font size.
const defaultGlyphHeight = 12.0

// sortFragments orders fragments page-major, then top-to-bottom (descending
// Y), then left-to-right. The sort is stable so identical inputs always yield
// identical sequences.
func sortFragments(fragments []TextFragment) {
	sort.SliceStable(fragments, func(i, j int) bool {
		a, b := fragments[i], fragments[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		return a.X < b.X
	})
}
