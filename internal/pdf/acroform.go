package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FormFieldPair is a filled interactive form field: the field name as the
// form author labeled it, plus its current value. Fillable ACORD forms carry
// the application data here rather than in the text layer.
type FormFieldPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AcroFormReader harvests filled AcroForm field values from a PDF.
type AcroFormReader struct{}

// NewAcroFormReader creates an AcroForm reader.
func NewAcroFormReader() *AcroFormReader {
	return &AcroFormReader{}
}

// Read returns the filled form fields of the document. A document without an
// AcroForm dictionary yields an empty slice and no error; only structural
// parse failures are reported.
func (r *AcroFormReader) Read(data []byte) ([]FormFieldPair, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	var pairs []FormFieldPair
	for _, fieldRef := range fieldsArray {
		pairs = r.collectField(ctx, fieldRef, "", pairs)
	}
	return pairs, nil
}

// collectField walks one field dictionary and its Kids, appending every field
// that carries both a name and a non-empty value. Malformed entries are
// skipped; one broken field must not lose the rest of the form.
func (r *AcroFormReader) collectField(
	ctx *model.Context, fieldObj types.Object, parentName string, pairs []FormFieldPair,
) []FormFieldPair {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil || fieldDict == nil {
		return pairs
	}

	name := parentName
	if nameObj, found := fieldDict.Find("T"); found {
		if partial, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && partial != "" {
			if name != "" {
				name = name + "." + partial
			} else {
				name = partial
			}
		}
	}

	if value := r.fieldValue(ctx, fieldDict); name != "" && value != "" {
		pairs = append(pairs, FormFieldPair{Name: name, Value: value})
	}

	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kidsArray {
				pairs = r.collectField(ctx, kid, name, pairs)
			}
		}
	}

	return pairs
}

// fieldValue extracts the V entry as text. Text and choice fields are string
// literals; button states come through as names.
func (r *AcroFormReader) fieldValue(ctx *model.Context, fieldDict types.Dict) string {
	valueObj, found := fieldDict.Find("V")
	if !found {
		return ""
	}

	if val, err := ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil); err == nil {
		return val
	}
	if name, err := ctx.DereferenceName(valueObj, model.V10, nil); err == nil {
		if name == "Off" {
			return ""
		}
		return name.Value()
	}
	return ""
}
