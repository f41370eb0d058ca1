package jsonschema

import (
	_ "embed"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/krew-solutions/ascetic-match-go/asceticmatch/matching/domain/query"
)

//go:embed query.schema.json
var querySchema string

// SchemaError is one finding of the document check.
type SchemaError struct {
	Field       string
	Description string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// DocumentValidator checks query documents against the JSON Schema of the
// query language: operand shapes, known operators, logical key types.
// The matcher itself accepts malformed queries and fails lazily; this is an
// up-front lint for documents.
type DocumentValidator struct {
	schema *gojsonschema.Schema
}

func NewDocumentValidator() (*DocumentValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(querySchema))
	if err != nil {
		return nil, errors.Wrap(err, "invalid query schema")
	}
	return &DocumentValidator{schema: schema}, nil
}

// Validate checks an already decoded document and returns every finding.
func (v *DocumentValidator) Validate(doc any) error {
	if doc == nil {
		doc = map[string]any{}
	}
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.Wrap(err, "schema validation error")
	}
	if result.Valid() {
		return nil
	}
	var errs *multierror.Error
	for _, desc := range result.Errors() {
		errs = multierror.Append(errs, &SchemaError{Field: desc.Field(), Description: desc.Description()})
	}
	return errs.ErrorOrNil()
}

// ValidateDocument decodes a YAML or JSON query document and validates it.
func (v *DocumentValidator) ValidateDocument(data []byte) error {
	doc, err := query.DecodeDocument(data)
	if err != nil {
		return err
	}
	return v.Validate(doc)
}
