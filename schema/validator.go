// Package schema validates artifact documents against JSON Schema documents.
// Validation is pure: the same text and schema always produce the same result,
// and failures are reported as data for the model to act on, never as errors.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// placeholderValue replaces unresolved ${...} environment references before
// parsing. Any fixed non-empty string keeps string-typed fields satisfied, so
// substitution never changes validity relative to the resolved document.
const placeholderValue = "env-placeholder"

var placeholderPattern = regexp.MustCompile(`\$\{[^}]+\}`)

// Result reports the outcome of one validation. Errors lists every violation
// found, each naming the offending location and a human-readable message.
type Result struct {
	Valid  bool
	Errors []string
}

// Validate checks text against schema. Documents that reference runtime
// secrets through ${...} placeholders still parse: every placeholder is
// substituted with a fixed literal first.
//
// A document parse failure and a schema parse failure each produce a single,
// distinctly prefixed error so callers can tell which side is broken. Schema
// violations are enumerated exhaustively, one error per violation.
func Validate(text, schemaText string) Result {
	doc, err := parseDocument(text)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("invalid document: %v", err)}}
	}

	compiled, err := jsonschema.CompileString("artifact.schema.json", schemaText)
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("invalid schema: %v", err)}}
	}

	if err := compiled.Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return Result{Errors: flatten(ve)}
		}
		return Result{Errors: []string{fmt.Sprintf("(root): %v", err)}}
	}

	return Result{Valid: true}
}

func parseDocument(text string) (any, error) {
	substituted := placeholderPattern.ReplaceAllString(text, placeholderValue)

	dec := json.NewDecoder(strings.NewReader(substituted))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// flatten walks the validation error tree and renders one string per leaf
// violation as "<location>: <message>", with the document root shown as
// "(root)".
func flatten(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		return []string{fmt.Sprintf("%s: %s", renderLocation(ve.InstanceLocation), ve.Message)}
	}

	var errs []string
	for _, cause := range ve.Causes {
		errs = append(errs, flatten(cause)...)
	}
	return errs
}

func renderLocation(instanceLocation string) string {
	if instanceLocation == "" {
		return "(root)"
	}
	return instanceLocation
}
