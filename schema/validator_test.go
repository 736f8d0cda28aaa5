package schema_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/clusterforge/forgectl/schema"
)

const nameSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"}
	},
	"required": ["name"]
}`

func TestValidate_Valid(t *testing.T) {
	result := schema.Validate(`{"name": "x"}`, nameSchema)

	if !result.Valid {
		t.Fatalf("got invalid, errors: %v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Errorf("got %d errors on valid document, want 0", len(result.Errors))
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	result := schema.Validate(`{}`, nameSchema)

	if result.Valid {
		t.Fatal("got valid for document missing required field")
	}
	if len(result.Errors) == 0 {
		t.Fatal("got no errors for invalid document")
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "(root)") && strings.Contains(e, "name") {
			found = true
		}
	}
	if !found {
		t.Errorf("no error names (root) and the missing field: %v", result.Errors)
	}
}

func TestValidate_DocumentParseFailure(t *testing.T) {
	result := schema.Validate(`{not json`, nameSchema)

	if result.Valid {
		t.Fatal("got valid for unparseable document")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("got %d errors, want exactly 1 parse error", len(result.Errors))
	}
	if !strings.HasPrefix(result.Errors[0], "invalid document:") {
		t.Errorf("got %q, want invalid document prefix", result.Errors[0])
	}
}

func TestValidate_SchemaParseFailure(t *testing.T) {
	result := schema.Validate(`{}`, `{broken`)

	if result.Valid {
		t.Fatal("got valid for unparseable schema")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("got %d errors, want exactly 1 schema error", len(result.Errors))
	}
	if !strings.HasPrefix(result.Errors[0], "invalid schema:") {
		t.Errorf("got %q, want invalid schema prefix", result.Errors[0])
	}
}

func TestValidate_ParseFailurePrefixesDistinct(t *testing.T) {
	docFailure := schema.Validate(`{`, nameSchema)
	schemaFailure := schema.Validate(`{}`, `{`)

	if docFailure.Errors[0] == schemaFailure.Errors[0] {
		t.Error("document and schema parse failures produce identical messages")
	}
}

func TestValidate_EnumeratesAllViolations(t *testing.T) {
	multiSchema := `{
		"type": "object",
		"properties": {
			"kind": {"type": "string", "enum": ["batch", "stream"]},
			"workers": {"type": "integer"}
		},
		"required": ["kind", "workers", "source"]
	}`

	result := schema.Validate(`{"kind": "nope", "workers": "three"}`, multiSchema)

	if result.Valid {
		t.Fatal("got valid for document with multiple violations")
	}
	if len(result.Errors) < 3 {
		t.Errorf("got %d errors, want every violation enumerated: %v",
			len(result.Errors), result.Errors)
	}
}

func TestValidate_PlaceholderSubstitution(t *testing.T) {
	secretSchema := `{
		"type": "object",
		"properties": {
			"token": {"type": "string"},
			"endpoint": {"type": "string"}
		},
		"required": ["token"]
	}`
	text := `{"token": "${API_TOKEN}", "endpoint": "https://${HOST_1}/v1"}`

	result := schema.Validate(text, secretSchema)
	if !result.Valid {
		t.Fatalf("placeholder document invalid: %v", result.Errors)
	}

	// Validity must match the same document with placeholders resolved.
	resolved := schema.Validate(`{"token": "abc", "endpoint": "https://h/v1"}`, secretSchema)
	if result.Valid != resolved.Valid {
		t.Error("placeholder substitution changed validity")
	}
}

func TestValidate_PlaceholderDoesNotBreakParsing(t *testing.T) {
	result := schema.Validate(`{"key": "${FOO}", "other": "${BAR_1}"}`, `{"type": "object"}`)

	if !result.Valid {
		t.Errorf("document with placeholders failed to parse: %v", result.Errors)
	}
}

func TestValidate_UnknownFormatAlwaysSatisfied(t *testing.T) {
	formatSchema := `{
		"type": "object",
		"properties": {
			"endpoint": {"type": "string", "format": "uri"},
			"custom": {"type": "string", "format": "no-such-format"}
		}
	}`

	result := schema.Validate(`{"endpoint": "not a uri at all", "custom": "x"}`, formatSchema)
	if !result.Valid {
		t.Errorf("format keywords caused spurious failures: %v", result.Errors)
	}
}

func TestValidate_AdditionalPropertiesPermitted(t *testing.T) {
	result := schema.Validate(`{"name": "x", "extra": 42}`, nameSchema)

	if !result.Valid {
		t.Errorf("additional property rejected by permissive schema: %v", result.Errors)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	text := `{"kind": "wrong"}`
	enumSchema := `{
		"type": "object",
		"properties": {"kind": {"enum": ["a", "b"]}},
		"required": ["kind", "name"]
	}`

	first := schema.Validate(text, enumSchema)
	second := schema.Validate(text, enumSchema)

	if first.Valid != second.Valid {
		t.Error("validity differs across identical calls")
	}
	if !reflect.DeepEqual(first.Errors, second.Errors) {
		t.Errorf("errors differ across identical calls: %v vs %v", first.Errors, second.Errors)
	}
}

func TestValidate_NestedLocation(t *testing.T) {
	nested := `{
		"type": "object",
		"properties": {
			"source": {
				"type": "object",
				"properties": {"bucket": {"type": "string"}},
				"required": ["bucket"]
			}
		}
	}`

	result := schema.Validate(`{"source": {"bucket": 7}}`, nested)
	if result.Valid {
		t.Fatal("got valid for wrongly typed nested field")
	}

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "/source/bucket") {
			found = true
		}
	}
	if !found {
		t.Errorf("no error names the nested location: %v", result.Errors)
	}
}
