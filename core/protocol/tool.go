package protocol

// Tool defines an action the model may invoke. Parameters describes the
// tool's input contract in JSON Schema form.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Param describes one named string parameter of a tool's input contract.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// ObjectParameters builds the JSON Schema parameter map for a tool whose
// input is an object of named string parameters. Parameter order is preserved
// in the required list.
func ObjectParameters(params ...Param) map[string]any {
	properties := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		properties[p.Name] = map[string]any{
			"type":        "string",
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
