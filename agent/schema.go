package agent

// Helpers for building JSON Schema tool parameter definitions without
// repeating the map literals in every tool.

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func numberProp(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}
