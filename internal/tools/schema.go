package tools

// Input schemas are plain JSON Schema maps so tools/list serializes them
// verbatim.

func objectSchema(properties map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func idProp(description string) map[string]any {
	return map[string]any{
		"type":        []string{"string", "number"},
		"description": description,
	}
}
