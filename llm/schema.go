package llm

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
)

// reflector is wired with the defaults structured generation needs: an
// expanded, dereferenced object schema with required fields driven by
// struct tags.
var reflector = jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	DoNotReference:             true,
}

// reflectSchema derives the JSON schema for v's type as a plain map, the
// form both provider SDKs accept.
func reflectSchema(v any) (map[string]any, error) {
	schema := reflector.Reflect(v)
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}
	return m, nil
}

// strictSchema rewrites an object schema in place so it satisfies OpenAI
// strict mode, which rejects any schema whose required list does not cover
// every property. Optional fields become required, which only forces the
// model to emit them; decoding is unaffected. Nested objects and array
// items get the same treatment, and additionalProperties is pinned to
// false as strict mode demands.
func strictSchema(m map[string]any) map[string]any {
	props, ok := m["properties"].(map[string]any)
	if !ok {
		return m
	}
	required := make([]string, 0, len(props))
	for name, p := range props {
		required = append(required, name)
		if sub, ok := p.(map[string]any); ok {
			strictSchema(sub)
			if items, ok := sub["items"].(map[string]any); ok {
				strictSchema(items)
			}
		}
	}
	sort.Strings(required)
	// Stored as []any to match the JSON-decoded form the rest of the
	// package reads; marshals identically.
	reqAny := make([]any, len(required))
	for i, name := range required {
		reqAny[i] = name
	}
	m["required"] = reqAny
	m["additionalProperties"] = false
	return m
}

// schemaProperties pulls the properties map and required list out of an
// expanded object schema, the shape Anthropic tool definitions take.
func schemaProperties(m map[string]any) (map[string]any, []string) {
	props, _ := m["properties"].(map[string]any)
	var required []string
	if raw, ok := m["required"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}
	return props, required
}
