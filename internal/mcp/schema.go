package mcp

import "github.com/chris/fhirchat/internal/llm"

// emptyObjectSchema stands in for tools that declared no input schema.
func emptyObjectSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// ToFunctions converts discovered tool descriptors into the function-schema
// shape the completion endpoint expects. Total over well-formed input: a
// missing description becomes the empty string, a missing input schema
// becomes an empty object schema, a present one passes through verbatim.
func ToFunctions(descriptors []ToolDescriptor) []llm.Tool {
	tools := make([]llm.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		params := d.InputSchema
		if params == nil {
			params = emptyObjectSchema()
		}
		tools = append(tools, llm.Tool{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
		})
	}
	return tools
}
