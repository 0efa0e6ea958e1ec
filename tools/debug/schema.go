package debug

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
)

// generateInputSchema reflects an input struct into an inline JSON schema.
func generateInputSchema(inputType interface{}) (map[string]any, error) {
	// no $ref/$defs, clients want the properties inline
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(inputType)

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaBytes, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")
	return schemaMap, nil
}

// newTypedTool builds a tool whose input schema comes from inputType.
func newTypedTool(name string, description string, inputType interface{}) (mcp.Tool, error) {
	inputSchema, err := generateInputSchema(inputType)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("%s: %w", name, err)
	}
	schemaBytes, err := json.Marshal(inputSchema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("%s: failed to marshal schema: %w", name, err)
	}
	return mcp.NewToolWithRawSchema(name, description, schemaBytes), nil
}

// bindArguments decodes the request arguments into input.
func bindArguments(request mcp.CallToolRequest, input interface{}) error {
	if request.Params.Arguments == nil {
		return nil
	}
	argBytes, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(argBytes, input); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}
	return nil
}
