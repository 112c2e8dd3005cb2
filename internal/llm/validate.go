package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	responseSchemaOnce sync.Once
	responseSchema     *jsonschema.Schema
	responseSchemaErr  error
)

// CompileSchema compiles a schema given as a generic map.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateResponse checks a decoded model answer against ResponseJSONSchema.
func ValidateResponse(doc any) error {
	responseSchemaOnce.Do(func() {
		responseSchema, responseSchemaErr = CompileSchema(ResponseJSONSchema())
	})
	if responseSchemaErr != nil {
		return responseSchemaErr
	}
	if err := responseSchema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
