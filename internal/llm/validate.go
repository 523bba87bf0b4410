package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchemas holds response schemas compiled once per Schema.Name.
var compiledSchemas = &schemaCache{byName: map[string]*jsonschema.Schema{}}

type schemaCache struct {
	mu     sync.Mutex
	byName map[string]*jsonschema.Schema
}

func (c *schemaCache) get(s *Schema) (*jsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cs, ok := c.byName[s.Name]; ok {
		return cs, nil
	}

	def, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	url := "mem://schemas/" + s.Name + ".json"
	comp := jsonschema.NewCompiler()
	if err := comp.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	cs, err := comp.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	c.byName[s.Name] = cs
	return cs, nil
}

// validateResponse checks raw against schema; a nil schema accepts anything.
// Failures are *ErrInvalidResponse tagged with the schema name.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	invalid := func(err error) error {
		return &ErrInvalidResponse{Schema: schema.Name, Content: raw, Err: err}
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return invalid(fmt.Errorf("decode: %w", err))
	}
	cs, err := compiledSchemas.get(schema)
	if err != nil {
		return invalid(err)
	}
	if err := cs.Validate(inst); err != nil {
		return invalid(err)
	}
	return nil
}
