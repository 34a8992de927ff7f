// Package schema validates tool call arguments against a tool's declared
// JSON Schema before dispatch, giving the BadArguments error in spec.md §7
// a concrete implementation: a malformed or schema-violating call never
// reaches a tool's Execute method.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrBadArguments wraps every validation failure this package returns, so
// callers can match it with errors.Is regardless of the underlying
// jsonschema error text.
var ErrBadArguments = errors.New("schema: arguments do not match tool schema")

// Validator compiles and caches one jsonschema.Schema per tool name. A
// tool's Schema() is assumed constant for the registry's lifetime, so
// compiling once per name is sufficient.
type Validator struct {
	mu    sync.Mutex
	cache map[string]*jsonschema.Schema
}

// NewValidator returns an empty Validator ready for use.
func NewValidator() *Validator {
	return &Validator{cache: make(map[string]*jsonschema.Schema)}
}

// Validate decodes params as JSON and checks it against the tool's schema,
// compiling and caching the schema on first use. A nil or empty rawSchema
// is treated as "no constraints" and always passes.
func (v *Validator) Validate(toolName string, rawSchema, params json.RawMessage) error {
	if len(bytes.TrimSpace(rawSchema)) == 0 {
		return nil
	}

	compiled, err := v.compile(toolName, rawSchema)
	if err != nil {
		return err
	}

	var instance any
	if len(params) == 0 {
		instance = map[string]any{}
	} else if err := json.Unmarshal(params, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrBadArguments, err)
	}

	if err := compiled.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrBadArguments, err)
	}
	return nil
}

// Forget drops a tool's cached compiled schema, forcing recompilation on
// its next Validate call. Used when a tool's schema changes at runtime.
func (v *Validator) Forget(toolName string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.cache, toolName)
}

func (v *Validator) compile(toolName string, rawSchema json.RawMessage) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if cached, ok := v.cache[toolName]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(rawSchema))
	if err != nil {
		return nil, fmt.Errorf("schema: decode schema for %q: %w", toolName, err)
	}

	url := "mem://tools/" + toolName
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema: add resource for %q: %w", toolName, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema: compile schema for %q: %w", toolName, err)
	}

	v.cache[toolName] = compiled
	return compiled, nil
}
