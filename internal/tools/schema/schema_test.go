package schema

import (
	"encoding/json"
	"errors"
	"testing"
)

func nmapSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"target": {"type": "string"},
			"ports": {"type": "string"}
		},
		"required": ["target"]
	}`)
}

func TestValidator_AcceptsMatchingArguments(t *testing.T) {
	v := NewValidator()
	err := v.Validate("nmap", nmapSchema(), json.RawMessage(`{"target":"127.0.0.1"}`))
	if err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidator_RejectsMissingRequiredField(t *testing.T) {
	v := NewValidator()
	err := v.Validate("nmap", nmapSchema(), json.RawMessage(`{"ports":"22"}`))
	if !errors.Is(err, ErrBadArguments) {
		t.Fatalf("Validate() error = %v, want ErrBadArguments", err)
	}
}

func TestValidator_RejectsMalformedJSON(t *testing.T) {
	v := NewValidator()
	err := v.Validate("nmap", nmapSchema(), json.RawMessage(`{not json`))
	if !errors.Is(err, ErrBadArguments) {
		t.Fatalf("Validate() error = %v, want ErrBadArguments", err)
	}
}

func TestValidator_EmptySchemaAlwaysPasses(t *testing.T) {
	v := NewValidator()
	if err := v.Validate("freeform", nil, json.RawMessage(`{"anything":1}`)); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidator_CachesCompiledSchema(t *testing.T) {
	v := NewValidator()
	s := nmapSchema()
	if err := v.Validate("nmap", s, json.RawMessage(`{"target":"a"}`)); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if _, ok := v.cache["nmap"]; !ok {
		t.Fatal("expected schema to be cached after first Validate call")
	}
	v.Forget("nmap")
	if _, ok := v.cache["nmap"]; ok {
		t.Fatal("expected Forget to evict cached schema")
	}
}
