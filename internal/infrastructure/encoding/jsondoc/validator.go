package jsondoc

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ingest_orders/internal/domain/document"
	"ingest_orders/internal/domain/ingest"
)

//go:embed event.schema.json
var eventSchema string

const eventSchemaURL = "https://ingest-orders.local/schemas/event/v1.json"

// Validator checks raw records against the event schema before they are decoded.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded event schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(eventSchemaURL, strings.NewReader(eventSchema)); err != nil {
		return nil, fmt.Errorf("failed to add event schema: %w", err)
	}
	s, err := c.Compile(eventSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile event schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Validate reports ErrSchemaViolation when raw does not match the event schema.
func (v *Validator) Validate(raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ingest.ErrSchemaViolation, err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ingest.ErrSchemaViolation, describe(err))
	}
	return nil
}

// Decode validates raw and unmarshals it into an event.
func (v *Validator) Decode(raw json.RawMessage) (document.Event, error) {
	var ev document.Event
	if err := v.Validate(raw); err != nil {
		return ev, err
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ingest.ErrInvalidValue, err)
	}
	return ev, nil
}

// describe flattens a validation error to its deepest causes so that one log line
// names the offending field.
func describe(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}

	var leaves []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			leaves = append(leaves, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(leaves, "; ")
}
