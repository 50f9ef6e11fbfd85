// Package patternfile parses the pattern file format of §6: a JSON document
// naming pattern entities, pattern events, their temporal parents, and the
// pattern-wide literal/regex signature discriminant.
//
// Grounded on the schema-validation shape of the reference schema-exporter
// tool: a document is checked against an embedded JSON Schema with
// gojsonschema before it is decoded into pattern.Spec, so structurally
// malformed input is rejected with a precise field path rather than a
// generic decode error.
package patternfile

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ipmes-go/ipmes/pkg/pattern"
	"github.com/xeipuuv/gojsonschema"
)

type rawEntity struct {
	ID        pattern.EntityID `json:"ID"`
	Signature string           `json:"Signature"`
}

type rawEvent struct {
	ID        pattern.EventID   `json:"ID"`
	Signature string            `json:"Signature"`
	Type      string            `json:"Type"`
	Frequency int               `json:"Frequency"`
	SubjectID pattern.EntityID  `json:"SubjectID"`
	ObjectID  pattern.EntityID  `json:"ObjectID"`
	Parents   []pattern.EventID `json:"Parents"`
}

type rawDocument struct {
	Version  json.RawMessage `json:"Version"`
	UseRegex bool            `json:"UseRegex"`
	Entities []rawEntity     `json:"Entities"`
	Events   []rawEvent      `json:"Events"`
}

// Parse reads a pattern file from r, schema-validates it, and compiles it
// into an immutable pattern.Pattern. Every failure here is ErrInvalidPattern
// per §7's error table (source C1).
func Parse(r io.Reader) (*pattern.Pattern, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", &pattern.InvalidPatternError{Reason: err.Error()})
	}

	if err := validate(raw); err != nil {
		return nil, err
	}

	var doc rawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding pattern file: %w", &pattern.InvalidPatternError{Reason: err.Error()})
	}

	spec := pattern.Spec{
		UseRegex: doc.UseRegex,
		Entities: make([]pattern.EntitySpec, len(doc.Entities)),
		Events:   make([]pattern.EventSpec, len(doc.Events)),
	}
	for i, e := range doc.Entities {
		spec.Entities[i] = pattern.EntitySpec{ID: e.ID, Signature: e.Signature}
	}
	for i, e := range doc.Events {
		kind, err := parseKind(e.Type)
		if err != nil {
			return nil, err
		}
		spec.Events[i] = pattern.EventSpec{
			ID:        e.ID,
			Signature: e.Signature,
			Kind:      kind,
			Freq:      e.Frequency,
			Subject:   e.SubjectID,
			Object:    e.ObjectID,
			Parents:   e.Parents,
		}
	}

	return pattern.Compile(spec)
}

func parseKind(t string) (pattern.Kind, error) {
	switch t {
	case "", "Default":
		return pattern.Default, nil
	case "Frequency":
		return pattern.Frequency, nil
	case "Flow":
		return pattern.Flow, nil
	default:
		return 0, &pattern.InvalidPatternError{Reason: "unknown event Type " + t}
	}
}

func validate(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validating pattern file: %w", &pattern.InvalidPatternError{Reason: err.Error()})
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return &pattern.InvalidPatternError{Reason: fmt.Sprintf("schema validation failed: %v", msgs)}
	}
	return nil
}
