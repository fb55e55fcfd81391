package genson

import (
	"bytes"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Schema is the JSON-Schema-flavoured emission model (§4.8). Unlike Node,
// it carries only the keywords this engine ever emits — no $ref, no
// validation keywords, no compiler/anchor bookkeeping — because resolving
// or validating against a user-supplied schema is explicitly out of scope.
type Schema struct {
	SchemaURI            string    `json:"$schema,omitempty"`
	Type                 string    `json:"type,omitempty"`
	Properties           *SchemaMap `json:"properties,omitempty"`
	Required             []string  `json:"required,omitempty"`
	Items                *Schema   `json:"items,omitempty"`
	AnyOf                []*Schema `json:"anyOf,omitempty"`
	AdditionalProperties *Schema   `json:"additionalProperties,omitempty"`
}

// SchemaMap is properties. An insertion-ordered map is not representable
// by a Go map, so MarshalJSONTo walks Keys directly instead of delegating
// to encoding/json's map handling, which would re-sort the keys.
type SchemaMap struct {
	Keys   []string
	Values map[string]*Schema
}

func newSchemaMap() *SchemaMap {
	return &SchemaMap{Values: make(map[string]*Schema)}
}

func (sm *SchemaMap) set(key string, s *Schema) {
	if _, ok := sm.Values[key]; !ok {
		sm.Keys = append(sm.Keys, key)
	}
	sm.Values[key] = s
}

func (sm *SchemaMap) isEmpty() bool { return sm == nil || len(sm.Keys) == 0 }

// MarshalJSON implements json.Marshaler.
func (sm *SchemaMap) MarshalJSON() ([]byte, error) {
	if sm == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf)
	if err := sm.MarshalJSONTo(enc, json.Deterministic(true)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSONTo implements json.MarshalerTo, emitting properties in
// insertion order (§3.1: "Insertion order of properties is preserved for
// deterministic output") rather than the alphabetical order a plain
// map[string]*Schema would produce under json.Deterministic.
func (sm *SchemaMap) MarshalJSONTo(enc *jsontext.Encoder, opts json.Options) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for _, k := range sm.Keys {
		if err := enc.WriteToken(jsontext.String(k)); err != nil {
			return err
		}
		if err := json.MarshalEncode(enc, sm.Values[k], opts); err != nil {
			return err
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}

// MarshalJSON implements json.Marshaler for Schema, matching the teacher's
// pattern of deterministic top-level marshaling via a type alias (avoids
// infinite recursion into this same method).
func (s *Schema) MarshalJSON() ([]byte, error) {
	type Alias Schema
	return json.Marshal((*Alias)(s), json.Deterministic(true))
}

// MarshalJSONTo implements json.MarshalerTo, forcing deterministic output
// regardless of caller-supplied options (§4.8: output ordering must be
// stable run to run).
func (s *Schema) MarshalJSONTo(enc *jsontext.Encoder, opts json.Options) error {
	type Alias Schema
	opts = json.JoinOptions(opts, json.Deterministic(true))
	return json.MarshalEncode(enc, (*Alias)(s), opts)
}
