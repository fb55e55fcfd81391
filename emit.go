package genson

import (
	"bytes"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// EmitSchema projects a post-inference Node into the JSON-Schema emission
// model (§4.8, component part of G's sibling emission step). Only the root
// call result carries $schema; nested schemas never repeat it.
func EmitSchema(n *Node, cfg *Config) *Schema {
	s := toSchema(n)
	s.SchemaURI = cfg.resolvedSchemaURI()
	return s
}

func toSchema(n *Node) *Schema {
	if n == nil || n.Kind == KindUnknown {
		return &Schema{}
	}
	switch n.Kind {
	case KindNull:
		return &Schema{Type: "null"}
	case KindBoolean:
		return &Schema{Type: "boolean"}
	case KindInteger:
		return &Schema{Type: "integer"}
	case KindNumber:
		return &Schema{Type: "number"}
	case KindString:
		return &Schema{Type: "string"}
	case KindArray:
		return &Schema{Type: "array", Items: toSchema(n.Items)}
	case KindObject:
		return toObjectSchema(n)
	case KindUnion:
		alts := make([]*Schema, len(n.Alternatives))
		for i, a := range n.Alternatives {
			alts[i] = toSchema(a)
		}
		return &Schema{AnyOf: alts}
	default:
		return &Schema{}
	}
}

func toObjectSchema(n *Node) *Schema {
	if n.IsMap {
		return &Schema{Type: "object", AdditionalProperties: toSchema(n.MapValue)}
	}
	props := newSchemaMap()
	for _, k := range propertyKeys(n.Properties) {
		v, _ := n.Properties.Get(k)
		props.set(k, toSchema(v))
	}
	s := &Schema{Type: "object", Required: n.RequiredKeys()}
	if !props.isEmpty() {
		s.Properties = props
	}
	return s
}

// EmitSchemaJSON renders a Node as JSON-Schema bytes, UTF-8 with a trailing
// newline (§4.8). pretty controls indentation — CLI callers default to
// true, library callers of normalisation default to false.
func EmitSchemaJSON(n *Node, cfg *Config, pretty bool) ([]byte, error) {
	s := EmitSchema(n, cfg)
	return marshalWithNewline(s, pretty)
}

func marshalWithNewline(v any, pretty bool) ([]byte, error) {
	opts := []json.Options{json.Deterministic(true)}
	if pretty {
		opts = append(opts, jsontext.WithIndent("  "))
	}
	data, err := json.Marshal(v, opts...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(data)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
