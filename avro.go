package genson

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/go-json-experiment/json"
)

// AvroSchema is the Avro-flavoured emission model (§4.6, component F). It
// mirrors the handful of Avro constructs this engine ever produces:
// primitives (as bare type names), arrays, maps, records and unions. Only
// one of its fields is meaningful for any given instance; which one is
// determined by Kind.
type AvroSchema struct {
	// Kind is one of "primitive", "array", "map", "record", "union".
	Kind string

	Primitive string // "null", "boolean", "long", "double", "string"

	Items *AvroSchema // array

	Values *AvroSchema // map

	Name      string      // record
	Namespace string      // record
	Fields    []AvroField // record

	Union []*AvroSchema // union, already in canonical order
}

// AvroField is one field of an Avro record.
type AvroField struct {
	Name       string
	Type       *AvroSchema
	Default    any
	HasDefault bool
}

const avroNamespace = "genson"

// avroCtx carries the state shared across one EmitAvro call: a registry of
// every record name assigned so far, keyed by the field-path segments that
// produced it. Two distinct paths are allowed to derive the same name only
// if they are, in fact, the same path; anything else is a genuine naming
// collision (§4.6: "identical structural subtrees at different paths
// produce distinct names").
type avroCtx struct {
	names map[string][]string
}

// EmitAvro projects a post-inference Node into an Avro record tree (§4.6).
// The root is always named "document".
func EmitAvro(n *Node) (*AvroSchema, error) {
	c := &avroCtx{names: make(map[string][]string)}
	return c.projectAvro(n, []string{"document"}, false)
}

// projectAvro projects n at the given field path. path is a list of raw,
// unjoined segments (object keys and the "item"/"value" pseudo-segments),
// so that a JSON key that itself contains a "." can never be confused with
// a path boundary the way a pre-joined string would be.
func (c *avroCtx) projectAvro(n *Node, path []string, nullable bool) (*AvroSchema, error) {
	if n == nil {
		n = Unknown()
	}
	switch n.Kind {
	case KindUnknown, KindNull:
		return wrapNullable(&AvroSchema{Kind: "primitive", Primitive: "null"}, false), nil
	case KindBoolean:
		return wrapNullable(&AvroSchema{Kind: "primitive", Primitive: "boolean"}, nullable), nil
	case KindInteger:
		return wrapNullable(&AvroSchema{Kind: "primitive", Primitive: "long"}, nullable), nil
	case KindNumber:
		return wrapNullable(&AvroSchema{Kind: "primitive", Primitive: "double"}, nullable), nil
	case KindString:
		return wrapNullable(&AvroSchema{Kind: "primitive", Primitive: "string"}, nullable), nil
	case KindArray:
		items, err := c.projectAvro(n.Items, appendPath(path, "item"), false)
		if err != nil {
			return nil, err
		}
		return wrapNullable(&AvroSchema{Kind: "array", Items: items}, nullable), nil
	case KindObject:
		return c.projectAvroObject(n, path, nullable)
	case KindUnion:
		return c.projectAvroUnion(n, path)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownNodeKind, n.Kind)
	}
}

func (c *avroCtx) projectAvroObject(n *Node, path []string, nullable bool) (*AvroSchema, error) {
	if n.IsMap {
		values, err := c.projectAvro(n.MapValue, appendPath(path, "value"), false)
		if err != nil {
			return nil, err
		}
		if n.FromRecordUnion && values.Kind == "union" {
			// Synthesise a discriminated record for the enclosing field so
			// the map's values carry a single named Avro type rather than
			// a raw union (§4.6: "synthesise a record named from the
			// enclosing field").
			values, err = c.discriminatedRecord(values, path)
			if err != nil {
				return nil, err
			}
		}
		return wrapNullable(&AvroSchema{Kind: "map", Values: values}, nullable), nil
	}

	fields := make([]AvroField, 0, n.Properties.Len())
	required := make(map[string]bool)
	for _, k := range n.RequiredKeys() {
		required[k] = true
	}
	for _, k := range propertyKeys(n.Properties) {
		v, _ := n.Properties.Get(k)
		isRequired := required[k]
		fieldSchema, err := c.projectAvro(v, appendPath(path, k), !isRequired)
		if err != nil {
			return nil, err
		}
		f := AvroField{Name: k, Type: fieldSchema}
		if !isRequired {
			f.Default = nil
			f.HasDefault = true
		}
		fields = append(fields, f)
	}
	name := avroRecordName(path)
	if err := c.claimName(name, path); err != nil {
		return nil, err
	}
	record := &AvroSchema{
		Kind:      "record",
		Name:      name,
		Namespace: avroNamespace,
		Fields:    fields,
	}
	return wrapNullable(record, nullable), nil
}

func (c *avroCtx) projectAvroUnion(n *Node, path []string) (*AvroSchema, error) {
	branches := make([]*AvroSchema, 0, len(n.Alternatives))
	hasNull := false
	for _, alt := range n.Alternatives {
		if alt.Kind == KindNull {
			hasNull = true
			continue
		}
		b, err := c.projectAvro(alt, path, false)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	if hasNull {
		branches = append([]*AvroSchema{{Kind: "primitive", Primitive: "null"}}, branches...)
	}
	if len(branches) == 1 {
		return branches[0], nil
	}
	return &AvroSchema{Kind: "union", Union: branches}, nil
}

// wrapNullable turns t into a ["null", t] union when nullable is true and
// t is not already a null-containing union (§4.6: fields absent from
// required are wrapped as a nullable union with a null default).
func wrapNullable(t *AvroSchema, nullable bool) *AvroSchema {
	if !nullable || (t.Kind == "primitive" && t.Primitive == "null") {
		return t
	}
	return &AvroSchema{Kind: "union", Union: []*AvroSchema{{Kind: "primitive", Primitive: "null"}, t}}
}

// discriminatedRecord synthesises a record type whose fields are a string
// discriminator field followed by one nullable field per union branch
// ("variant_0", "variant_1", ...), for a map value whose record variants
// were kept apart rather than collapsed by unify_maps.
func (c *avroCtx) discriminatedRecord(union *AvroSchema, path []string) (*AvroSchema, error) {
	fields := []AvroField{{Name: discriminatorKey, Type: &AvroSchema{Kind: "primitive", Primitive: "string"}}}
	for i, branch := range union.Union {
		fields = append(fields, AvroField{
			Name:       fmt.Sprintf("variant_%d", i),
			Type:       wrapNullable(branch, true),
			Default:    nil,
			HasDefault: true,
		})
	}
	name := avroRecordName(path) + "Variant"
	if err := c.claimName(name, appendPath(path, "$variant")); err != nil {
		return nil, err
	}
	return &AvroSchema{
		Kind:      "record",
		Name:      name,
		Namespace: avroNamespace,
		Fields:    fields,
	}, nil
}

// claimName records that path derived name, failing if some other path
// already claimed the same name (§4.6's collision-free naming guarantee).
// Re-deriving the same name from the very same path is not a collision —
// projectAvroObject and discriminatedRecord can each visit a given path at
// most once per EmitAvro call, but the check stays path-based rather than
// call-count-based so it is robust to future callers.
func (c *avroCtx) claimName(name string, path []string) error {
	if existing, ok := c.names[name]; ok && !slices.Equal(existing, path) {
		return fmt.Errorf("%w: %q (derived from both %q and %q)",
			ErrAvroNameCollision, name, strings.Join(existing, "/"), strings.Join(path, "/"))
	}
	c.names[name] = append([]string(nil), path...)
	return nil
}

// appendPath returns path with segment appended, never aliasing path's own
// backing array (siblings at the same level must not see each other's
// appended segment).
func appendPath(path []string, segment string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = segment
	return out
}

// avroRecordName derives an Avro record name from path's segments: each
// segment is stripped of characters Avro names forbid, then concatenated
// with every segment after the first capitalised — so the path is the sole
// source of segment boundaries, never a character inside a segment itself.
func avroRecordName(path []string) string {
	var b strings.Builder
	for i, seg := range path {
		seg = sanitizeAvroNameSegment(seg)
		if seg == "" {
			continue
		}
		if i > 0 {
			r := []rune(seg)
			r[0] = unicode.ToUpper(r[0])
			seg = string(r)
		}
		b.WriteString(seg)
	}
	return b.String()
}

// sanitizeAvroNameSegment drops every rune that is not a letter, digit or
// underscore, the alphabet Avro names are restricted to.
func sanitizeAvroNameSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MarshalJSON renders the Avro schema tree in the wire shape real Avro
// tooling expects: a bare string for a primitive, ["null", T] style arrays
// for unions, and {"type": ..., ...} objects for array/map/record.
func (a *AvroSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.toAny(), json.Deterministic(true))
}

func (a *AvroSchema) toAny() any {
	if a == nil {
		return "null"
	}
	switch a.Kind {
	case "primitive":
		return a.Primitive
	case "array":
		return map[string]any{"type": "array", "items": a.Items.toAny()}
	case "map":
		return map[string]any{"type": "map", "values": a.Values.toAny()}
	case "record":
		fields := make([]any, len(a.Fields))
		for i, f := range a.Fields {
			fields[i] = f.toAny()
		}
		return map[string]any{
			"type":      "record",
			"name":      a.Name,
			"namespace": a.Namespace,
			"fields":    fields,
		}
	case "union":
		branches := make([]any, len(a.Union))
		for i, b := range a.Union {
			branches[i] = b.toAny()
		}
		return branches
	default:
		return "null"
	}
}

func (f AvroField) toAny() any {
	field := map[string]any{"name": f.Name, "type": f.Type.toAny()}
	if f.HasDefault {
		field["default"] = f.Default
	}
	return field
}
