package genson

import (
	"bytes"
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// propertyMap is the insertion-order-preserving string-to-*Node map behind
// Object.Properties (§3.1: "Insertion order of properties is preserved for
// deterministic output"). It is the same generic container parse.go and
// normalize.go already use for document-value ordering, instantiated over
// *Node instead of any.
type propertyMap = orderedmap.OrderedMap[string, *Node]

func newPropertyMap() *propertyMap {
	return orderedmap.New[string, *Node]()
}

// propertyKeys returns a property map's keys in insertion order, or nil for
// a nil map. propertyMap has no bulk key accessor of its own, so this walks
// its pair list the same way builder.go and normalize.go already do for
// document values.
func propertyKeys(p *propertyMap) []string {
	if p == nil {
		return nil
	}
	keys := make([]string, 0, p.Len())
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Kind tags the variant a Node currently holds. See §3.1 of the schema
// value model: Unknown is the identity element for Merge; every other kind
// carries evidence observed from at least one document.
type Kind uint8

const (
	// KindUnknown is the identity for Merge — no evidence seen yet.
	KindUnknown Kind = iota
	KindNull
	KindBoolean
	KindInteger
	KindNumber
	KindString
	KindArray
	KindObject
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindUnion:
		return "union"
	default:
		return "invalid"
	}
}

// isScalar reports whether k is one of the Scalar(kind) variants.
func (k Kind) isScalar() bool {
	switch k {
	case KindNull, KindBoolean, KindInteger, KindNumber, KindString:
		return true
	default:
		return false
	}
}

// Node is a schema node: a tagged value combining the evidence observed for
// one type position across any number of documents. Nodes are built once
// per document (Build), combined by Merge, rewritten once by InferMaps, and
// never mutated in place after the last merge at a given position — callers
// that need to keep rewriting should always go through Merge/InferMaps,
// never edit fields directly once a Node has been shared.
type Node struct {
	Kind Kind

	// Array fields.
	Items        *Node // summarises every element observed at this position
	NonemptySeen bool  // at least one non-empty array was observed here

	// Object fields. Properties preserves first-observation insertion
	// order; ObservedCount/KeyCounts are tallied by Merge, and the required
	// set is derived from them (RequiredKeys).
	Properties     *propertyMap
	ObservedCount  uint64
	KeyCounts      map[string]uint64

	// Union fields. Never contains another Union directly (flattened on
	// construction) and never has fewer than two alternatives.
	Alternatives []*Node

	// Map-inference annotations, set only after InferMaps has run (§4.5).
	// IsMap distinguishes an Object promoted to a map wrapper from a
	// record; MapValue is the unified value schema V; FromRecordUnion
	// records whether V is a union of record variants kept apart (not
	// collapsed into one record), which the normaliser needs to know to
	// insert the discriminator key.
	IsMap           bool
	MapValue        *Node
	FromRecordUnion bool
}

// Unknown returns the identity element for Merge.
func Unknown() *Node { return &Node{Kind: KindUnknown} }

// Scalar returns a leaf node of the given scalar kind.
func Scalar(k Kind) *Node {
	if !k.isScalar() {
		panic(fmt.Sprintf("genson: Scalar called with non-scalar kind %v", k))
	}
	return &Node{Kind: k}
}

// NewArray returns an Array node. items may be Unknown() for an empty array.
func NewArray(items *Node, nonemptySeen bool) *Node {
	return &Node{Kind: KindArray, Items: items, NonemptySeen: nonemptySeen}
}

// NewObject returns an empty Object node ready to accumulate properties.
func NewObject() *Node {
	return &Node{
		Kind:       KindObject,
		Properties: newPropertyMap(),
		KeyCounts:  make(map[string]uint64),
	}
}

// NewUnion builds a Union node from alternatives, flattening nested unions,
// deduplicating by structural equality and sorting into canonical order. A
// single surviving alternative collapses to that alternative rather than a
// one-element Union, and an empty input collapses to Unknown.
func NewUnion(alts ...*Node) *Node {
	flat := make([]*Node, 0, len(alts))
	var flatten func(*Node)
	flatten = func(n *Node) {
		if n == nil || n.Kind == KindUnknown {
			return
		}
		if n.Kind == KindUnion {
			for _, a := range n.Alternatives {
				flatten(a)
			}
			return
		}
		flat = append(flat, n)
	}
	for _, a := range alts {
		flatten(a)
	}

	deduped := make([]*Node, 0, len(flat))
	for _, n := range flat {
		dup := false
		for _, existing := range deduped {
			if Equal(existing, n) {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, n)
		}
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return bytes.Compare(canonicalKey(deduped[i]), canonicalKey(deduped[j])) < 0
	})

	switch len(deduped) {
	case 0:
		return Unknown()
	case 1:
		return deduped[0]
	default:
		return &Node{Kind: KindUnion, Alternatives: deduped}
	}
}

// Equal reports structural equality between two nodes, ignoring
// ObservedCount/KeyCounts (evidence tallies never affect the shape of a
// schema, only Required does) and FromRecordUnion. Map nodes (IsMap) are
// equal only to map nodes, compared by MapValue. Property order is
// insignificant for equality even though it is preserved in the stored
// value.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUnknown, KindNull, KindBoolean, KindInteger, KindNumber, KindString:
		return true
	case KindArray:
		return a.NonemptySeen == b.NonemptySeen && Equal(a.Items, b.Items)
	case KindObject:
		if a.IsMap != b.IsMap {
			return false
		}
		if a.IsMap {
			return Equal(a.MapValue, b.MapValue)
		}
		ap, bp := a.Properties, b.Properties
		if ap.Len() != bp.Len() {
			return false
		}
		if !equalStringSets(a.requiredSet(), b.requiredSet()) {
			return false
		}
		for _, k := range propertyKeys(ap) {
			bv, ok := bp.Get(k)
			if !ok || !Equal(mustGet(ap, k), bv) {
				return false
			}
		}
		return true
	case KindUnion:
		if len(a.Alternatives) != len(b.Alternatives) {
			return false
		}
		for i := range a.Alternatives {
			if !Equal(a.Alternatives[i], b.Alternatives[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func mustGet(p *propertyMap, k string) *Node {
	v, _ := p.Get(k)
	return v
}

func equalStringSets(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// requiredSet returns the set of keys whose KeyCounts equal ObservedCount —
// the finalised Required set (§3.1 invariant: required = { k : key_counts[k]
// == observed_count }).
func (n *Node) requiredSet() map[string]struct{} {
	out := make(map[string]struct{})
	if n == nil || n.Kind != KindObject || n.IsMap {
		return out
	}
	for k, c := range n.KeyCounts {
		if c == n.ObservedCount {
			out[k] = struct{}{}
		}
	}
	return out
}

// RequiredKeys returns the finalised required-key set in alphabetical order
// (§4.8: "required" is emitted alphabetically sorted for stability).
func (n *Node) RequiredKeys() []string {
	set := n.requiredSet()
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// canonicalKey returns a stable, total ordering key for a node, used to
// sort Union alternatives and to deduplicate keys in map inference (§4.1).
// It is a serialisation-style byte key, not a hash: two structurally equal
// nodes always produce the same key, and the ordering is by kind tag first
// (scalars < array < object < union), then by structural content.
func canonicalKey(n *Node) []byte {
	var buf bytes.Buffer
	writeCanonicalKey(&buf, n)
	return buf.Bytes()
}

func writeCanonicalKey(buf *bytes.Buffer, n *Node) {
	if n == nil {
		buf.WriteString("u")
		return
	}
	fmt.Fprintf(buf, "%d:", n.Kind)
	switch n.Kind {
	case KindArray:
		writeCanonicalKey(buf, n.Items)
	case KindObject:
		if n.IsMap {
			buf.WriteString("map(")
			writeCanonicalKey(buf, n.MapValue)
			buf.WriteString(")")
			return
		}
		buf.WriteString("{")
		keys := append([]string(nil), propertyKeys(n.Properties)...)
		sort.Strings(keys)
		for _, k := range keys {
			buf.WriteString(k)
			buf.WriteString("=")
			v, _ := n.Properties.Get(k)
			writeCanonicalKey(buf, v)
			buf.WriteString(";")
		}
		buf.WriteString("}")
	case KindUnion:
		buf.WriteString("[")
		for _, a := range n.Alternatives {
			writeCanonicalKey(buf, a)
			buf.WriteString(",")
		}
		buf.WriteString("]")
	}
}
