package genson

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Build folds one parsed JSON value (as produced by ParseDocument) into a
// schema Node (§4.2, component B). It never fails: any value ParseDocument
// can produce has a corresponding Node.
func Build(v any) *Node {
	switch val := v.(type) {
	case nil:
		return Scalar(KindNull)
	case bool:
		return Scalar(KindBoolean)
	case int64:
		return Scalar(KindInteger)
	case float64:
		return Scalar(KindNumber)
	case string:
		return Scalar(KindString)
	case []any:
		return buildArray(val)
	case *orderedmap.OrderedMap[string, any]:
		return buildObject(val)
	default:
		// Defensive: any other concrete type indicates a caller handed
		// Build something that did not come from ParseDocument.
		panic("genson: Build called with an unrecognised value type")
	}
}

func buildArray(items []any) *Node {
	acc := Unknown()
	for _, item := range items {
		acc = Merge(acc, Build(item))
	}
	return NewArray(acc, len(items) > 0)
}

func buildObject(om *orderedmap.OrderedMap[string, any]) *Node {
	obj := NewObject()
	obj.ObservedCount = 1
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		obj.Properties.Set(pair.Key, Build(pair.Value))
		obj.KeyCounts[pair.Key] = 1
	}
	return obj
}

// wrapRoot wraps a parsed value inside a single-field object {field: v},
// implementing the wrap_root configuration option (§3.3). Per the spec's
// resolved Open Question (§9), this applies unconditionally — including to
// non-object root values under --ndjson — so the wrapping key is never
// itself a map-inference candidate (§4.5 step 4).
func wrapRoot(field string, v any) *orderedmap.OrderedMap[string, any] {
	om := orderedmap.New[string, any]()
	om.Set(field, v)
	return om
}
