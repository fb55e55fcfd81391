package genson

import (
	logv2 "charm.land/log/v2"
	"github.com/kaptinlin/jsonpointer"
)

// InferMaps walks a merged schema Node bottom-up and promotes qualifying
// Object nodes to maps (§4.5, component E). It never fails: every Object
// either stays a record or becomes a map, and the root is always excluded
// from promotion regardless of how it scores against the threshold.
func InferMaps(root *Node, cfg *Config) *Node {
	c := &inferCtx{cfg: cfg, seen: make(map[*Node]bool)}
	return c.infer(root, true, "", nil)
}

type inferCtx struct {
	cfg  *Config
	seen map[*Node]bool // recursion guard; Nodes form a tree in practice, but nothing here assumes it
}

func (c *inferCtx) infer(n *Node, isRoot bool, fieldName string, path []string) *Node {
	if n == nil {
		return nil
	}
	if c.seen[n] {
		return n
	}
	c.seen[n] = true
	defer delete(c.seen, n)

	switch n.Kind {
	case KindArray:
		return NewArray(c.infer(n.Items, false, fieldName, path), n.NonemptySeen)
	case KindObject:
		return c.inferObject(n, isRoot, fieldName, path)
	case KindUnion:
		alts := make([]*Node, len(n.Alternatives))
		for i, a := range n.Alternatives {
			alts[i] = c.infer(a, false, fieldName, path)
		}
		return NewUnion(alts...)
	default:
		return n
	}
}

func (c *inferCtx) inferObject(n *Node, isRoot bool, fieldName string, path []string) *Node {
	rebuiltProps := newPropertyMap()
	for _, k := range propertyKeys(n.Properties) {
		v, _ := n.Properties.Get(k)
		rebuiltProps.Set(k, c.infer(v, false, k, append(append([]string(nil), path...), k)))
	}
	rebuilt := &Node{
		Kind:          KindObject,
		Properties:    rebuiltProps,
		KeyCounts:     n.KeyCounts,
		ObservedCount: n.ObservedCount,
	}

	if isRoot {
		// The root of a schema — the wrapper object wrap_root introduces
		// included — is never a map candidate (§4.5 step 4).
		return rebuilt
	}

	forced, hasForce := c.cfg.ForceFieldTypes[fieldName]
	if hasForce && forced == FieldKindRecord {
		return rebuilt
	}
	isForcedMap := hasForce && forced == FieldKindMap

	distinctKeys := rebuilt.Properties.Len()
	if !isForcedMap && distinctKeys <= int(c.cfg.MapThreshold) {
		return rebuilt
	}

	if !isForcedMap {
		for _, k := range propertyKeys(rebuilt.Properties) {
			if t, ok := c.cfg.ForceFieldTypes[k]; ok && t == FieldKindRecord {
				c.logRejected(path, "a property is force-typed as record")
				return rebuilt
			}
		}
	}

	if c.cfg.MapMaxRequiredKeys != nil && uint32(len(rebuilt.RequiredKeys())) > *c.cfg.MapMaxRequiredKeys {
		c.logRejected(path, "required key count exceeds map_max_required_keys")
		return rebuilt
	}

	value, fromUnion, ok := c.unifyCandidateValues(rebuilt.Properties)
	if !ok {
		c.logRejected(path, "candidate property values could not be unified")
		return rebuilt
	}
	return &Node{Kind: KindObject, IsMap: true, MapValue: value, FromRecordUnion: fromUnion}
}

// logRejected emits a debug-level trace of a map candidate that was
// rejected, identified by its JSON Pointer location, when cfg.Debug is
// set (§7 item 2: rejection demotes to record, it never surfaces as an
// error, but a debug run should still be able to see why).
func (c *inferCtx) logRejected(path []string, reason string) {
	if !c.cfg.Debug {
		return
	}
	logv2.Default().Debug("map candidate rejected",
		"location", "#"+jsonpointer.Format(path...),
		"reason", reason,
	)
}

// unifyCandidateValues computes V0 — the unification of every property
// value on a map candidate — and decides whether it is usable as the map's
// value schema (§4.5 step 3).
func (c *inferCtx) unifyCandidateValues(props *propertyMap) (value *Node, fromRecordUnion, ok bool) {
	v0 := Unknown()
	for _, k := range propertyKeys(props) {
		pv, _ := props.Get(k)
		v0 = c.combineMapValue(v0, pv)
	}
	return c.finalizeMapValue(v0)
}

// combineMapValue folds two map-candidate values together. Scalars and
// arrays always fold via the ordinary Merge rules (integer/number
// subsumption, item-type unification); two Objects fold into one only when
// unify_maps is enabled and they look like compatible record variants —
// otherwise they are kept apart as distinct Union alternatives, so that
// --no-unify genuinely preserves the strict record-per-key shape rather
// than silently collapsing it.
func (c *inferCtx) combineMapValue(a, b *Node) *Node {
	switch {
	case a.Kind == KindUnknown:
		return b
	case b.Kind == KindUnknown:
		return a
	case a.Kind == KindUnion || b.Kind == KindUnion:
		return c.combineUnionMapValue(a, b)
	case a.Kind.isScalar() && b.Kind.isScalar():
		return mergeScalars(a, b)
	case a.Kind == KindArray && b.Kind == KindArray:
		return NewArray(c.combineMapValue(a.Items, b.Items), a.NonemptySeen || b.NonemptySeen)
	case a.Kind == KindObject && b.Kind == KindObject:
		if c.cfg.UnifyMaps && !c.cfg.NoUnify && objectsCompatibleForUnification(a, b) {
			return mergeObjects(a, b)
		}
		return NewUnion(a, b)
	default:
		return NewUnion(a, b)
	}
}

func (c *inferCtx) combineUnionMapValue(a, b *Node) *Node {
	alts := unionAlternatives(a)
	for _, x := range unionAlternatives(b) {
		alts = c.combineAltIntoSet(alts, x)
	}
	return NewUnion(alts...)
}

func (c *inferCtx) combineAltIntoSet(alts []*Node, x *Node) []*Node {
	for i, a := range alts {
		if a.Kind == KindObject && x.Kind == KindObject {
			if c.cfg.UnifyMaps && !c.cfg.NoUnify && objectsCompatibleForUnification(a, x) {
				alts[i] = mergeObjects(a, x)
				return alts
			}
			continue
		}
		if a.Kind != KindObject && x.Kind != KindObject && compatibleTopKind(a, x) {
			alts[i] = Merge(a, x)
			return alts
		}
	}
	return append(alts, x)
}

// finalizeMapValue decides whether v (possibly a Union after combining) is
// usable as a map's value schema. A Union of only Objects is always usable
// — as a single collapsed record when unify_maps applies, otherwise as a
// record-union value the normaliser tags with a discriminator key. Any
// other remaining Union (incompatible scalars, or a mix involving an Array
// or Object alongside something else) cannot be reduced to one value
// schema, so the candidacy is rejected and the node stays a record.
func (c *inferCtx) finalizeMapValue(v *Node) (value *Node, fromRecordUnion, ok bool) {
	if v.Kind != KindUnion {
		return v, false, true
	}
	allObjects := true
	for _, alt := range v.Alternatives {
		if alt.Kind != KindObject {
			allObjects = false
			break
		}
	}
	if !allObjects {
		return nil, false, false
	}
	if !c.cfg.UnifyMaps || c.cfg.NoUnify {
		// Kept apart as distinct variants: the normaliser and Avro
		// projection both need to know this so they can tag each value
		// with a discriminator identifying which variant it matched.
		return v, true, true
	}
	merged := Unknown()
	for _, alt := range v.Alternatives {
		merged = Merge(merged, alt)
	}
	// Collapsed to one shape: no variant distinction remains to tag.
	return merged, false, true
}

// objectsCompatibleForUnification reports whether a and b look like
// variants of the same record: they share at least one property, and every
// shared property's value is shallowly compatible rather than a flat
// contradiction (e.g. string on one side, array on the other).
func objectsCompatibleForUnification(a, b *Node) bool {
	overlap := false
	for _, k := range propertyKeys(a.Properties) {
		bv, ok := b.Properties.Get(k)
		if !ok {
			continue
		}
		overlap = true
		av, _ := a.Properties.Get(k)
		if !shallowCompatible(av, bv) {
			return false
		}
	}
	return overlap
}

func shallowCompatible(a, b *Node) bool {
	if a.Kind == KindUnknown || b.Kind == KindUnknown {
		return true
	}
	if a.Kind == b.Kind {
		return true
	}
	return (a.Kind == KindInteger && b.Kind == KindNumber) || (a.Kind == KindNumber && b.Kind == KindInteger)
}
