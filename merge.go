package genson

// Merge combines two schema nodes into one (§4.3, component C). It is
// total, associative and commutative, and idempotent for equal inputs;
// Merge(Unknown(), x) == x for any x. Map-inference annotations (IsMap,
// MapValue, FromRecordUnion) are not expected on either input — Merge only
// ever runs before §4.5's post-processing pass.
func Merge(a, b *Node) *Node {
	if a == nil {
		a = Unknown()
	}
	if b == nil {
		b = Unknown()
	}
	switch {
	case a.Kind == KindUnknown:
		return b
	case b.Kind == KindUnknown:
		return a
	case a.Kind == KindUnion || b.Kind == KindUnion:
		return mergeUnion(a, b)
	case a.Kind.isScalar() && b.Kind.isScalar():
		return mergeScalars(a, b)
	case a.Kind == KindArray && b.Kind == KindArray:
		return NewArray(Merge(a.Items, b.Items), a.NonemptySeen || b.NonemptySeen)
	case a.Kind == KindObject && b.Kind == KindObject:
		return mergeObjects(a, b)
	default:
		// Different kinds, neither already a Union.
		return NewUnion(a, b)
	}
}

func mergeScalars(a, b *Node) *Node {
	if a.Kind == b.Kind {
		return a
	}
	if (a.Kind == KindInteger && b.Kind == KindNumber) || (a.Kind == KindNumber && b.Kind == KindInteger) {
		return Scalar(KindNumber)
	}
	return NewUnion(a, b)
}

func mergeObjects(a, b *Node) *Node {
	out := NewObject()
	out.ObservedCount = a.ObservedCount + b.ObservedCount

	for _, k := range propertyKeys(a.Properties) {
		av, _ := a.Properties.Get(k)
		bv, ok := b.Properties.Get(k)
		if !ok {
			bv = Unknown()
		}
		out.Properties.Set(k, Merge(av, bv))
		out.KeyCounts[k] = a.KeyCounts[k] + b.KeyCounts[k]
	}
	for _, k := range propertyKeys(b.Properties) {
		if _, ok := a.Properties.Get(k); ok {
			continue
		}
		bv, _ := b.Properties.Get(k)
		out.Properties.Set(k, Merge(Unknown(), bv))
		out.KeyCounts[k] = b.KeyCounts[k]
	}
	return out
}

// mergeUnion merges a and b where at least one side is already a Union. It
// flattens both sides to their alternative lists and folds each
// alternative of b into a's running set, applying the "merge into the
// compatible alternative instead of adding a new branch" rule from §4.3.
func mergeUnion(a, b *Node) *Node {
	alts := unionAlternatives(a)
	for _, x := range unionAlternatives(b) {
		alts = mergeAltIntoSet(alts, x)
	}
	return NewUnion(alts...)
}

func unionAlternatives(n *Node) []*Node {
	if n.Kind == KindUnion {
		return append([]*Node(nil), n.Alternatives...)
	}
	return []*Node{n}
}

func mergeAltIntoSet(alts []*Node, x *Node) []*Node {
	for i, a := range alts {
		if compatibleTopKind(a, x) {
			alts[i] = Merge(a, x)
			return alts
		}
	}
	return append(alts, x)
}

// compatibleTopKind reports whether a and x should be folded into a single
// alternative rather than kept as separate Union branches: same kind
// exactly, or the integer/number scalar pair.
func compatibleTopKind(a, x *Node) bool {
	if a.Kind == x.Kind {
		return true
	}
	if (a.Kind == KindInteger && x.Kind == KindNumber) || (a.Kind == KindNumber && x.Kind == KindInteger) {
		return true
	}
	return false
}
