package genson

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// discriminatorKey is the fixed synthetic key inserted into each value of
// a map whose value unification kept a record-union as distinct variants
// instead of merging it, identifying the source variant (§6: "the fixed token `__key__`").
const discriminatorKey = "__key__"

// Normalise rewrites v — a value produced by ParseDocument — into the
// exact shape required by s, the post-inference schema (§4.7, component
// G). It never fails: shape mismatches degrade to null rather than
// propagating an error.
func Normalise(v any, s *Node, cfg *Config) any {
	if s == nil {
		s = Unknown()
	}
	switch s.Kind {
	case KindUnknown:
		return v
	case KindArray:
		return normaliseArray(v, s, cfg)
	case KindObject:
		if s.IsMap {
			return normaliseMap(v, s, cfg)
		}
		return normaliseRecord(v, s, cfg)
	case KindUnion:
		return normaliseUnion(v, s, cfg)
	default:
		return normaliseScalar(v, s.Kind, cfg)
	}
}

func normaliseScalar(v any, kind Kind, cfg *Config) any {
	if v == nil {
		return nil
	}
	if scalarMatchesKind(v, kind) {
		return v
	}
	if cfg.CoerceStrings {
		if s, ok := v.(string); ok {
			if coerced, ok := coerceString(s, kind); ok {
				return coerced
			}
		}
	}
	return nil
}

func scalarMatchesKind(v any, kind Kind) bool {
	switch kind {
	case KindNull:
		return v == nil
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindInteger:
		_, ok := v.(int64)
		return ok
	case KindNumber:
		switch v.(type) {
		case int64, float64:
			return true
		default:
			return false
		}
	case KindString:
		_, ok := v.(string)
		return ok
	default:
		return false
	}
}

func coerceString(s string, kind Kind) (any, bool) {
	switch kind {
	case KindBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, false
		}
		return b, true
	case KindInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		return i, true
	case KindNumber:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	default:
		return nil, false
	}
}

func normaliseArray(v any, s *Node, cfg *Config) any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	if len(arr) == 0 {
		if cfg.KeepEmpty {
			return []any{}
		}
		return nil
	}
	out := make([]any, len(arr))
	for i, item := range arr {
		out[i] = Normalise(item, s.Items, cfg)
	}
	return out
}

func normaliseRecord(v any, s *Node, cfg *Config) any {
	om, ok := v.(*orderedmap.OrderedMap[string, any])
	if !ok {
		return nil
	}
	out := orderedmap.New[string, any]()
	for _, k := range propertyKeys(s.Properties) {
		propSchema, _ := s.Properties.Get(k)
		if val, present := om.Get(k); present {
			out.Set(k, Normalise(val, propSchema, cfg))
		} else {
			out.Set(k, nil)
		}
	}
	if out.Len() == 0 {
		if cfg.KeepEmpty {
			return out
		}
		return nil
	}
	return out
}

func normaliseUnion(v any, s *Node, cfg *Config) any {
	idx := pickUnionAlternative(v, s.Alternatives)
	if idx < 0 {
		return nil
	}
	return Normalise(v, s.Alternatives[idx], cfg)
}

// pickUnionAlternative finds the alternative whose top kind matches v,
// preferring the most specific match when more than one would do (e.g.
// integer over number, §4.7).
func pickUnionAlternative(v any, alts []*Node) int {
	best := -1
	for i, alt := range alts {
		if !valueMatchesTopKind(v, alt.Kind) {
			continue
		}
		if best < 0 || alt.Kind == KindInteger {
			best = i
		}
	}
	return best
}

func valueMatchesTopKind(v any, kind Kind) bool {
	switch kind {
	case KindNull:
		return v == nil
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindInteger:
		_, ok := v.(int64)
		return ok
	case KindNumber:
		switch v.(type) {
		case int64, float64:
			return true
		default:
			return false
		}
	case KindString:
		_, ok := v.(string)
		return ok
	case KindArray:
		_, ok := v.([]any)
		return ok
	case KindObject:
		_, ok := v.(*orderedmap.OrderedMap[string, any])
		return ok
	default:
		return false
	}
}

type mapEntry struct {
	Key   string
	Value any
}

func normaliseMap(v any, s *Node, cfg *Config) any {
	entries, ok := extractMapEntries(v)
	if !ok {
		return nil
	}
	if len(entries) == 0 {
		if cfg.KeepEmpty {
			return encodeMapEntries(nil, cfg)
		}
		return nil
	}

	var variantAlts []*Node
	if s.FromRecordUnion && s.MapValue.Kind == KindUnion {
		variantAlts = s.MapValue.Alternatives
	}

	out := make([]mapEntry, len(entries))
	for i, e := range entries {
		if variantAlts != nil {
			vi := pickRecordVariant(e.Value, variantAlts)
			if vi < 0 {
				out[i] = mapEntry{Key: e.Key, Value: nil}
				continue
			}
			nv := Normalise(e.Value, variantAlts[vi], cfg)
			out[i] = mapEntry{Key: e.Key, Value: tagVariant(nv, vi)}
			continue
		}
		out[i] = mapEntry{Key: e.Key, Value: Normalise(e.Value, s.MapValue, cfg)}
	}
	return encodeMapEntries(out, cfg)
}

// pickRecordVariant chooses the union alternative (all Object, by
// construction — see unifyCandidateValues) whose properties overlap v's
// own keys the most.
func pickRecordVariant(v any, alts []*Node) int {
	om, ok := v.(*orderedmap.OrderedMap[string, any])
	if !ok {
		return -1
	}
	best, bestScore := -1, -1
	for i, alt := range alts {
		score := 0
		for _, k := range propertyKeys(alt.Properties) {
			if _, present := om.Get(k); present {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func tagVariant(nv any, variantIndex int) any {
	om, ok := nv.(*orderedmap.OrderedMap[string, any])
	if !ok {
		return nv
	}
	out := orderedmap.New[string, any]()
	out.Set(discriminatorKey, "variant_"+strconv.Itoa(variantIndex))
	for p := om.Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, p.Value)
	}
	return out
}

func extractMapEntries(v any) ([]mapEntry, bool) {
	switch val := v.(type) {
	case *orderedmap.OrderedMap[string, any]:
		out := make([]mapEntry, 0, val.Len())
		for p := val.Oldest(); p != nil; p = p.Next() {
			out = append(out, mapEntry{Key: p.Key, Value: p.Value})
		}
		return out, true
	case []any:
		out := make([]mapEntry, 0, len(val))
		for _, item := range val {
			om, ok := item.(*orderedmap.OrderedMap[string, any])
			if !ok {
				return nil, false
			}
			if om.Len() == 1 {
				p := om.Oldest()
				out = append(out, mapEntry{Key: p.Key, Value: p.Value})
				continue
			}
			kv, hasKey := om.Get("key")
			vv, hasValue := om.Get("value")
			ks, isString := kv.(string)
			if !hasKey || !hasValue || !isString {
				return nil, false
			}
			out = append(out, mapEntry{Key: ks, Value: vv})
		}
		return out, true
	default:
		return nil, false
	}
}

func encodeMapEntries(entries []mapEntry, cfg *Config) any {
	switch cfg.MapEncoding {
	case MapEncodingEntries:
		out := make([]any, len(entries))
		for i, e := range entries {
			om := orderedmap.New[string, any]()
			om.Set(e.Key, e.Value)
			out[i] = om
		}
		return out
	case MapEncodingKV:
		out := make([]any, len(entries))
		for i, e := range entries {
			om := orderedmap.New[string, any]()
			om.Set("key", e.Key)
			om.Set("value", e.Value)
			out[i] = om
		}
		return out
	default:
		om := orderedmap.New[string, any]()
		for _, e := range entries {
			om.Set(e.Key, e.Value)
		}
		return om
	}
}
