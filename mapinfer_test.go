package genson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genson-go/genson/internal/testutil"
)

func buildKeyedObjects(keys []string, valueKind Kind) *Node {
	acc := Unknown()
	for _, k := range keys {
		doc := NewObject()
		doc.ObservedCount = 1
		doc.Properties.Set(k, Scalar(valueKind))
		doc.KeyCounts[k] = 1
		acc = Merge(acc, doc)
	}
	return acc
}

// TestMapInferenceScenarioThreshold is scenario 3: enough distinct keys on
// a non-root object promotes it to a map.
func TestMapInferenceScenarioThreshold(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 2

	root := NewObject()
	root.ObservedCount = 1
	root.Properties.Set("counters", buildKeyedObjects([]string{"a", "b", "c"}, KindInteger))
	root.KeyCounts["counters"] = 1

	inferred := InferMaps(root, cfg)
	counters, ok := inferred.Properties.Get("counters")
	require.True(t, ok)
	assert.True(t, counters.IsMap)
	assert.Equal(t, KindInteger, counters.MapValue.Kind)
}

func TestMapInferenceThresholdBoundaryExactlyAtThresholdStaysRecord(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 3

	candidate := buildKeyedObjects([]string{"a", "b", "c"}, KindInteger)
	root := NewObject()
	root.ObservedCount = 1
	root.Properties.Set("f", candidate)
	root.KeyCounts["f"] = 1

	inferred := InferMaps(root, cfg)
	f, _ := inferred.Properties.Get("f")
	assert.False(t, f.IsMap, "distinct_keys == map_threshold must not qualify")
}

func TestMapInferenceThresholdBoundaryOneOverThresholdBecomesMap(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 3

	candidate := buildKeyedObjects([]string{"a", "b", "c", "d"}, KindInteger)
	root := NewObject()
	root.ObservedCount = 1
	root.Properties.Set("f", candidate)
	root.KeyCounts["f"] = 1

	inferred := InferMaps(root, cfg)
	f, _ := inferred.Properties.Get("f")
	assert.True(t, f.IsMap, "distinct_keys > map_threshold must qualify")
}

func TestMapInferenceRootNeverPromoted(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 0

	root := buildKeyedObjects([]string{"a", "b", "c"}, KindInteger)
	inferred := InferMaps(root, cfg)
	assert.False(t, inferred.IsMap)
}

func recordVariant(fields map[string]Kind) *Node {
	n := NewObject()
	n.ObservedCount = 1
	for k, kind := range fields {
		n.Properties.Set(k, Scalar(kind))
		n.KeyCounts[k] = 1
	}
	return n
}

// TestMapInferenceScenarioRecordUnificationUnifyMaps is scenario 4:
// incompatible-looking record variants across map candidate values
// collapse into one shape once unify_maps is enabled.
func TestMapInferenceScenarioRecordUnificationUnifyMaps(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 1
	cfg.UnifyMaps = true

	root := NewObject()
	root.ObservedCount = 1
	entries := NewObject()
	entries.ObservedCount = 1
	entries.Properties.Set("e1", recordVariant(map[string]Kind{"type": KindString, "count": KindInteger}))
	entries.KeyCounts["e1"] = 1
	entries.Properties.Set("e2", recordVariant(map[string]Kind{"type": KindString, "label": KindString}))
	entries.KeyCounts["e2"] = 1
	root.Properties.Set("entries", entries)
	root.KeyCounts["entries"] = 1

	inferred := InferMaps(root, cfg)
	m, _ := inferred.Properties.Get("entries")
	require.True(t, m.IsMap)
	require.Equal(t, KindObject, m.MapValue.Kind)
	assert.False(t, m.FromRecordUnion, "unify_maps collapsed the variants into one shape; nothing left to discriminate")
	assert.ElementsMatch(t, []string{"type", "count", "label"}, propertyKeys(m.MapValue.Properties))
}

func TestMapInferenceRecordUnionKeptApartWithoutUnifyMaps(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 1

	root := NewObject()
	root.ObservedCount = 1
	entries := NewObject()
	entries.ObservedCount = 1
	entries.Properties.Set("e1", recordVariant(map[string]Kind{"type": KindString, "count": KindInteger}))
	entries.KeyCounts["e1"] = 1
	entries.Properties.Set("e2", recordVariant(map[string]Kind{"type": KindString, "label": KindString}))
	entries.KeyCounts["e2"] = 1
	root.Properties.Set("entries", entries)
	root.KeyCounts["entries"] = 1

	inferred := InferMaps(root, cfg)
	m, _ := inferred.Properties.Get("entries")
	require.True(t, m.IsMap)
	require.Equal(t, KindUnion, m.MapValue.Kind)
	assert.True(t, m.FromRecordUnion)
}

func TestMapInferenceNoUnifyOverridesUnifyMaps(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 1
	cfg.UnifyMaps = true
	cfg.NoUnify = true

	root := NewObject()
	root.ObservedCount = 1
	entries := NewObject()
	entries.ObservedCount = 1
	entries.Properties.Set("e1", recordVariant(map[string]Kind{"type": KindString}))
	entries.KeyCounts["e1"] = 1
	entries.Properties.Set("e2", recordVariant(map[string]Kind{"type": KindString, "extra": KindBoolean}))
	entries.KeyCounts["e2"] = 1
	root.Properties.Set("entries", entries)
	root.KeyCounts["entries"] = 1

	inferred := InferMaps(root, cfg)
	m, _ := inferred.Properties.Get("entries")
	require.True(t, m.IsMap)
	assert.True(t, m.FromRecordUnion)
}

// TestForceOverrideBeatsThreshold resolves Open Question 2: a forced map
// override applies even when the candidate's own key count would not
// otherwise clear map_threshold.
func TestForceOverrideBeatsThreshold(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 10
	cfg.ForceFieldTypes = map[string]FieldKind{"labels": FieldKindMap}

	root := NewObject()
	root.ObservedCount = 1
	labels := NewObject()
	labels.ObservedCount = 1
	labels.Properties.Set("only", Scalar(KindString))
	labels.KeyCounts["only"] = 1
	root.Properties.Set("labels", labels)
	root.KeyCounts["labels"] = 1

	inferred := InferMaps(root, cfg)
	l, _ := inferred.Properties.Get("labels")
	assert.True(t, l.IsMap, "a forced map override must win even with only one observed key")
}

func TestForceOverrideRecordBeatsMapCandidacy(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 0
	cfg.ForceFieldTypes = map[string]FieldKind{"labels": FieldKindRecord}

	root := NewObject()
	root.ObservedCount = 1
	labels := buildKeyedObjects([]string{"a", "b", "c"}, KindString)
	root.Properties.Set("labels", labels)
	root.KeyCounts["labels"] = 1

	inferred := InferMaps(root, cfg)
	l, _ := inferred.Properties.Get("labels")
	assert.False(t, l.IsMap)
}

func TestMapMaxRequiredKeysRejectsCandidate(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 1
	cfg.MapMaxRequiredKeys = testutil.PtrUint32(1)

	root := NewObject()
	root.ObservedCount = 1
	candidate := NewObject()
	candidate.ObservedCount = 1
	candidate.Properties.Set("x", Scalar(KindString))
	candidate.KeyCounts["x"] = 1
	candidate.Properties.Set("y", Scalar(KindString))
	candidate.KeyCounts["y"] = 1
	root.Properties.Set("f", candidate)
	root.KeyCounts["f"] = 1

	inferred := InferMaps(root, cfg)
	f, _ := inferred.Properties.Get("f")
	assert.False(t, f.IsMap, "two required keys exceeds map_max_required_keys of 1")
}

func TestMapInferenceIncompatibleKindsRejectsCandidacy(t *testing.T) {
	cfg := NewConfig()
	cfg.MapThreshold = 1

	root := NewObject()
	root.ObservedCount = 1
	candidate := NewObject()
	candidate.ObservedCount = 1
	candidate.Properties.Set("a", Scalar(KindString))
	candidate.KeyCounts["a"] = 1
	candidate.Properties.Set("b", NewArray(Scalar(KindString), true))
	candidate.KeyCounts["b"] = 1
	root.Properties.Set("f", candidate)
	root.KeyCounts["f"] = 1

	inferred := InferMaps(root, cfg)
	f, _ := inferred.Properties.Get("f")
	assert.False(t, f.IsMap, "a string alternative and an array alternative cannot unify into one map value")
}
