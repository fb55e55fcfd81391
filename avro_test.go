package genson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvroPrimitiveProjection(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{KindBoolean, "boolean"},
		{KindInteger, "long"},
		{KindNumber, "double"},
		{KindString, "string"},
	}
	for _, c := range cases {
		s, err := EmitAvro(Scalar(c.kind))
		require.NoError(t, err)
		assert.Equal(t, "primitive", s.Kind)
		assert.Equal(t, c.want, s.Primitive)
	}
}

func TestAvroPrimitiveMarshalsAsBareString(t *testing.T) {
	s, err := EmitAvro(Scalar(KindString))
	require.NoError(t, err)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"string"`, string(data))
}

func TestAvroArrayProjection(t *testing.T) {
	s, err := EmitAvro(NewArray(Scalar(KindInteger), true))
	require.NoError(t, err)
	assert.Equal(t, "array", s.Kind)
	assert.Equal(t, "long", s.Items.Primitive)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"array","items":"long"}`, string(data))
}

// TestAvroScenarioOptionalField is scenario 5: a field absent from some
// documents projects as a nullable union with a null default, while a
// field present everywhere projects as a bare required type.
func TestAvroScenarioOptionalField(t *testing.T) {
	doc1 := NewObject()
	doc1.ObservedCount = 1
	doc1.Properties.Set("id", Scalar(KindInteger))
	doc1.KeyCounts["id"] = 1
	doc1.Properties.Set("nickname", Scalar(KindString))
	doc1.KeyCounts["nickname"] = 1

	doc2 := NewObject()
	doc2.ObservedCount = 1
	doc2.Properties.Set("id", Scalar(KindInteger))
	doc2.KeyCounts["id"] = 1

	merged := Merge(doc1, doc2)
	avroSchema, err := EmitAvro(merged)
	require.NoError(t, err)
	require.Equal(t, "record", avroSchema.Kind)

	var idField, nickField *AvroField
	for i := range avroSchema.Fields {
		switch avroSchema.Fields[i].Name {
		case "id":
			idField = &avroSchema.Fields[i]
		case "nickname":
			nickField = &avroSchema.Fields[i]
		}
	}
	require.NotNil(t, idField)
	require.NotNil(t, nickField)

	assert.Equal(t, "primitive", idField.Type.Kind, "a required field projects as a bare type, not a nullable union")
	assert.False(t, idField.HasDefault)

	require.Equal(t, "union", nickField.Type.Kind)
	assert.Equal(t, "null", nickField.Type.Union[0].Primitive)
	assert.True(t, nickField.HasDefault)
}

func TestAvroRecordNameIsPathQualifiedAndCollisionFree(t *testing.T) {
	inner := NewObject()
	inner.ObservedCount = 1
	inner.Properties.Set("x", Scalar(KindString))
	inner.KeyCounts["x"] = 1

	root := NewObject()
	root.ObservedCount = 1
	root.Properties.Set("left", inner)
	root.KeyCounts["left"] = 1
	root.Properties.Set("right", inner)
	root.KeyCounts["right"] = 1

	avroSchema, err := EmitAvro(root)
	require.NoError(t, err)

	var leftName, rightName string
	for _, f := range avroSchema.Fields {
		switch f.Name {
		case "left":
			leftName = f.Type.Name
		case "right":
			rightName = f.Type.Name
		}
	}
	assert.NotEqual(t, leftName, rightName, "identical structural subtrees at different paths must get distinct names")
	assert.Equal(t, "documentLeft", leftName)
	assert.Equal(t, "documentRight", rightName)
}

// TestAvroRecordNameCollisionIsDetected exercises the case a purely
// path-string-joining scheme cannot tell apart: a single segment "aB" and
// two nested segments "a" then "B" derive the identical Avro name, so
// EmitAvro must report it as a collision rather than silently emitting one
// of the two records under the other's name.
func TestAvroRecordNameCollisionIsDetected(t *testing.T) {
	innerY := NewObject()
	innerY.ObservedCount = 1
	innerY.Properties.Set("v", Scalar(KindString))
	innerY.KeyCounts["v"] = 1

	objectA := NewObject()
	objectA.ObservedCount = 1
	objectA.Properties.Set("B", innerY)
	objectA.KeyCounts["B"] = 1

	objectX := NewObject()
	objectX.ObservedCount = 1
	objectX.Properties.Set("w", Scalar(KindInteger))
	objectX.KeyCounts["w"] = 1

	root := NewObject()
	root.ObservedCount = 1
	root.Properties.Set("aB", objectX)
	root.KeyCounts["aB"] = 1
	root.Properties.Set("a", objectA)
	root.KeyCounts["a"] = 1

	_, err := EmitAvro(root)
	require.ErrorIs(t, err, ErrAvroNameCollision)
}

func TestAvroUnionNullFirstOrdering(t *testing.T) {
	u := NewUnion(Scalar(KindString), Scalar(KindNull))
	s, err := EmitAvro(u)
	require.NoError(t, err)
	require.Equal(t, "union", s.Kind)
	assert.Equal(t, "null", s.Union[0].Primitive)
}

func TestAvroMapProjection(t *testing.T) {
	n := &Node{Kind: KindObject, IsMap: true, MapValue: Scalar(KindString)}
	s, err := EmitAvro(n)
	require.NoError(t, err)
	require.Equal(t, "map", s.Kind)
	assert.Equal(t, "string", s.Values.Primitive)
}

func TestAvroMapFromRecordUnionSynthesisesDiscriminatedRecord(t *testing.T) {
	variantA := NewObject()
	variantA.ObservedCount = 1
	variantA.Properties.Set("count", Scalar(KindInteger))
	variantA.KeyCounts["count"] = 1

	variantB := NewObject()
	variantB.ObservedCount = 1
	variantB.Properties.Set("label", Scalar(KindString))
	variantB.KeyCounts["label"] = 1

	union := NewUnion(variantA, variantB)
	n := &Node{Kind: KindObject, IsMap: true, MapValue: union, FromRecordUnion: true}

	s, err := EmitAvro(n)
	require.NoError(t, err)
	require.Equal(t, "map", s.Kind)
	require.Equal(t, "record", s.Values.Kind)

	var hasDiscriminator bool
	for _, f := range s.Values.Fields {
		if f.Name == discriminatorKey {
			hasDiscriminator = true
		}
	}
	assert.True(t, hasDiscriminator)
}
