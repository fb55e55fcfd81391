package genson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "AUTO", cfg.SchemaURI)
	assert.Equal(t, MapEncodingMapping, cfg.MapEncoding)
	require.NoError(t, cfg.Validate())
}

func TestConfigResolvedSchemaURIDefaultsWhenAuto(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, DefaultSchemaURI, cfg.resolvedSchemaURI())
}

func TestConfigResolvedSchemaURIHonoursExplicitValue(t *testing.T) {
	cfg := NewConfig()
	cfg.SchemaURI = "https://example.com/schema"
	assert.Equal(t, "https://example.com/schema", cfg.resolvedSchemaURI())
}

func TestConfigValidateRejectsContradictoryUnifyFlags(t *testing.T) {
	cfg := NewConfig()
	cfg.UnifyMaps = true
	cfg.NoUnify = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContradictoryConfig)
}

func TestConfigValidateRejectsUnknownForcedFieldKind(t *testing.T) {
	cfg := NewConfig()
	cfg.ForceFieldTypes = map[string]FieldKind{"x": FieldKind("array")}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFieldOverride)
}

func TestConfigValidateRejectsUnknownMapEncoding(t *testing.T) {
	cfg := NewConfig()
	cfg.MapEncoding = "weird"
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidateAcceptsEmptyWrapRoot(t *testing.T) {
	cfg := NewConfig()
	cfg.WrapRoot = ""
	require.NoError(t, cfg.Validate(), "empty wrap_root means 'no wrapping', not a validation error")
}

func TestLoadConfigYAMLAppliesOverridesOnTopOfDefaults(t *testing.T) {
	data := []byte("map_threshold: 5\nunify_maps: true\n")
	cfg, err := LoadConfigYAML(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), cfg.MapThreshold)
	assert.True(t, cfg.UnifyMaps)
	assert.Equal(t, MapEncodingMapping, cfg.MapEncoding, "unset fields keep NewConfig's defaults")
}

func TestLoadConfigYAMLRejectsMalformedYAML(t *testing.T) {
	_, err := LoadConfigYAML([]byte("not: [valid"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
