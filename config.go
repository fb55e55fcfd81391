package genson

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	gyaml "github.com/goccy/go-yaml"
)

// MapEncoding selects how a map value is serialised by the normaliser
// (§3.3, §4.7).
type MapEncoding string

const (
	MapEncodingMapping MapEncoding = "mapping"
	MapEncodingEntries MapEncoding = "entries"
	MapEncodingKV      MapEncoding = "kv"
)

// FieldKind is the value of a force_field_types override (§3.3).
type FieldKind string

const (
	FieldKindMap    FieldKind = "map"
	FieldKindRecord FieldKind = "record"
)

// Config accompanies every top-level call (§3.3). The zero value is
// well-typed but is not the default configuration: NewConfig below sets the
// documented defaults (SchemaURI "AUTO", mapping map encoding).
type Config struct {
	IgnoreOuterArray bool   `yaml:"ignore_outer_array" validate:"-"`
	NDJSON           bool   `yaml:"ndjson" validate:"-"`
	WrapRoot         string `yaml:"wrap_root" validate:"omitempty,min=1"`

	SchemaURI string `yaml:"schema_uri" validate:"-"`
	Avro      bool   `yaml:"avro" validate:"-"`

	MapThreshold       uint32               `yaml:"map_threshold" validate:"-"`
	MapMaxRequiredKeys *uint32              `yaml:"map_max_required_keys" validate:"omitempty"`
	ForceFieldTypes    map[string]FieldKind `yaml:"force_field_types" validate:"-"`
	UnifyMaps          bool                 `yaml:"unify_maps" validate:"-"`
	NoUnify            bool                 `yaml:"no_unify" validate:"-"`
	MapEncoding        MapEncoding          `yaml:"map_encoding" validate:"omitempty,oneof=mapping entries kv"`

	Normalise     bool `yaml:"normalise" validate:"-"`
	CoerceStrings bool `yaml:"coerce_strings" validate:"-"`
	KeepEmpty     bool `yaml:"keep_empty" validate:"-"`

	MaxBuilders *uint32 `yaml:"max_builders" validate:"omitempty"`

	Profile bool `yaml:"profile" validate:"-"`
	Debug   bool `yaml:"debug" validate:"-"`
}

// FieldOverrideError reports which force_field_types entry named a kind
// other than "map" or "record" (§7 item 5).
type FieldOverrideError struct {
	Field string
	Kind  string
}

func (e *FieldOverrideError) Error() string {
	return fmt.Sprintf("field %q has unrecognised forced type %q", e.Field, e.Kind)
}

func (e *FieldOverrideError) Unwrap() error { return ErrUnknownFieldOverride }

// DefaultSchemaURI is emitted when Config.SchemaURI is "AUTO" and Avro is
// false (§3.3, §4.8).
const DefaultSchemaURI = "https://json-schema.org/draft/2020-12/schema"

// NewConfig returns a Config with the documented defaults: JSON-Schema
// output, mapping-style map encoding, no wrapping, threshold 0.
func NewConfig() *Config {
	return &Config{
		SchemaURI:   "AUTO",
		MapEncoding: MapEncodingMapping,
	}
}

var configValidator = validator.New()

// Validate checks structural constraints via struct tags and the
// cross-field rules §7 item 5 names explicitly: unify_maps and no_unify are
// contradictory, and force_field_types values other than "map"/"record"
// are rejected eagerly rather than silently ignored.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.UnifyMaps && c.NoUnify {
		return fmt.Errorf("%w: unify_maps and no_unify both set", ErrContradictoryConfig)
	}
	for field, kind := range c.ForceFieldTypes {
		if kind != FieldKindMap && kind != FieldKindRecord {
			return &FieldOverrideError{Field: field, Kind: string(kind)}
		}
	}
	return nil
}

// resolvedSchemaURI returns the URI to emit for $schema (§3.3, §4.8): the
// configured URI, or DefaultSchemaURI when the configuration says "AUTO".
func (c *Config) resolvedSchemaURI() string {
	if c.SchemaURI != "AUTO" {
		return c.SchemaURI
	}
	return DefaultSchemaURI
}

// LoadConfigYAML reads a Config from YAML bytes (§6 expansion: `--config`).
// Unset fields in the file keep NewConfig's defaults: the file is decoded
// into a Config that already carries the defaults.
func LoadConfigYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := gyaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}
