package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/spf13/cobra"

	"github.com/genson-go/genson"
	"github.com/genson-go/genson/internal/forcetype"
)

type flags struct {
	ndjson        bool
	noIgnoreArray bool
	avro          bool
	wrapRoot      string
	mapThreshold  uint32
	mapMaxRK      uint32
	mapMaxRKSet   bool
	forceType     string
	unifyMaps     bool
	noUnify       bool
	mapEncoding   string
	normalise     bool
	coerceStrings bool
	keepEmpty     bool
	configPath    string
	locale        string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "genson [FILE]",
		Short: "Infer a unified JSON Schema or Avro schema from JSON documents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f)
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&f.ndjson, "ndjson", false, "newline-delimited documents")
	fs.BoolVar(&f.noIgnoreArray, "no-ignore-array", false, "preserve top-level array structure")
	fs.BoolVar(&f.avro, "avro", false, "emit Avro schema")
	fs.StringVar(&f.wrapRoot, "wrap-root", "", "wrap each document under <name>")
	fs.Uint32Var(&f.mapThreshold, "map-threshold", 0, "distinct-key threshold for map candidacy")
	fs.Uint32Var(&f.mapMaxRK, "map-max-rk", 0, "max required keys for a map candidate")
	fs.StringVar(&f.forceType, "force-type", "", "forced field kinds, k:v,k2:v2 with v in {map,record}")
	fs.BoolVar(&f.unifyMaps, "unify-maps", false, "enable record unification in map values")
	fs.BoolVar(&f.noUnify, "no-unify", false, "disable record unification entirely")
	fs.StringVar(&f.mapEncoding, "map-encoding", "mapping", "map encoding: mapping|entries|kv")
	fs.BoolVar(&f.normalise, "normalise", false, "emit normalised documents instead of schema")
	fs.BoolVar(&f.coerceStrings, "coerce-strings", false, "coerce scalar strings during normalisation")
	fs.BoolVar(&f.keepEmpty, "keep-empty", false, "preserve empty arrays/maps")
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file (flags override its values)")
	fs.StringVar(&f.locale, "locale", "", "locale for diagnostics (BCP 47, e.g. en, zh-Hans); defaults to $LANG")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		f.mapMaxRKSet = fs.Changed("map-max-rk")
		return nil
	}

	return cmd
}

func buildConfig(f *flags) (*genson.Config, error) {
	cfg := genson.NewConfig()
	if f.configPath != "" {
		data, err := os.ReadFile(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", genson.ErrSourceRead, err)
		}
		cfg, err = genson.LoadConfigYAML(data)
		if err != nil {
			return nil, err
		}
	}

	cfg.NDJSON = f.ndjson
	cfg.IgnoreOuterArray = !f.noIgnoreArray
	cfg.Avro = f.avro
	cfg.WrapRoot = f.wrapRoot
	cfg.MapThreshold = f.mapThreshold
	if f.mapMaxRKSet {
		v := f.mapMaxRK
		cfg.MapMaxRequiredKeys = &v
	}
	cfg.UnifyMaps = f.unifyMaps
	cfg.NoUnify = f.noUnify
	cfg.MapEncoding = genson.MapEncoding(f.mapEncoding)
	cfg.Normalise = f.normalise
	cfg.CoerceStrings = f.coerceStrings
	cfg.KeepEmpty = f.keepEmpty

	if f.forceType != "" {
		parsed, err := forcetype.Parse(f.forceType)
		if err != nil {
			return nil, err
		}
		cfg.ForceFieldTypes = make(map[string]genson.FieldKind, len(parsed))
		for field, kind := range parsed {
			cfg.ForceFieldTypes[field] = genson.FieldKind(kind)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run is the RunE entry point: it delegates to doRun and, on failure,
// renders the error in the operator's locale (§7 items 4-6) rather than
// cobra's default plain err.Error() path.
func run(cmd *cobra.Command, args []string, f *flags) error {
	if err := doRun(cmd, args, f); err != nil {
		return errors.New(genson.LocalizeError(err, resolvePreferredLocale(f)))
	}
	return nil
}

// resolvePreferredLocale honours an explicit --locale, falling back to
// $LANG (POSIX-style "zh_CN.UTF-8" normalised to the BCP 47 "zh-CN" tag
// genson.ResolveLocale expects).
func resolvePreferredLocale(f *flags) string {
	pref := f.locale
	if pref == "" {
		pref = normalizeLANG(os.Getenv("LANG"))
	}
	return genson.ResolveLocale(pref)
}

func normalizeLANG(lang string) string {
	if i := strings.IndexByte(lang, '.'); i >= 0 {
		lang = lang[:i]
	}
	return strings.ReplaceAll(lang, "_", "-")
}

func doRun(cmd *cobra.Command, args []string, f *flags) error {
	cfg, err := buildConfig(f)
	if err != nil {
		return err
	}

	data, err := readSource(args)
	if err != nil {
		return fmt.Errorf("%w: %w", genson.ErrSourceRead, err)
	}

	docs, err := genson.PrepareDocuments(data, cfg)
	if err != nil {
		return err
	}

	result, err := genson.Run(cmd.Context(), docs, cfg, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Normalise {
		return normaliseDocuments(out, docs, result.Schema, cfg)
	}
	return emitSchema(out, result.Schema, cfg)
}

func readSource(args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}

func emitSchema(w io.Writer, schema *genson.Node, cfg *genson.Config) error {
	if cfg.Avro {
		avroSchema, err := genson.EmitAvro(schema)
		if err != nil {
			return err
		}
		data, err := json.Marshal(avroSchema, json.Deterministic(true))
		if err != nil {
			return fmt.Errorf("%w: %w", genson.ErrSchemaWrite, err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	}
	data, err := genson.EmitSchemaJSON(schema, cfg, true)
	if err != nil {
		return fmt.Errorf("%w: %w", genson.ErrSchemaWrite, err)
	}
	_, err = w.Write(data)
	return err
}

func normaliseDocuments(w io.Writer, docs []any, schema *genson.Node, cfg *genson.Config) error {
	for _, doc := range docs {
		normalised := genson.Normalise(doc, schema, cfg)
		data, err := json.Marshal(normalised, json.Deterministic(true))
		if err != nil {
			return fmt.Errorf("%w: %w", genson.ErrSchemaWrite, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return nil
}
