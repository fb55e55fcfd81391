package genson

import "errors"

// === Configuration Related Errors ===
var (
	// ErrContradictoryConfig is returned when two configuration options
	// cannot both be honoured at once (e.g. unify_maps and no_unify).
	ErrContradictoryConfig = errors.New("contradictory configuration")

	// ErrInvalidConfig is returned when a configuration record fails
	// structural validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownFieldOverride is returned when force_field_types names a
	// field kind that is neither "map" nor "record".
	ErrUnknownFieldOverride = errors.New("unknown forced field type")
)

// === Parsing Related Errors ===
var (
	// ErrEmptyInput is returned by PrepareDocuments when the input yields
	// zero documents. Run itself accepts an empty list and returns an
	// Unknown schema.
	ErrEmptyInput = errors.New("empty input")

	// ErrDocumentParse is returned when a single document fails to parse
	// as JSON. Wrapped with document index, message and a snippet.
	ErrDocumentParse = errors.New("document parse failed")

	// ErrAggregateParse is returned when one or more documents in a batch
	// failed to parse. The per-document *ParseError values are kept in
	// AggregateParseError.Errs; errors.Is does not reach them.
	ErrAggregateParse = errors.New("one or more documents failed to parse")
)

// === Schema Value Model Related Errors ===
var (
	// ErrUnknownNodeKind is returned when a Node carries a Kind tag this
	// package does not recognise (a programming error, not user input).
	ErrUnknownNodeKind = errors.New("unknown schema node kind")
)

// === Avro Projection Related Errors ===
var (
	// ErrAvroNameCollision is returned when two structurally distinct
	// record nodes would be assigned the same path-qualified Avro name.
	ErrAvroNameCollision = errors.New("avro record name collision")
)

// === Driver Related Errors ===
var (
	// ErrCancelled is returned when a Run is aborted via its Cancellation
	// flag before all documents were folded into the schema.
	ErrCancelled = errors.New("driver run cancelled")
)

// === I/O Related Errors ===
var (
	// ErrSourceRead is returned when bytes cannot be read from the
	// configured input source (file or stdin).
	ErrSourceRead = errors.New("source read failed")

	// ErrSchemaWrite is returned when the emitted schema or normalised
	// document cannot be written to the output sink.
	ErrSchemaWrite = errors.New("schema write failed")
)
