package genson

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ParseError reports why one document failed to parse, carrying enough
// context (§7 item 3) to locate it: its index in the batch, the underlying
// message, and a short snippet of the offending input.
type ParseError struct {
	Index   int
	Message string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("document %d: %s (near %q)", e.Index, e.Message, e.Snippet)
}

func (e *ParseError) Unwrap() error { return ErrDocumentParse }

const snippetLimit = 64

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > snippetLimit {
		return s[:snippetLimit] + "…"
	}
	return s
}

// ParseDocument decodes one JSON document into an order-preserving value
// tree: objects become *orderedmap.OrderedMap[string, any] (so first-seen
// key order survives into the builder — §5's ordering guarantees depend on
// it), arrays become []any, and scalars become nil, bool, int64, float64 or
// string. Numbers with no fractional part that fit in an int64 decode as
// int64; everything else decodes as float64 (§4.2's integer/number split).
//
// Turning bytes into this tree is treated as a primitive the rest of the
// package consumes, not a tokeniser the package reimplements: the actual
// token scanning is goccy/go-json's, walked manually only to keep object
// key order, which a plain decode into `any` would discard.
func ParseDocument(data []byte) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, &ParseError{Message: err.Error(), Snippet: snippet(data), Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Message: "trailing data after document", Snippet: snippet(data), Err: err}
	}
	return v, nil
}

func decodeValue(dec *gojson.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeValueFromToken(dec, tok)
}

func decodeValueFromToken(dec *gojson.Decoder, tok gojson.Token) (any, error) {
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case string:
		return t, nil
	case gojson.Number:
		return decodeNumber(t)
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

func decodeObject(dec *gojson.Decoder) (*orderedmap.OrderedMap[string, any], error) {
	om := orderedmap.New[string, any]()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %T", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		om.Set(key, val)
	}
	// consume closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return om, nil
}

func decodeArray(dec *gojson.Decoder) ([]any, error) {
	items := []any{}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, val)
	}
	// consume closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeNumber(n gojson.Number) (any, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	return n.Float64()
}

// SplitNDJSON splits ndjson-formatted input into its non-empty lines,
// preserving order.
func SplitNDJSON(data []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}
