package genson

import "fmt"

// AggregateParseError reports every document that failed to parse in a
// single NDJSON batch (§7 item 3), preserving each failure's own
// *ParseError detail rather than flattening them into one message.
type AggregateParseError struct {
	Errs []error
}

func (e *AggregateParseError) Error() string {
	return fmt.Sprintf("%d document(s) failed to parse: %v", len(e.Errs), e.Errs)
}

func (e *AggregateParseError) Unwrap() error { return ErrAggregateParse }

// PrepareDocuments turns raw input bytes into the list of documents Run
// should fold (§3.3's ignore_outer_array/ndjson/wrap_root options, applied
// before the driver ever sees a document). Per-document parse failures are
// collected and returned together as ErrAggregateParse rather than
// aborting at the first one (§7 item 3).
func PrepareDocuments(data []byte, cfg *Config) ([]any, error) {
	var raw []any
	var parseErrs []error

	if cfg.NDJSON {
		for i, line := range SplitNDJSON(data) {
			v, err := ParseDocument(line)
			if err != nil {
				parseErrs = append(parseErrs, reindexParseError(err, i))
				continue
			}
			raw = append(raw, v)
		}
	} else {
		v, err := ParseDocument(data)
		if err != nil {
			return nil, err
		}
		if cfg.IgnoreOuterArray {
			if arr, ok := v.([]any); ok {
				raw = arr
			} else {
				raw = []any{v}
			}
		} else {
			raw = []any{v}
		}
	}

	if len(parseErrs) > 0 {
		return nil, &AggregateParseError{Errs: parseErrs}
	}
	if len(raw) == 0 {
		return nil, ErrEmptyInput
	}

	if cfg.WrapRoot == "" {
		return raw, nil
	}
	wrapped := make([]any, len(raw))
	for i, v := range raw {
		wrapped[i] = wrapRoot(cfg.WrapRoot, v)
	}
	return wrapped, nil
}

func reindexParseError(err error, index int) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Index = index
		return pe
	}
	return err
}
