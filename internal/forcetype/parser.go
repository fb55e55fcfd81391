// Package forcetype parses the --force-type CLI flag's "k:v,k2:v2" grammar
// into per-field overrides. It is a far simpler grammar than a struct-tag
// string (no escaping, no nested parameter lists), so the comma-split
// approach it uses is a stripped-down version of the tag parser's split
// step rather than a reimplementation of the whole thing.
package forcetype

import (
	"fmt"
	"strings"
)

// Parse parses a "field:kind,field2:kind2" string into a map from field
// name to kind string ("map" or "record"). The caller validates the kind
// values — this package only owns the grammar, not the vocabulary.
func Parse(raw string) (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, kind, ok := strings.Cut(part, ":")
		field, kind = strings.TrimSpace(field), strings.TrimSpace(kind)
		if !ok || field == "" || kind == "" {
			return nil, fmt.Errorf("forcetype: malformed entry %q, want field:kind", part)
		}
		out[field] = kind
	}
	return out, nil
}
