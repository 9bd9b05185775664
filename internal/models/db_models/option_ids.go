package db_models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// OptionIDs is the storage form of a list of feedback option ids. It is always
// written as a JSON array; reads also accept the older comma separated and
// bare scalar encodings.
type OptionIDs []string

func (o OptionIDs) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *OptionIDs) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*o = OptionIDs{}
	case string:
		*o = NormalizeIDArray(v)
	case []byte:
		*o = NormalizeIDArray(string(v))
	default:
		return fmt.Errorf("unsupported option id column type %T", src)
	}
	return nil
}

// NormalizeIDArray turns any stored encoding into a list of option ids.
// Empty or unparseable input yields an empty list, never an error.
func NormalizeIDArray(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []string{}
	}

	switch trimmed[0] {
	case '[', '{', '"':
		return normalizeJSON(trimmed)
	}

	if strings.Contains(trimmed, ",") {
		return splitNonEmpty(trimmed)
	}
	if trimmed == "null" {
		return []string{}
	}
	return []string{trimmed}
}

func normalizeJSON(trimmed string) []string {
	var decoded interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return []string{}
	}

	switch v := decoded.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			if id, ok := scalarID(elem); ok {
				out = append(out, id)
			}
		}
		return out
	case string:
		if id, ok := scalarID(v); ok {
			return []string{id}
		}
	}
	return []string{}
}

func scalarID(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	}
	return "", false
}

func splitNonEmpty(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
