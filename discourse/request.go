package discourse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Combine joins path segments with "/", escaping each one.
func Combine(parts ...any) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		segments = append(segments, url.PathEscape(fmt.Sprint(part)))
	}
	return strings.Join(segments, "/")
}

// QueryParams returns the query string of uri as a map. When a key repeats the
// last value wins.
func QueryParams(uri string) (map[string]string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("discourse: parsing url %q: %w", uri, err)
	}
	return lastValues(u.Query()), nil
}

// AddQueryParams merges params into the query string of uri. Keys whose value
// is nil, an empty string, an empty slice or an empty map are removed; every
// other key is set, replacing what was there. params may be url.Values, a map or
// a struct with json tags.
func AddQueryParams(uri string, params any) (string, error) {
	if params == nil {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("discourse: parsing url %q: %w", uri, err)
	}
	query := lastValues(u.Query())

	if values, ok := params.(url.Values); ok {
		for key, vals := range values {
			if len(vals) == 0 || vals[len(vals)-1] == "" {
				delete(query, key)
				continue
			}
			query[key] = vals[len(vals)-1]
		}
	} else {
		fields, err := toFields(params)
		if err != nil {
			return "", err
		}
		for key, value := range fields {
			if isEmptyValue(value) {
				delete(query, key)
				continue
			}
			query[key] = formatScalar(value)
		}
	}

	u.RawQuery = encodeQuery(query)
	return u.String(), nil
}

func lastValues(values url.Values) map[string]string {
	query := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			query[key] = vals[len(vals)-1]
		}
	}
	return query
}

func encodeQuery(query map[string]string) string {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, key := range keys {
		if buf.Len() > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(escapeQuery(key))
		buf.WriteByte('=')
		buf.WriteString(escapeQuery(query[key]))
	}
	return buf.String()
}

// escapeQuery percent-encodes s with spaces as %20.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// toFields converts a map or struct into generic JSON values so that query
// and form encoding see one representation.
func toFields(v any) (map[string]any, error) {
	if fields, ok := v.(map[string]any); ok && !needsNormalizing(fields) {
		return fields, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedBody, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %T does not encode to an object", ErrUnsupportedBody, v)
	}
	return fields, nil
}

// needsNormalizing reports whether fields holds anything besides the values a
// JSON decode produces.
func needsNormalizing(fields map[string]any) bool {
	for _, value := range fields {
		switch v := value.(type) {
		case nil, string, bool, json.Number, float64:
		case map[string]any:
			if needsNormalizing(v) {
				return true
			}
		case []any:
			for _, elem := range v {
				if needsNormalizing(map[string]any{"": elem}) {
					return true
				}
			}
		default:
			return true
		}
	}
	return false
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

// formatScalar renders a generic JSON value as a query or form value.
func formatScalar(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}
