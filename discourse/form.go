package discourse

import (
	"net/url"
	"sort"
)

// FormValues flattens v into form fields the way Rails expects them: nested
// objects become outer[inner]=value, arrays become repeated outer[]=value, nil
// values are omitted and booleans render as true/false.
//
// url.Values are returned as a copy, so flattening an already flat form
// leaves it unchanged.
func FormValues(v any) (url.Values, error) {
	if values, ok := v.(url.Values); ok {
		form := make(url.Values, len(values))
		for key, vals := range values {
			form[key] = append([]string(nil), vals...)
		}
		return form, nil
	}
	if v == nil {
		return url.Values{}, nil
	}

	fields, err := toFields(v)
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	for _, key := range sortedKeys(fields) {
		flatten(form, key, fields[key])
	}
	return form, nil
}

func flatten(form url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
	case map[string]any:
		for _, inner := range sortedKeys(v) {
			flatten(form, key+"["+inner+"]", v[inner])
		}
	case []any:
		for _, elem := range v {
			flatten(form, key+"[]", elem)
		}
	default:
		form.Add(key, formatScalar(v))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
