package discourse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// ListKey holds the elements of a response whose body is a JSON array.
	ListKey = "List"
	// ContentKey holds the text of a response whose body is not JSON.
	ContentKey = "content"
)

// Document is a decoded response body. JSON objects are stored as is, arrays
// under ListKey and anything else under ContentKey. Numbers are json.Number.
type Document struct {
	Fields   map[string]any
	MetaData Metadata
}

// Metadata describes where a result came from.
type Metadata struct {
	URI      string
	Modified time.Time
	Error    *EmbeddedError
}

// EmbeddedError is an error record returned inside a successful response.
type EmbeddedError struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
	StatusCode int    `json:"status_code"`
	IsOAuth    bool   `json:"is_oauth"`
}

// parseDocument classifies body by its first byte. Leading whitespace makes the
// body opaque content.
func parseDocument(body []byte) (*Document, error) {
	doc := &Document{Fields: map[string]any{}}
	if len(body) == 0 {
		return doc, nil
	}

	switch body[0] {
	case '{':
		if err := decodeJSON(body, &doc.Fields); err != nil {
			return nil, err
		}
		if doc.Fields == nil {
			doc.Fields = map[string]any{}
		}
	case '[':
		var list []any
		if err := decodeJSON(body, &list); err != nil {
			return nil, err
		}
		doc.Fields[ListKey] = list
	default:
		doc.Fields[ContentKey] = string(body)
	}
	return doc, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// Get returns the top-level member key.
func (d *Document) Get(key string) (any, bool) {
	value, ok := d.Fields[key]
	return value, ok
}

// Decode maps the member key into out.
func (d *Document) Decode(key string, out any) error {
	value, ok := d.Fields[key]
	if !ok {
		return fmt.Errorf("discourse: %q missing from response of %s", key, d.MetaData.URI)
	}
	if err := decodeValue(value, out); err != nil {
		return fmt.Errorf("discourse: mapping %q of %s: %w", key, d.MetaData.URI, err)
	}
	if carrier, ok := out.(metadataCarrier); ok {
		carrier.setMetadata(&d.MetaData)
	}
	return nil
}

// Int returns the member key as an int, or 0 when absent or not numeric.
func (d *Document) Int(key string) int {
	var n int
	if value, ok := d.Fields[key]; ok {
		_ = decodeValue(value, &n)
	}
	return n
}

// Errors returns the "errors" array of the document as strings.
func (d *Document) Errors() []string {
	list, ok := d.Fields["errors"].([]any)
	if !ok {
		return nil
	}
	errs := make([]string, 0, len(list))
	for _, item := range list {
		errs = append(errs, formatScalar(item))
	}
	return errs
}

// Content returns the raw text of a non-JSON response.
func (d *Document) Content() string {
	content, _ := d.Fields[ContentKey].(string)
	return content
}

// embeddedError detects an error record inside an otherwise successful body.
func embeddedError(fields map[string]any) *EmbeddedError {
	if raw, ok := fields["error"].(map[string]any); ok {
		var embedded EmbeddedError
		if err := decodeValue(raw, &embedded); err == nil && (embedded.Message != "" || embedded.ID != "") {
			return &embedded
		}
	}
	message, _ := fields["message"].(string)
	if failed, ok := fields["failed"].(string); ok && failed == "FAILED" && message != "" {
		return &EmbeddedError{ID: failed, Message: message}
	}
	if success, ok := fields["success"].(bool); ok && !success && message != "" {
		return &EmbeddedError{Message: message}
	}
	return nil
}
