package discourse

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Entry is embedded in every result type. It carries the Metadata of the
// response the value was read from, and keeps the members no field claimed.
type Entry struct {
	MetaData *Metadata      `json:"-"`
	Extra    map[string]any `json:"extra,omitempty,remain"`
}

func (e *Entry) setMetadata(m *Metadata) {
	e.MetaData = m
}

// Failed reports whether the response carried an embedded error.
func (e *Entry) Failed() bool {
	return e.MetaData != nil && e.MetaData.Error != nil
}

type metadataCarrier interface {
	setMetadata(*Metadata)
}

type failureReporter interface {
	Failed() bool
}

// decodeValue maps generic JSON values onto out using json tag names.
func decodeValue(input, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		Result: out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// As maps the whole document onto a new T. If T embeds Entry and the document
// carries an embedded error, the mapped value is returned together with an
// *APIError.
func As[T any](doc *Document) (*T, error) {
	out := new(T)
	if err := decodeValue(doc.Fields, out); err != nil {
		return nil, fmt.Errorf("discourse: mapping response of %s: %w", doc.MetaData.URI, err)
	}
	if carrier, ok := any(out).(metadataCarrier); ok {
		carrier.setMetadata(&doc.MetaData)
	}
	if reporter, ok := any(out).(failureReporter); ok && reporter.Failed() {
		return out, newEmbeddedError(doc)
	}
	return out, nil
}

// Member maps the member key of the document onto a new T.
func Member[T any](doc *Document, key string) (*T, error) {
	if doc.MetaData.Error != nil {
		return nil, newEmbeddedError(doc)
	}
	out := new(T)
	if err := doc.Decode(key, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachMetadata sets m on every item that embeds Entry.
func attachMetadata[T any](items []T, m *Metadata) {
	for i := range items {
		if carrier, ok := any(&items[i]).(metadataCarrier); ok {
			carrier.setMetadata(m)
		}
	}
}
