package discourse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	formContentType = "application/x-www-form-urlencoded"
	textContentType = "text/plain; charset=utf-8"
	octetStream     = "application/octet-stream"
)

// payload is an encoded request body that can be opened once per attempt.
type payload struct {
	contentType string
	disposition string
	// length is -1 when unknown.
	length  int64
	summary string
	open    func() (io.ReadCloser, error)
}

// newPayload selects the body encoding for v.
func newPayload(v any) (*payload, error) {
	switch body := v.(type) {
	case nil:
		return nil, nil
	case *Stream:
		return body.payload()
	case *os.File:
		stream, err := NewStream(filepath.Base(body.Name()), body)
		if err != nil {
			return nil, err
		}
		return stream.payload()
	case *MultipartForm:
		return body.payload(), nil
	case string:
		return bytesPayload([]byte(body), textContentType, body), nil
	case url.Values:
		encoded := body.Encode()
		return bytesPayload([]byte(encoded), formContentType, encoded), nil
	default:
		form, err := FormValues(body)
		if err != nil {
			return nil, err
		}
		summary, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			summary = []byte(form.Encode())
		}
		return bytesPayload([]byte(form.Encode()), formContentType, string(summary)), nil
	}
}

func bytesPayload(data []byte, contentType, summary string) *payload {
	return &payload{
		contentType: contentType,
		length:      int64(len(data)),
		summary:     summary,
		open: func() (io.ReadCloser, error) {
			if len(data) == 0 {
				return http.NoBody, nil
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Stream is a raw request body sent as a file attachment.
type Stream struct {
	Filename string
	Reader   io.ReadSeeker
	Length   int64
}

// NewStream wraps r, measuring its length.
func NewStream(filename string, r io.ReadSeeker) (*Stream, error) {
	length, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("discourse: measuring %s: %w", filename, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("discourse: rewinding %s: %w", filename, err)
	}
	return &Stream{Filename: filename, Reader: r, Length: length}, nil
}

func (s *Stream) payload() (*payload, error) {
	if s == nil || s.Reader == nil {
		return nil, fmt.Errorf("%w: stream has no reader", ErrUnsupportedBody)
	}
	name := filepath.Base(s.Filename)
	return &payload{
		contentType: contentTypeFor(name, s.Reader),
		disposition: mime.FormatMediaType("attachment", map[string]string{"filename": name}),
		length:      s.Length,
		summary:     "File: " + name,
		open: func() (io.ReadCloser, error) {
			if _, err := s.Reader.Seek(0, io.SeekStart); err != nil {
				return nil, fmt.Errorf("discourse: rewinding %s: %w", name, err)
			}
			return io.NopCloser(s.Reader), nil
		},
	}, nil
}

// contentTypeFor guesses a MIME type from the file extension, falling back to
// sniffing the content. r is rewound afterwards.
func contentTypeFor(name string, r io.ReadSeeker) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	if r == nil {
		return octetStream
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return octetStream
	}
	detected, err := mimetype.DetectReader(r)
	if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil || err != nil {
		return octetStream
	}
	return detected.String()
}

type formPart struct {
	name     string
	value    string
	path     string
	filename string
	content  []byte
	file     bool
}

// MultipartForm is a multipart/form-data body. Files added by path are opened
// each time the form is sent and closed when writing finishes.
type MultipartForm struct {
	parts    []formPart
	boundary string
}

// NewMultipartForm returns an empty form with a random boundary.
func NewMultipartForm() *MultipartForm {
	return &MultipartForm{boundary: multipart.NewWriter(io.Discard).Boundary()}
}

// FormFromValues builds a multipart form from the flattened fields of values.
// Values of the keys listed in fileFields are treated as paths of files to attach.
func FormFromValues(values any, fileFields ...string) (*MultipartForm, error) {
	fields, err := FormValues(values)
	if err != nil {
		return nil, err
	}
	isFile := make(map[string]bool, len(fileFields))
	for _, name := range fileFields {
		isFile[name] = true
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	form := NewMultipartForm()
	for _, key := range keys {
		for _, value := range fields[key] {
			if isFile[key] {
				form.AddFile(key, value)
			} else {
				form.WriteField(key, value)
			}
		}
	}
	return form, nil
}

// WriteField adds a plain field.
func (f *MultipartForm) WriteField(name, value string) *MultipartForm {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// AddFile attaches the file at path.
func (f *MultipartForm) AddFile(name, path string) *MultipartForm {
	f.parts = append(f.parts, formPart{name: name, path: path, filename: filepath.Base(path), file: true})
	return f
}

// AddFileContent attaches in-memory content under filename.
func (f *MultipartForm) AddFileContent(name, filename string, content []byte) *MultipartForm {
	f.parts = append(f.parts, formPart{name: name, filename: filename, content: content, file: true})
	return f
}

// ContentType returns the Content-Type header value, including the boundary.
func (f *MultipartForm) ContentType() string {
	return mime.FormatMediaType("multipart/form-data", map[string]string{"boundary": f.boundary})
}

func (f *MultipartForm) payload() *payload {
	names := make([]string, 0, len(f.parts))
	for _, part := range f.parts {
		if part.file {
			names = append(names, part.name+"="+part.filename)
		} else {
			names = append(names, part.name+"="+part.value)
		}
	}
	return &payload{
		contentType: f.ContentType(),
		length:      -1,
		summary:     "Form: " + strings.Join(names, ", "),
		open: func() (io.ReadCloser, error) {
			pr, pw := io.Pipe()
			go func() {
				pw.CloseWithError(f.writeTo(pw))
			}()
			return pr, nil
		},
	}
}

func (f *MultipartForm) writeTo(w io.Writer) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(f.boundary); err != nil {
		return err
	}
	for _, part := range f.parts {
		if !part.file {
			if err := mw.WriteField(part.name, part.value); err != nil {
				return err
			}
			continue
		}
		if err := writeFilePart(mw, part); err != nil {
			return err
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, part formPart) error {
	var src io.ReadSeeker
	if part.path != "" {
		file, err := os.Open(part.path)
		if err != nil {
			return fmt.Errorf("discourse: opening upload %s: %w", part.path, err)
		}
		defer file.Close()
		src = file
	} else {
		src = bytes.NewReader(part.content)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(part.name), quoteEscaper.Replace(part.filename)))
	header.Set("Content-Type", contentTypeFor(part.filename, src))

	w, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
