package discourse

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// DefaultPageLimit is the page size assumed when the server does not report one.
const DefaultPageLimit = 100

// ListRequest holds the parameters a list call was made with.
type ListRequest struct {
	Limit  int
	Offset int
	// PostParameters is the body of a list fetched with POST. When set, the
	// following pages are fetched with POST and the same body.
	PostParameters any
}

// Cursor is the position of a page within a list.
type Cursor struct {
	Limit      int
	Offset     int
	Page       int
	PerPage    int
	Count      int
	TotalCount int
}

// PageStrategy decides how a list is walked.
type PageStrategy interface {
	// HasMore reports whether another page follows the one at c.
	HasMore(c Cursor) bool
	// NextQuery returns the query parameters that select the following page.
	NextQuery(c Cursor) map[string]any
}

// OffsetPaging walks a list by limit and offset.
type OffsetPaging struct{}

// HasMore implements PageStrategy.
func (OffsetPaging) HasMore(c Cursor) bool {
	return c.Limit > 0 && c.Offset+c.Limit < c.TotalCount
}

// NextQuery implements PageStrategy.
func (OffsetPaging) NextQuery(c Cursor) map[string]any {
	return map[string]any{
		"limit":  c.Limit,
		"offset": c.Offset + c.Limit,
	}
}

// PageNumberPaging walks a list by page number. A page is the last one when it
// holds fewer items than the page size.
type PageNumberPaging struct{}

// HasMore implements PageStrategy.
func (PageNumberPaging) HasMore(c Cursor) bool {
	return c.PerPage > 0 && c.Count == c.PerPage
}

// NextQuery implements PageStrategy.
func (PageNumberPaging) NextQuery(c Cursor) map[string]any {
	return map[string]any{"page": c.Page + 1}
}

// PageDecoder fills page from a list response. Items, TotalCount and PerPage
// are the usual fields to set.
type PageDecoder[T any] func(doc *Document, page *Page[T]) error

// Page is one page of a list result.
type Page[T any] struct {
	Items      []T
	TotalCount int
	PageNumber int
	PerPage    int
	Request    ListRequest
	MetaData   Metadata
	// Document is the full response, for members outside the item list.
	Document *Document

	client   *Client
	strategy PageStrategy
	decode   PageDecoder[T]
}

// List fetches the first page of a list. Later pages are fetched through the
// returned page.
func List[T any](ctx context.Context, c *Client, method, path string, query, body any, strategy PageStrategy, decode PageDecoder[T]) (*Page[T], error) {
	uri, err := AddQueryParams(c.makeURI(path), query)
	if err != nil {
		return nil, err
	}
	doc, err := c.Send(ctx, method, uri, body)
	if err != nil {
		return nil, err
	}
	return newPage(c, doc, ListRequest{Limit: DefaultPageLimit, PostParameters: body}, strategy, decode)
}

func newPage[T any](c *Client, doc *Document, req ListRequest, strategy PageStrategy, decode PageDecoder[T]) (*Page[T], error) {
	if doc.MetaData.Error != nil {
		return nil, newEmbeddedError(doc)
	}

	page := &Page[T]{
		PerPage:  DefaultPageLimit,
		Request:  req,
		MetaData: doc.MetaData,
		Document: doc,
		client:   c,
		strategy: strategy,
		decode:   decode,
	}

	// The query of the URL the page came from wins over the carried request.
	if params, err := QueryParams(doc.MetaData.URI); err == nil {
		if limit, err := strconv.Atoi(params["limit"]); err == nil {
			page.Request.Limit = limit
		}
		if offset, err := strconv.Atoi(params["offset"]); err == nil {
			page.Request.Offset = offset
		}
		if number, err := strconv.Atoi(params["page"]); err == nil {
			page.PageNumber = number
		}
	}

	if err := decode(doc, page); err != nil {
		return nil, fmt.Errorf("discourse: decoding page of %s: %w", doc.MetaData.URI, err)
	}
	attachMetadata(page.Items, &page.MetaData)
	return page, nil
}

// Count returns the number of items in the page.
func (p *Page[T]) Count() int {
	return len(p.Items)
}

// Cursor returns the position of the page.
func (p *Page[T]) Cursor() Cursor {
	return Cursor{
		Limit:      p.Request.Limit,
		Offset:     p.Request.Offset,
		Page:       p.PageNumber,
		PerPage:    p.PerPage,
		Count:      len(p.Items),
		TotalCount: p.TotalCount,
	}
}

// HasMore reports whether another page follows.
func (p *Page[T]) HasMore() bool {
	return p.strategy.HasMore(p.Cursor())
}

// NextURL returns the URL of the following page, or "" on the last page.
func (p *Page[T]) NextURL() string {
	if !p.HasMore() {
		return ""
	}
	next, err := AddQueryParams(p.MetaData.URI, p.strategy.NextQuery(p.Cursor()))
	if err != nil {
		return ""
	}
	return next
}

// Next fetches the following page. It returns nil, nil on the last page.
func (p *Page[T]) Next(ctx context.Context) (*Page[T], error) {
	next := p.NextURL()
	if next == "" {
		return nil, nil
	}

	method := http.MethodGet
	if p.Request.PostParameters != nil {
		method = http.MethodPost
	}
	doc, err := p.client.Send(ctx, method, next, p.Request.PostParameters)
	if err != nil {
		return nil, err
	}
	return newPage(p.client, doc, p.Request, p.strategy, p.decode)
}

// ItemsDecoder returns a PageDecoder that reads the items from member key. An
// empty key reads the body of an array response.
func ItemsDecoder[T any](key string) PageDecoder[T] {
	if key == "" {
		key = ListKey
	}
	return func(doc *Document, page *Page[T]) error {
		if _, ok := doc.Fields[key]; !ok {
			return nil
		}
		return doc.Decode(key, &page.Items)
	}
}
