package store

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jonwraymond/synckit/httperr"
)

// Pagination describes the window a Page covers.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Page is the response schema for list endpoints. Items stay raw so
// callers decode records into their own types.
type Page struct {
	Items      []json.RawMessage `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// decodeResource parses a resource response body. An object with an
// items array is a Page; any other object is a single record,
// returned raw for the caller to decode. Everything else — arrays,
// scalars, bodies that are not JSON, pages with a mistyped items
// field — is a backend fault and classifies as a server error rather
// than being coerced.
func decodeResource(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, httperr.New(httperr.KindServerError, fmt.Errorf("%w: %w", ErrMalformedPayload, err))
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, httperr.New(httperr.KindServerError, fmt.Errorf("%w: %w", ErrMalformedPayload, err))
	}
	if probe == nil {
		return nil, httperr.New(httperr.KindServerError, fmt.Errorf("%w: body is null", ErrMalformedPayload))
	}

	if _, ok := probe["items"]; !ok {
		return json.RawMessage(data), nil
	}

	var p Page
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, httperr.New(httperr.KindServerError, fmt.Errorf("%w: %w", ErrMalformedPayload, err))
	}
	if p.Items == nil {
		return nil, httperr.New(httperr.KindServerError, fmt.Errorf("%w: items is not an array", ErrMalformedPayload))
	}
	return &p, nil
}
