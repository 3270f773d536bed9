package docp

import (
	"encoding/json"
	"fmt"
)

// Response is a single reply line from the server. Data carries the
// action-specific payload and stays raw until the caller knows which shape
// to decode it into.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ParseResponse decodes one complete protocol line. A line that is not a
// valid response object is reported as ErrMalformedResponse; the caller
// decides which in-flight request that failure belongs to.
func ParseResponse(line []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &resp, nil
}

// OK reports whether the server accepted the request.
func (r *Response) OK() bool { return r.Status == StatusOK }

// Err returns the application-level failure the response carries, or nil
// for a successful reply.
func (r *Response) Err() error {
	if r.Status == StatusError {
		return &ServerError{Message: r.Message}
	}
	return nil
}

// DocumentData decodes the payload as a single document. A missing payload
// yields a nil document.
func (r *Response) DocumentData() (Document, error) {
	if len(r.Data) == 0 {
		return nil, nil
	}
	var doc Document
	if err := json.Unmarshal(r.Data, &doc); err != nil {
		return nil, fmt.Errorf("docp: decode document payload: %w", err)
	}
	return doc, nil
}

// DocumentsData decodes the payload as a list of documents.
func (r *Response) DocumentsData() ([]Document, error) {
	if len(r.Data) == 0 {
		return nil, nil
	}
	var docs []Document
	if err := json.Unmarshal(r.Data, &docs); err != nil {
		return nil, fmt.Errorf("docp: decode documents payload: %w", err)
	}
	return docs, nil
}

// CountData decodes the payload of a count reply.
func (r *Response) CountData() (int, error) {
	var payload struct {
		Count int `json:"count"`
	}
	if len(r.Data) == 0 {
		return 0, fmt.Errorf("docp: count payload missing")
	}
	if err := json.Unmarshal(r.Data, &payload); err != nil {
		return 0, fmt.Errorf("docp: decode count payload: %w", err)
	}
	return payload.Count, nil
}
