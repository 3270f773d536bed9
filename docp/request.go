package docp

import (
	"encoding/json"
	"fmt"
)

// Request is a single command line sent to the server. Fields an action does
// not use stay empty and are omitted from the wire object; the server
// ignores extras. ID is a pointer so upsert can distinguish "no id" from an
// explicit one.
type Request struct {
	Action     Action   `json:"action"`
	Collection string   `json:"collection,omitempty"`
	Data       Document `json:"data,omitempty"`
	Query      Document `json:"query,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	ID         *string  `json:"id,omitempty"`
}

// NewInsert stores doc as a new document in collection. The server assigns
// the id.
func NewInsert(collection string, doc Document) *Request {
	return &Request{Action: ActionInsert, Collection: collection, Data: doc}
}

// NewFind matches documents in collection against query. A nil or empty
// query matches everything. A positive limit caps the result size; zero
// means unlimited.
func NewFind(collection string, query Document, limit int) *Request {
	return &Request{Action: ActionFind, Collection: collection, Query: query, Limit: limit}
}

// NewUpdate applies fields to the document identified by id. Any "id" key
// inside fields is dropped before sending; the id argument is authoritative
// and the stored identifier is immutable.
func NewUpdate(collection, id string, fields Document) *Request {
	return &Request{Action: ActionUpdate, Collection: collection, ID: &id, Data: stripID(fields)}
}

// NewUpsert updates the document identified by id, or inserts doc when id is
// nil or unknown to the server. A nil id is sent as an explicit JSON null.
func NewUpsert(collection string, id *string, doc Document) *Request {
	return &Request{Action: ActionUpsert, Collection: collection, ID: id, Data: doc}
}

// NewDelete removes the document identified by id from collection.
func NewDelete(collection, id string) *Request {
	return &Request{Action: ActionDelete, Collection: collection, ID: &id}
}

// NewCount reports the number of documents in collection.
func NewCount(collection string) *Request {
	return &Request{Action: ActionCount, Collection: collection}
}

// NewSnapshot asks the server to persist its current state.
func NewSnapshot() *Request {
	return &Request{Action: ActionSnapshot}
}

// NewExit announces a clean disconnect. The server acknowledges it before
// hanging up its end.
func NewExit() *Request {
	return &Request{Action: ActionExit}
}

// requestWire is the encoded shape of a request. ID is raw so upsert can put
// an explicit null on the wire while every other action omits the field.
type requestWire struct {
	Action     Action          `json:"action"`
	Collection string          `json:"collection,omitempty"`
	Data       Document        `json:"data,omitempty"`
	Query      Document        `json:"query,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	ID         json.RawMessage `json:"id,omitempty"`
}

// Marshal encodes req as one complete protocol line, including the trailing
// delimiter.
func Marshal(req *Request) ([]byte, error) {
	w := requestWire{
		Action:     req.Action,
		Collection: req.Collection,
		Data:       req.Data,
		Query:      req.Query,
		Limit:      req.Limit,
	}
	switch {
	case req.ID != nil:
		id, err := json.Marshal(*req.ID)
		if err != nil {
			return nil, fmt.Errorf("docp: encode id: %w", err)
		}
		w.ID = id
	case req.Action == ActionUpsert:
		w.ID = json.RawMessage("null")
	}

	line, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("docp: encode request: %w", err)
	}
	return append(line, Delim), nil
}

// stripID copies fields without the id key. The caller's map is left alone.
func stripID(fields Document) Document {
	if fields == nil {
		return nil
	}
	out := make(Document, len(fields))
	for k, v := range fields {
		if k == IDKey {
			continue
		}
		out[k] = v
	}
	return out
}
