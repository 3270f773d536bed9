// Package docp defines the wire protocol of the document server: one JSON
// object per line, newline-terminated, one response line per request.
package docp

import (
	"errors"
	"fmt"
)

// Action names the operation carried in a request's "action" field.
type Action string

const (
	ActionInsert   Action = "insert"
	ActionFind     Action = "find"
	ActionDelete   Action = "delete"
	ActionCount    Action = "count"
	ActionUpdate   Action = "update"
	ActionUpsert   Action = "upsert"
	ActionSnapshot Action = "snapshot"
	ActionExit     Action = "exit"
)

// Response status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Delim terminates every request and response line. There is no length
// prefix; JSON string escaping keeps the delimiter out of message bodies.
const Delim = '\n'

// IDKey is the document field holding the server-assigned identifier.
const IDKey = "id"

// Document is a schemaless document as exchanged with the server.
type Document map[string]any

// ID returns the document's identifier, if it carries one.
func (d Document) ID() (string, bool) {
	id, ok := d[IDKey].(string)
	return id, ok
}

var (
	// ErrMalformedResponse marks a complete line that could not be decoded
	// as a response object. It is distinct from any connectivity failure.
	ErrMalformedResponse = errors.New("docp: malformed response")
)

// ServerError is a reply with status "error": the server handled the request
// and reported failure. It is an application-level outcome, not a transport
// fault, and is never raised by the correlation core itself.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("docp: server error: %s", e.Message)
}
