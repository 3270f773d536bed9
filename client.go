package docdb_go

import (
	"context"
	"errors"
	"io"

	"go.uber.org/multierr"

	"docdb-go/docnet"
	"docdb-go/docp"
)

// Client is the typed document-store API over a single docnet session.
// Methods are safe for concurrent use; replies pair with requests by send
// order on the shared connection.
type Client struct {
	sess *docnet.Session
}

// Dial connects to the document server on host and returns a ready client.
// An empty host means loopback. The port is fixed by the protocol.
func Dial(ctx context.Context, host string, opts ...docnet.Option) (*Client, error) {
	sess := docnet.NewSession(host, opts...)
	if err := sess.Connect(ctx); err != nil {
		return nil, err
	}
	return &Client{sess: sess}, nil
}

// Session exposes the underlying transport, mostly for state inspection.
func (c *Client) Session() *docnet.Session {
	return c.sess
}

func (c *Client) call(ctx context.Context, req *docp.Request) (*docp.Response, error) {
	resp, err := c.sess.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

// Insert stores doc in collection and returns it as stored, including the
// server-assigned id.
func (c *Client) Insert(ctx context.Context, collection string, doc docp.Document) (docp.Document, error) {
	resp, err := c.call(ctx, docp.NewInsert(collection, doc))
	if err != nil {
		return nil, err
	}
	return resp.DocumentData()
}

// Find returns the documents in collection matching query. A nil query
// matches everything; a positive limit caps the result size.
func (c *Client) Find(ctx context.Context, collection string, query docp.Document, limit int) ([]docp.Document, error) {
	resp, err := c.call(ctx, docp.NewFind(collection, query, limit))
	if err != nil {
		return nil, err
	}
	return resp.DocumentsData()
}

// FindAll returns every document in collection.
func (c *Client) FindAll(ctx context.Context, collection string) ([]docp.Document, error) {
	return c.Find(ctx, collection, nil, 0)
}

// Update applies fields to the document with the given id and returns the
// document as stored afterwards. The id itself cannot be changed.
func (c *Client) Update(ctx context.Context, collection, id string, fields docp.Document) (docp.Document, error) {
	resp, err := c.call(ctx, docp.NewUpdate(collection, id, fields))
	if err != nil {
		return nil, err
	}
	return resp.DocumentData()
}

// Upsert updates the document with the given id, or inserts doc when id is
// nil or unknown to the server.
func (c *Client) Upsert(ctx context.Context, collection string, id *string, doc docp.Document) (docp.Document, error) {
	resp, err := c.call(ctx, docp.NewUpsert(collection, id, doc))
	if err != nil {
		return nil, err
	}
	return resp.DocumentData()
}

// Delete removes the document with the given id.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	_, err := c.call(ctx, docp.NewDelete(collection, id))
	return err
}

// Count reports how many documents collection holds.
func (c *Client) Count(ctx context.Context, collection string) (int, error) {
	resp, err := c.call(ctx, docp.NewCount(collection))
	if err != nil {
		return 0, err
	}
	return resp.CountData()
}

// Snapshot asks the server to persist its current state.
func (c *Client) Snapshot(ctx context.Context) error {
	_, err := c.call(ctx, docp.NewSnapshot())
	return err
}

// Close says goodbye and releases the connection: it sends exit, waits for
// the acknowledgement, then tears the session down. A server that hangs up
// right after acking, or that is already gone, still counts as a clean
// close.
func (c *Client) Close(ctx context.Context) error {
	_, err := c.sess.Call(ctx, docp.NewExit())
	switch {
	case err == nil:
	case errors.Is(err, io.EOF),
		errors.Is(err, docnet.ErrConnClosed),
		errors.Is(err, docnet.ErrNotConnected):
		err = nil
	}
	return multierr.Append(err, c.sess.Close())
}
