// Package dbtest runs an in-process document server speaking the
// line-delimited JSON protocol on an ephemeral loopback port. It backs the
// driver's tests and benchmarks the way a stub upstream backs HTTP client
// tests: documents live in memory and vanish with the server.
package dbtest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"docdb-go/docnet"
	"docdb-go/docp"
)

// collection keeps documents in insertion order so find results are stable.
type collection struct {
	docs  map[string]docp.Document
	order []string
}

// Server is a stub document server. Start listens on an ephemeral port;
// Dialer routes a session to it despite the protocol's fixed port.
type Server struct {
	ln net.Listener

	mu        sync.Mutex
	colls     map[string]*collection
	snapshots int
	conns     map[net.Conn]struct{}
	closed    bool

	// Intercept, when non-nil, sees every decoded request before normal
	// handling. Returning ok=true short-circuits: raw is written to the
	// client verbatim, so malformed, blank, or multi-line output is fair
	// game for failure injection. Set it before any client connects.
	Intercept func(req *docp.Request) (raw string, ok bool)
}

// Start listens and begins accepting connections.
func Start() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("dbtest: listen: %w", err)
	}
	srv := &Server{
		ln:    ln,
		colls: make(map[string]*collection),
		conns: make(map[net.Conn]struct{}),
	}
	go srv.acceptLoop()
	return srv, nil
}

// Addr returns the listener's host:port.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Dialer returns a DialFunc that connects to this server, ignoring the
// fixed-port address a session would otherwise target.
func (s *Server) Dialer() docnet.DialFunc {
	return func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, s.ln.Addr().String())
	}
}

// Close stops the listener and severs every open connection.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.ln.Close()
	for _, c := range conns {
		c.Close()
	}
}

// DropConnections severs every open connection but keeps listening. It
// simulates a server crash mid-conversation.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// Snapshots reports how many snapshot requests the server has handled.
func (s *Server) Snapshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots
}

// Get returns the stored document with the given id, if present.
func (s *Server) Get(collectionName, id string) (docp.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.colls[collectionName]
	if !ok {
		return nil, false
	}
	doc, ok := coll.docs[id]
	return doc, ok
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	w := bufio.NewWriter(conn)
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var req docp.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			if s.reply(w, errorResponse("bad request: "+err.Error())) != nil {
				return
			}
			continue
		}

		if s.Intercept != nil {
			if raw, ok := s.Intercept(&req); ok {
				if _, err := w.WriteString(raw); err != nil {
					return
				}
				if w.Flush() != nil {
					return
				}
				continue
			}
		}

		if s.reply(w, s.handle(&req)) != nil {
			return
		}
		if req.Action == docp.ActionExit {
			// Goodbye has been flushed; hang up our end.
			return
		}
	}
}

func (s *Server) reply(w *bufio.Writer, resp *docp.Response) error {
	line, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(line, docp.Delim)); err != nil {
		return err
	}
	return w.Flush()
}

func (s *Server) handle(req *docp.Request) *docp.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Action {
	case docp.ActionInsert:
		return s.insertLocked(req)
	case docp.ActionFind:
		return s.findLocked(req)
	case docp.ActionUpdate:
		return s.updateLocked(req)
	case docp.ActionUpsert:
		return s.upsertLocked(req)
	case docp.ActionDelete:
		return s.deleteLocked(req)
	case docp.ActionCount:
		coll := s.collLocked(req.Collection)
		return okResponse("counted", map[string]int{"count": len(coll.docs)})
	case docp.ActionSnapshot:
		s.snapshots++
		return okResponse("snapshot written", nil)
	case docp.ActionExit:
		return okResponse("bye", nil)
	default:
		return errorResponse(fmt.Sprintf("unknown action %q", req.Action))
	}
}

func (s *Server) insertLocked(req *docp.Request) *docp.Response {
	coll := s.collLocked(req.Collection)
	doc := cloneDoc(req.Data)
	id := uuid.NewString()
	doc[docp.IDKey] = id
	coll.docs[id] = doc
	coll.order = append(coll.order, id)
	return okResponse("inserted", doc)
}

func (s *Server) findLocked(req *docp.Request) *docp.Response {
	coll := s.collLocked(req.Collection)
	docs := make([]docp.Document, 0, len(coll.order))
	for _, id := range coll.order {
		doc := coll.docs[id]
		if !matches(doc, req.Query) {
			continue
		}
		docs = append(docs, doc)
		if req.Limit > 0 && len(docs) == req.Limit {
			break
		}
	}
	return okResponse("found", docs)
}

func (s *Server) updateLocked(req *docp.Request) *docp.Response {
	if req.ID == nil {
		return errorResponse("update requires an id")
	}
	coll := s.collLocked(req.Collection)
	doc, ok := coll.docs[*req.ID]
	if !ok {
		return errorResponse("no such document")
	}
	mergeFields(doc, req.Data)
	return okResponse("updated", doc)
}

func (s *Server) upsertLocked(req *docp.Request) *docp.Response {
	coll := s.collLocked(req.Collection)
	if req.ID != nil {
		if doc, ok := coll.docs[*req.ID]; ok {
			mergeFields(doc, req.Data)
			return okResponse("updated", doc)
		}
	}

	doc := cloneDoc(req.Data)
	id := uuid.NewString()
	if req.ID != nil {
		id = *req.ID
	}
	doc[docp.IDKey] = id
	coll.docs[id] = doc
	coll.order = append(coll.order, id)
	return okResponse("inserted", doc)
}

func (s *Server) deleteLocked(req *docp.Request) *docp.Response {
	if req.ID == nil {
		return errorResponse("delete requires an id")
	}
	coll := s.collLocked(req.Collection)
	if _, ok := coll.docs[*req.ID]; !ok {
		return errorResponse("no such document")
	}
	delete(coll.docs, *req.ID)
	for i, id := range coll.order {
		if id == *req.ID {
			coll.order = append(coll.order[:i], coll.order[i+1:]...)
			break
		}
	}
	return okResponse("deleted", nil)
}

func (s *Server) collLocked(name string) *collection {
	coll, ok := s.colls[name]
	if !ok {
		coll = &collection{docs: make(map[string]docp.Document)}
		s.colls[name] = coll
	}
	return coll
}

// matches is plain equality on every query field. Values compare in their
// decoded JSON forms, so numbers are float64 on both sides.
func matches(doc, query docp.Document) bool {
	for k, want := range query {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

// mergeFields applies fields onto doc. The stored id is immutable.
func mergeFields(doc, fields docp.Document) {
	for k, v := range fields {
		if k == docp.IDKey {
			continue
		}
		doc[k] = v
	}
}

func cloneDoc(doc docp.Document) docp.Document {
	out := make(docp.Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func okResponse(message string, data any) *docp.Response {
	resp := &docp.Response{Status: docp.StatusOK, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return errorResponse("encode payload: " + err.Error())
		}
		resp.Data = raw
	}
	return resp
}

func errorResponse(message string) *docp.Response {
	return &docp.Response{Status: docp.StatusError, Message: message}
}
