package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docdb-go/dbtest"
	"docdb-go/docnet"
	"docdb-go/docp"
)

func startServer(t *testing.T) *dbtest.Server {
	t.Helper()
	srv, err := dbtest.Start()
	require.NoError(t, err)
	SetDialer(srv.Dialer())
	t.Cleanup(func() {
		SetDialer(nil)
		srv.Close()
	})
	return srv
}

// resetFlags restores flag defaults. Flag variables are package globals, so
// values parsed by one Execute would otherwise leak into the next.
func resetFlags() {
	cfgFile, flagHost, outputFormat = "", "", ""
	flagTimeout = 10 * time.Second
	verbose = false
	findLimit = 0
	upsertID = ""
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	// Point --config at a path that does not exist so a developer machine's
	// real config never leaks into tests.
	args = append(args, "--config", filepath.Join(t.TempDir(), "absent.yaml"))

	buf := new(bytes.Buffer)
	root := RootCmd()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func insertDoc(t *testing.T, collection, doc string) docp.Document {
	t.Helper()
	out, err := run(t, "insert", collection, doc, "-o", "json")
	require.NoError(t, err)
	var stored docp.Document
	require.NoError(t, json.Unmarshal([]byte(out), &stored))
	return stored
}

func TestInsertPrintsStoredDocument(t *testing.T) {
	startServer(t)

	out, err := run(t, "insert", "users", `{"name":"ada","role":"eng"}`)
	require.NoError(t, err)
	require.Contains(t, out, "ID")
	require.Contains(t, out, "NAME")
	require.Contains(t, out, "ada")
}

func TestFindFiltersAndLimits(t *testing.T) {
	startServer(t)
	insertDoc(t, "jobs", `{"kind":"a","name":"one"}`)
	insertDoc(t, "jobs", `{"kind":"b","name":"two"}`)

	out, err := run(t, "find", "jobs", `{"kind":"a"}`)
	require.NoError(t, err)
	require.Contains(t, out, "one")
	require.NotContains(t, out, "two")

	out, err = run(t, "find", "jobs", "--limit", "1")
	require.NoError(t, err)
	require.Contains(t, out, "one")
	require.NotContains(t, out, "two")

	out, err = run(t, "find", "ghosts")
	require.NoError(t, err)
	require.Contains(t, out, "No documents found.")
}

func TestFindJSONOutput(t *testing.T) {
	startServer(t)
	insertDoc(t, "users", `{"name":"ada"}`)

	out, err := run(t, "find", "users", "-o", "json")
	require.NoError(t, err)

	var docs []docp.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	require.Equal(t, "ada", docs[0]["name"])
}

func TestCount(t *testing.T) {
	startServer(t)
	insertDoc(t, "users", `{"name":"ada"}`)
	insertDoc(t, "users", `{"name":"grace"}`)

	out, err := run(t, "count", "users")
	require.NoError(t, err)
	require.Contains(t, out, "COUNT")
	require.Contains(t, out, "2")
}

func TestUpdateAndDelete(t *testing.T) {
	startServer(t)
	stored := insertDoc(t, "users", `{"name":"ada"}`)
	id, ok := stored.ID()
	require.True(t, ok)

	out, err := run(t, "update", "users", id, `{"role":"lead"}`)
	require.NoError(t, err)
	require.Contains(t, out, "lead")

	out, err = run(t, "delete", "users", id)
	require.NoError(t, err)
	require.Contains(t, out, "Deleted")

	out, err = run(t, "find", "users")
	require.NoError(t, err)
	require.Contains(t, out, "No documents found.")
}

func TestDeleteMissingDocument(t *testing.T) {
	startServer(t)

	_, err := run(t, "delete", "users", "nope")
	require.ErrorContains(t, err, "server error")
}

func TestUpsertWithID(t *testing.T) {
	startServer(t)

	out, err := run(t, "upsert", "users", `{"name":"grace"}`, "--id", "chosen", "-o", "json")
	require.NoError(t, err)

	var doc docp.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	id, _ := doc.ID()
	require.Equal(t, "chosen", id)

	out, err = run(t, "upsert", "users", `{"role":"lead"}`, "--id", "chosen", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, "grace", doc["name"], "second upsert must merge, not replace")
	require.Equal(t, "lead", doc["role"])
}

func TestSnapshot(t *testing.T) {
	srv := startServer(t)

	out, err := run(t, "snapshot")
	require.NoError(t, err)
	require.Contains(t, out, "Snapshot written.")
	require.Equal(t, 1, srv.Snapshots())
}

func TestInvalidDocumentJSON(t *testing.T) {
	_, err := run(t, "insert", "users", `{broken`)
	require.ErrorContains(t, err, "invalid document JSON")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "docdbctl version")
	require.Contains(t, out, ":8191")
}

func TestServerUnreachable(t *testing.T) {
	// Grab a port and free it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddr := ln.Addr().String()
	require.NoError(t, ln.Close())

	SetDialer(func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, deadAddr)
	})
	t.Cleanup(func() { SetDialer(nil) })

	_, err = run(t, "count", "users")
	require.ErrorIs(t, err, docnet.ErrServerUnreachable)
}
