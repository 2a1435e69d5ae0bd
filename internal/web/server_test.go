package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forumlabs/moot/internal/db"
)

func newTestServer(t *testing.T) (*httptest.Server, *db.Store) {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "moot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	store := db.NewStore(conn)
	srv, err := NewServer(store)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func TestIndexListsDebates(t *testing.T) {
	ts, store := newTestServer(t)
	require.NoError(t, store.CreateDebate(context.Background(), "d1", "sharding strategy", 2))

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "sharding strategy")
}

func TestDebatePageShowsContributions(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.CreateDebate(ctx, "d1", "p", 1))
	require.NoError(t, store.InsertContribution(ctx, db.ContributionRecord{
		DebateID: "d1", AgentID: "athena", AgentRole: "architect", Round: 1, Phase: "proposal", Content: "shard by tenant",
	}))

	resp, err := http.Get(ts.URL + "/debates/d1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, "shard by tenant")
	assert.Contains(t, body, "athena")
}

func TestEventsEndpointReturnsJournal(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.CreateDebate(ctx, "d1", "p", 1))
	require.NoError(t, store.AppendEvent(ctx, "d1", 1, "debate-started", `{"x":1}`))

	resp, err := http.Get(ts.URL + "/debates/d1/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var events []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, "debate-started", events[0]["kind"])
}

func TestUnknownDebateIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/debates/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/debates/nope/events")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
