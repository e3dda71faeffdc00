package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticktree/ticktree/internal/core/bt"
	"github.com/ticktree/ticktree/internal/core/storage"
)

func demoBuild() (*bt.BehaviorTree, []bt.Sensor) {
	tree := bt.New("demo", bt.NewSequence("Root",
		bt.NewStubCondition("Check", true),
		bt.NewStubAction("Act", bt.StatusSuccess),
	))
	return tree, nil
}

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server, *atomic.Int32) {
	t.Helper()
	var builds atomic.Int32
	srv := New(cfg, func() (*bt.BehaviorTree, []bt.Sensor) {
		builds.Add(1)
		return demoBuild()
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, &builds
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestIndexServed(t *testing.T) {
	_, ts, _ := newTestServer(t, Config{})

	code, body := getBody(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "ticktree monitor")

	code, _ = getBody(t, ts.URL+"/nothing-here")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSnapshotEndpoint(t *testing.T) {
	srv, ts, _ := newTestServer(t, Config{})

	code, body := getBody(t, ts.URL+"/api/snapshot")
	require.Equal(t, http.StatusOK, code)
	var empty bt.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &empty))
	assert.Equal(t, uint64(0), empty.TickID)
	assert.Empty(t, empty.Nodes)

	srv.Agent().Step(context.Background())

	code, body = getBody(t, ts.URL+"/api/snapshot")
	require.Equal(t, http.StatusOK, code)
	var snap bt.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	assert.Equal(t, uint64(1), snap.TickID)
	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, "Check", snap.Nodes[0].Name)
}

func TestStateEndpoint(t *testing.T) {
	srv, ts, _ := newTestServer(t, Config{})
	srv.Agent().Tree().Blackboard().Set("stub:Check", true)
	srv.Agent().Step(context.Background())

	code, body := getBody(t, ts.URL+"/api/state")
	require.Equal(t, http.StatusOK, code)

	var st StateResponse
	require.NoError(t, json.Unmarshal([]byte(body), &st))
	assert.Equal(t, "demo", st.Tree)
	assert.Equal(t, uint64(1), st.Tick)
	assert.Equal(t, "SUCCESS", st.State)
	assert.Equal(t, 0, st.Viewers)
	assert.Equal(t, true, st.Blackboard["stub:Check"])
}

func TestTreeEndpoint(t *testing.T) {
	srv, ts, _ := newTestServer(t, Config{})
	srv.Agent().Step(context.Background())

	code, body := getBody(t, ts.URL+"/api/tree")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.HasPrefix(body, "[>] Root [Sequence] ✔"))
	assert.Contains(t, body, "└── [A] Act [Action] ✔")
}

func TestRestartEndpoint(t *testing.T) {
	srv, ts, builds := newTestServer(t, Config{})
	require.Equal(t, int32(1), builds.Load())
	firstID := srv.Agent().Tree().ID()

	code, _ := getBody(t, ts.URL+"/restart")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	resp, err := http.Post(ts.URL+"/restart", "", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, int32(2), builds.Load())
	assert.NotEqual(t, firstID, srv.Agent().Tree().ID())
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("disabled without store", func(t *testing.T) {
		_, ts, _ := newTestServer(t, Config{})
		code, _ := getBody(t, ts.URL+"/api/history")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("returns persisted ticks", func(t *testing.T) {
		store, err := storage.Open(filepath.Join(t.TempDir(), "ticks.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })

		srv, ts, _ := newTestServer(t, Config{Store: store})
		srv.Agent().Step(context.Background())
		srv.Agent().Step(context.Background())

		code, body := getBody(t, ts.URL+"/api/history?limit=1")
		require.Equal(t, http.StatusOK, code)
		var recs []storage.TickRecord
		require.NoError(t, json.Unmarshal([]byte(body), &recs))
		require.Len(t, recs, 1)
		assert.Equal(t, uint64(2), recs[0].TickID)
		assert.Equal(t, "SUCCESS", recs[0].State)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv, ts, _ := newTestServer(t, Config{})
	srv.Agent().Step(context.Background())

	code, body := getBody(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "ticktree_ticks_total")
	assert.Contains(t, body, `state="SUCCESS"`)
}

func TestWebSocketStreamsFramesAndRestarts(t *testing.T) {
	srv, ts, builds := newTestServer(t, Config{})

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	// Wait for the hub registration before producing a frame.
	require.Eventually(t, func() bool { return srv.hub.count() == 1 },
		time.Second, 5*time.Millisecond)

	srv.Agent().Step(context.Background())

	var frame TickFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "tick", frame.Type)
	assert.Equal(t, "demo", frame.Tree)
	assert.Equal(t, uint64(1), frame.Tick)
	assert.Equal(t, "SUCCESS", frame.State)
	require.Len(t, frame.Nodes, 3)

	// A "restart" text message rebuilds the tree.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("restart")))
	require.Eventually(t, func() bool { return builds.Load() == 2 },
		time.Second, 5*time.Millisecond)
}
