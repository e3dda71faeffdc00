package client

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticktree/ticktree/internal/core/bt"
	"github.com/ticktree/ticktree/internal/server"
)

func newTestMonitor(t *testing.T) (*server.Server, *httptest.Server, *atomic.Int32) {
	t.Helper()
	var builds atomic.Int32
	srv := server.New(server.Config{}, func() (*bt.BehaviorTree, []bt.Sensor) {
		builds.Add(1)
		tree := bt.New("demo", bt.NewSequence("Root",
			bt.NewStubCondition("Check", true),
			bt.NewStubAction("Act", bt.StatusSuccess),
		))
		return tree, nil
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, &builds
}

func newTestClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	c := New(Config{
		ServerAddr:        ts.URL,
		ConnectTimeout:    2 * time.Second,
		ReconnectInterval: 20 * time.Millisecond,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitForViewer(t *testing.T, c *Client) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, err := c.State(context.Background())
		return err == nil && st.Viewers == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConnectAndStreamFrames(t *testing.T) {
	srv, ts, _ := newTestMonitor(t)
	c := newTestClient(t, ts)

	var handled atomic.Int32
	c.OnFrame(func(server.TickFrame) { handled.Add(1) })

	require.NoError(t, c.Connect(context.Background()))
	waitForViewer(t, c)

	srv.Agent().Step(context.Background())

	select {
	case frame := <-c.Frames():
		assert.Equal(t, "tick", frame.Type)
		assert.Equal(t, "demo", frame.Tree)
		assert.Equal(t, uint64(1), frame.Tick)
		assert.Equal(t, "SUCCESS", frame.State)
		require.Len(t, frame.Nodes, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
	assert.Equal(t, int32(1), handled.Load())
}

func TestConnectGuards(t *testing.T) {
	_, ts, _ := newTestMonitor(t)
	c := newTestClient(t, ts)

	require.NoError(t, c.Connect(context.Background()))
	assert.ErrorIs(t, c.Connect(context.Background()), ErrAlreadyConnected)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Connect(context.Background()), ErrClientClosed)
}

func TestAPIWrappers(t *testing.T) {
	srv, ts, builds := newTestMonitor(t)
	c := newTestClient(t, ts)
	ctx := context.Background()

	srv.Agent().Step(ctx)

	st, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "demo", st.Tree)
	assert.Equal(t, uint64(1), st.Tick)
	assert.Equal(t, "SUCCESS", st.State)

	snap, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.TickID)
	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, "Check", snap.Nodes[0].Name)

	rendered, err := c.RenderedTree(ctx)
	require.NoError(t, err)
	assert.Contains(t, rendered, "[>] Root [Sequence]")

	require.NoError(t, c.Restart(ctx))
	assert.Equal(t, int32(2), builds.Load())

	// no store configured
	_, err = c.History(ctx, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestReconnectAfterDrop(t *testing.T) {
	srv, ts, _ := newTestMonitor(t)
	c := newTestClient(t, ts)

	var reconnects atomic.Int32
	c.OnEvent(EventTypeReconnecting, func(Event) { reconnects.Add(1) })

	require.NoError(t, c.Connect(context.Background()))
	waitForViewer(t, c)

	ts.CloseClientConnections()

	require.Eventually(t, func() bool { return reconnects.Load() > 0 },
		2*time.Second, 10*time.Millisecond)
	waitForViewer(t, c)

	srv.Agent().Step(context.Background())
	select {
	case frame := <-c.Frames():
		assert.Equal(t, uint64(1), frame.Tick)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame after reconnect")
	}
}
