package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ticktree/ticktree/internal/core/bt"
	"github.com/ticktree/ticktree/internal/core/observability/log"
	"github.com/ticktree/ticktree/internal/core/storage"
)

// BuildFunc produces a fresh tree plus its sensors. The server calls it once
// at construction and again on every restart request.
type BuildFunc func() (*bt.BehaviorTree, []bt.Sensor)

// Config for the monitor server. Store and Log are optional; a nil Store
// disables the history API and a nil Log means silence.
type Config struct {
	Addr         string
	TickInterval time.Duration
	HistoryLimit int
	Store        *storage.Store
	Log          log.Log
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 100 * time.Millisecond
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 200
	}
	if c.Log == nil {
		c.Log = log.Nop()
	}
}

// Server ticks one agent continuously and serves its live state over HTTP
// and websockets.
type Server struct {
	cfg     Config
	log     log.Log
	build   BuildFunc
	agent   *bt.Agent
	hub     *wsHub
	metrics *metrics
	httpSrv *http.Server

	mu         sync.RWMutex
	running    bool
	lastReport bt.TickReport
}

func New(cfg Config, build BuildFunc) *Server {
	cfg.applyDefaults()
	s := &Server{
		cfg:     cfg,
		log:     cfg.Log,
		build:   build,
		hub:     newHub(),
		metrics: newMetrics(),
	}

	tree, sensors := build()
	s.agent = bt.NewAgent(tree,
		bt.WithSensors(sensors...),
		bt.WithInterval(cfg.TickInterval),
		bt.WithLogger(cfg.Log),
		bt.WithOnTick(s.onTick),
	)

	s.httpSrv = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.Handler(),
	}
	return s
}

// Agent returns the driven agent, mainly for tests and embedding callers.
func (s *Server) Agent() *bt.Agent { return s.agent }

// Start runs the tick loop and the HTTP listener until ctx is canceled, then
// shuts both down. It blocks for the server's whole lifetime.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	s.log.Info("monitor listening",
		log.String("addr", s.cfg.Addr),
		log.String("tree", s.agent.Tree().Name()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.agent.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.shutdown()
	})

	err := g.Wait()
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop shuts the server down from outside the Start context.
func (s *Server) Stop() error {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if !running {
		return ErrServerNotRunning
	}
	return s.shutdown()
}

func (s *Server) shutdown() error {
	s.hub.closeAll()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

// Restart swaps in a freshly built tree and sensor set. Viewers keep their
// connections; the next frame simply starts from tick one.
func (s *Server) Restart() {
	tree, sensors := s.build()
	if sensors == nil {
		sensors = []bt.Sensor{}
	}
	s.agent.Swap(tree, sensors...)
	s.metrics.restarts.Inc()
	s.log.Info("tree restarted", log.String("tree", tree.Name()))
}

// TickFrame is the websocket payload published after every tick.
type TickFrame struct {
	Type       string            `json:"type"`
	TreeID     string            `json:"tree_id"`
	Tree       string            `json:"tree"`
	Tick       uint64            `json:"tick"`
	State      string            `json:"state"`
	DurationMS float64           `json:"duration_ms"`
	Nodes      []bt.NodeSnapshot `json:"nodes"`
}

func newTickFrame(rep bt.TickReport) TickFrame {
	frame := TickFrame{
		Type:       "tick",
		TreeID:     rep.TreeID,
		Tree:       rep.TreeName,
		Tick:       rep.TickID,
		State:      rep.State.String(),
		DurationMS: float64(rep.Duration) / float64(time.Millisecond),
	}
	if rep.Snapshot != nil {
		frame.Nodes = rep.Snapshot.Nodes
	}
	return frame
}

func (s *Server) onTick(rep bt.TickReport) {
	s.mu.Lock()
	s.lastReport = rep
	s.mu.Unlock()

	s.metrics.observeTick(rep)

	b, err := json.Marshal(newTickFrame(rep))
	if err != nil {
		s.log.Error("failed to encode tick frame", log.Err(err))
		return
	}
	s.hub.broadcast(b)

	if s.cfg.Store != nil {
		if err := s.cfg.Store.Append(context.Background(), storage.NewRecord(rep)); err != nil {
			s.log.Warn("failed to persist tick", log.Err(err))
		}
	}
}

func (s *Server) last() bt.TickReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReport
}
