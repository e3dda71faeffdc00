package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ticktree/ticktree/internal/core/bt"
	"github.com/ticktree/ticktree/internal/core/observability/log"
	"github.com/ticktree/ticktree/internal/core/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler returns the full monitor route set.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/restart", s.handleRestart)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/tree", s.handleTree)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.Handle("/metrics", s.metrics.handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Err(err))
		return
	}
	cl := newWSClient(conn)
	s.hub.add(cl)
	s.metrics.wsClients.Inc()
	s.log.Debug("viewer connected", log.String("client", cl.id))

	defer func() {
		s.hub.remove(cl)
		s.metrics.wsClients.Dec()
		_ = conn.Close()
		s.log.Debug("viewer disconnected", log.String("client", cl.id))
	}()

	go func() {
		defer s.hub.remove(cl)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(msg) == "restart" {
				s.Restart()
			}
		}
	}()

	for b := range cl.send {
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.Restart()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.agent.Tree().Snapshot()
	if snap == nil {
		writeJSON(w, http.StatusOK, bt.Snapshot{Nodes: []bt.NodeSnapshot{}})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(bt.RenderTree(s.agent.Tree().Root())))
}

// StateResponse is the /api/state payload.
type StateResponse struct {
	TreeID     string         `json:"tree_id"`
	Tree       string         `json:"tree"`
	Tick       uint64         `json:"tick"`
	State      string         `json:"state"`
	DurationMS float64        `json:"duration_ms"`
	Viewers    int            `json:"viewers"`
	Blackboard map[string]any `json:"blackboard"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	tree := s.agent.Tree()
	rep := s.last()
	state := ""
	if rep.TickID > 0 {
		state = rep.State.String()
	}
	writeJSON(w, http.StatusOK, StateResponse{
		TreeID:     tree.ID(),
		Tree:       tree.Name(),
		Tick:       tree.TickID(),
		State:      state,
		DurationMS: float64(rep.Duration) / float64(time.Millisecond),
		Viewers:    s.hub.count(),
		Blackboard: tree.Blackboard().Dump(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		http.Error(w, "history not configured", http.StatusNotFound)
		return
	}
	limit := s.cfg.HistoryLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	recs, err := s.cfg.Store.Recent(r.Context(), r.URL.Query().Get("tree"), limit)
	if err != nil {
		s.log.Error("history query failed", log.Err(err))
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []storage.TickRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}
