package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duckdev/wp-queue-process/internal/runtime"
	queuesvc "github.com/duckdev/wp-queue-process/internal/services/queues"
	logpkg "github.com/duckdev/wp-queue-process/pkg/log"
)

// Server is the JSON gateway over the queue service. It is also the target
// of the loopback run-now trigger.
type Server struct {
	rt     *runtime.Runtime
	svc    *queuesvc.Service
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New builds the server. gatherer exposes /metrics when non-nil.
func New(rt *runtime.Runtime, svc *queuesvc.Service, gatherer prometheus.Gatherer, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = rt.Logger()
	}
	mux := http.NewServeMux()
	s := &Server{rt: rt, svc: svc, logger: logger.With(logpkg.Component("http")), srv: &http.Server{Handler: cors(mux)}}
	mux.HandleFunc("/v1/healthz", s.handleHealth)
	mux.HandleFunc("/v1/queue/push", s.handlePush)
	mux.HandleFunc("/v1/queue/run", s.handleRun)
	mux.HandleFunc("/v1/queue/status", s.handleStatus)
	mux.HandleFunc("/v1/queue/cancel", s.handleCancel)
	mux.HandleFunc("/v1/queue/batches", s.handleBatches)
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return s
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the listener.
func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func parseLimit(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return 0
}

func parseBool(s string) bool {
	return s == "true" || s == "1"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

type pushReq struct {
	Items    [][]byte `json:"items"`
	Group    string   `json:"group"`
	Dispatch bool     `json:"dispatch"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req pushReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.svc.PushItems(r.Context(), req.Items, req.Group, req.Dispatch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleRun is the loopback trigger target. The triggering side never waits
// for the run, so processing happens on a detached context; wait=1 runs
// synchronously instead.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if parseBool(r.URL.Query().Get("wait")) {
		if err := s.svc.Run(context.Background()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]string{"status": "done"})
		return
	}
	go func() {
		if err := s.svc.Run(context.Background()); err != nil {
			s.logger.Error("triggered run failed", logpkg.Err(err))
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read queue state")
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := s.svc.Cancel(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to cancel")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	limit := parseLimit(r.URL.Query().Get("limit"))
	infos, err := s.svc.ListBatches(r.Context(), filter, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]any{"batches": infos})
}
