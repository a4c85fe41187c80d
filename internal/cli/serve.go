package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/michaelzixizhou/codag/pkg/config"
	codagerrors "github.com/michaelzixizhou/codag/pkg/errors"
	"github.com/michaelzixizhou/codag/pkg/graph"
	"github.com/michaelzixizhou/codag/pkg/observability"
	"github.com/michaelzixizhou/codag/pkg/pipeline"
	"github.com/michaelzixizhou/codag/pkg/store"
)

// serveCommand creates the serve command for the HTTP layout API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over an HTTP API",
		Long: `Serve layouts over an HTTP API.

Endpoints:
  POST /api/v1/layout        compute a layout synchronously from a snapshot body
  POST /api/v1/graph         submit a snapshot for debounced live recomputation
  GET  /api/v1/layout/latest fetch the most recently computed layout
  GET  /api/v1/layout/{hash} fetch the layout for a snapshot hash
  GET  /healthz              liveness probe

Layouts are persisted in MongoDB when store.mongo_url is configured, and
in process memory otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8972)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr string, noCache bool) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	opts := cfg.PipelineOptions()
	opts.Logger = c.Logger

	runner, cacheStore, err := c.newRunner(cmd, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer cacheStore.Close()

	layouts, err := newLayoutStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer layouts.Close(ctx)

	live := pipeline.NewLive(ctx, runner, opts)
	defer live.Close()

	srv := &layoutServer{
		runner:  runner,
		live:    live,
		layouts: layouts,
		opts:    opts,
		logger:  c.Logger,
	}

	// Persist every applied live update so GET endpoints see it.
	go func() {
		for up := range live.Updates() {
			rec := &store.Record{Hash: up.Result.SnapshotHash, Layout: up.Result.Layout}
			if err := layouts.Save(ctx, rec); err != nil {
				c.Logger.Error("persist live layout", "err", err)
				continue
			}
			observability.Server().OnUpdate(ctx, up.Mode, up.Result.Stats.NodeCount)
			c.Logger.Info("live layout applied",
				"mode", up.Mode,
				"hash", up.Result.SnapshotHash[:12],
				"groups", up.Result.Stats.GroupCount)
		}
	}()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newLayoutStore(cmd *cobra.Command, cfg config.Config) (store.Store, error) {
	if cfg.Store.MongoURL != "" {
		return store.NewMongoStore(cmd.Context(), cfg.Store.MongoURL, cfg.Store.Database)
	}
	return store.NewMemoryStore(), nil
}

// layoutServer holds the HTTP handler state.
type layoutServer struct {
	runner  *pipeline.Runner
	live    *pipeline.Live
	layouts store.Store
	opts    pipeline.Options
	logger  *log.Logger
}

func (s *layoutServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggerMiddleware)
	r.Use(hooksMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/graph", s.handleGraph)
		r.Get("/layout/latest", s.handleLatest)
		r.Get("/layout/{hash}", s.handleByHash)
	})

	return r
}

// layoutResponse is the POST /layout response body.
type layoutResponse struct {
	RunID        string               `json:"run_id"`
	SnapshotHash string               `json:"snapshot_hash"`
	Layout       *graph.Layout        `json:"layout"`
	Warnings     codagerrors.Warnings `json:"warnings,omitempty"`
	CacheHit     bool                 `json:"cache_hit"`
}

func (s *layoutServer) handleLayout(w http.ResponseWriter, r *http.Request) {
	g, err := graph.ReadGraph(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	prog := newProgress(loggerFromContext(r.Context()))
	result, err := s.runner.Execute(r.Context(), g, s.opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	rec := &store.Record{Hash: result.SnapshotHash, Layout: result.Layout}
	if err := s.layouts.Save(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	prog.done(fmt.Sprintf("Arranged %d workflows", result.Stats.GroupCount))

	writeJSON(w, http.StatusOK, layoutResponse{
		RunID:        result.RunID,
		SnapshotHash: result.SnapshotHash,
		Layout:       result.Layout,
		Warnings:     result.Warnings,
		CacheHit:     result.CacheInfo.LayoutHit,
	})
}

func (s *layoutServer) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, err := graph.ReadGraph(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.live.Submit(g)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *layoutServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.layouts.Latest(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *layoutServer) handleByHash(w http.ResponseWriter, r *http.Request) {
	rec, err := s.layouts.Get(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// loggerMiddleware attaches the CLI logger to every request context.
func (s *layoutServer) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(withLogger(r.Context(), s.logger)))
	})
}

// hooksMiddleware reports request lifecycle events to the observability
// registry.
func hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		observability.Server().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"code":  string(codagerrors.GetCode(err)),
		"error": err.Error(),
	})
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(err error) int {
	switch codagerrors.GetCode(err) {
	case codagerrors.ErrCodeInvalidInput, codagerrors.ErrCodeInvalidGraph, codagerrors.ErrCodeInvalidSnapshot:
		return http.StatusBadRequest
	case codagerrors.ErrCodeNotFound, codagerrors.ErrCodeLayoutNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
