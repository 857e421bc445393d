// ABOUTME: HTTP server for easyshop-api: route table, lifecycle, and health endpoints
// ABOUTME: The document store, token verifier and content generator are injected

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/easyshop/easyshop-api/internal/auth"
	"github.com/easyshop/easyshop-api/internal/content"
	"github.com/easyshop/easyshop-api/internal/llm"
	"github.com/easyshop/easyshop-api/internal/store"
)

// readyTimeout bounds the store ping behind /health/ready
const readyTimeout = 2 * time.Second

// ContentGenerator produces marketing content; content.Generator implements it
type ContentGenerator interface {
	StoreContent(ctx context.Context, brief content.StoreBrief) (*content.StoreContent, error)
	ProductDescription(ctx context.Context, brief content.ProductBrief) (content.Unwrapped, error)
	Probe(ctx context.Context) (llm.Result, error)
}

// Options configures a Server
type Options struct {
	// Addr is the listen address used by Run
	Addr string
	// AppName is reported by the root endpoint
	AppName string

	Store     store.DocumentStore
	Verifier  auth.TokenVerifier
	Generator ContentGenerator
	Logger    *slog.Logger

	// Now overrides the clock; nil means store.Now
	Now func() time.Time
}

// Server serves the REST API
type Server struct {
	addr       string
	appName    string
	store      store.DocumentStore
	verifier   auth.TokenVerifier
	generator  ContentGenerator
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if opts.Verifier == nil {
		return nil, errors.New("api: token verifier is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("api: content generator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = store.Now
	}

	s := &Server{
		addr:      opts.Addr,
		appName:   opts.AppName,
		store:     opts.Store,
		verifier:  opts.Verifier,
		generator: opts.Generator,
		logger:    logger.With("component", "api"),
		now:       now,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = requestLogger(s.logger, mux)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	// Public storefront
	mux.HandleFunc("GET /api/public/stores/{id}/pages/{slug}", s.handlePublicPage)
	mux.HandleFunc("POST /api/ai/test-generation", s.handleTestGeneration)

	authed := auth.HTTPAuthMiddleware(s.verifier, s.logger)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authed(h))
	}

	handle("POST /api/stores", s.handleCreateStore)
	handle("GET /api/stores", s.handleListStores)
	handle("GET /api/stores/{id}", s.handleGetStore)
	handle("PUT /api/stores/{id}", s.handleUpdateStore)
	handle("PATCH /api/stores/{id}", s.handleUpdateStore)
	handle("DELETE /api/stores/{id}", s.handleDeleteStore)

	handle("POST /api/products", s.handleCreateProduct)
	handle("GET /api/stores/{id}/products", s.handleListProducts)
	handle("GET /api/products/{id}", s.handleGetProduct)
	handle("PUT /api/products/{id}", s.handleUpdateProduct)
	handle("PATCH /api/products/{id}", s.handleUpdateProduct)
	handle("DELETE /api/products/{id}", s.handleDeleteProduct)

	handle("POST /api/pages", s.handleCreatePage)
	handle("GET /api/stores/{id}/pages", s.handleListPages)
	handle("GET /api/pages/{id}", s.handleGetPage)
	handle("PUT /api/pages/{id}", s.handleUpdatePage)
	handle("PATCH /api/pages/{id}", s.handleUpdatePage)
	handle("DELETE /api/pages/{id}", s.handleDeletePage)

	handle("POST /api/ai/generate-store-content", s.handleGenerateStoreContent)
	handle("POST /api/ai/generate-product-description", s.handleGenerateProductDescription)
}

// Handler returns the root handler, including middleware
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured address and blocks until ctx is canceled or
// the server fails. Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	// the original context is already canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// Shutdown stops the HTTP server and closes the store
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the document store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"name": s.appName, "status": "ok"})
}
