// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/hearthshop/hearthshop/internal/auth"
	"github.com/hearthshop/hearthshop/internal/mail"
	"github.com/hearthshop/hearthshop/internal/observability"
	"github.com/hearthshop/hearthshop/internal/shop"
)

//go:embed static
var staticFS embed.FS

// Options configures the web server.
type Options struct {
	Addr          string
	BaseURL       string
	MailFrom      string
	SecureCookies bool
}

// Server serves the storefront, auth pages, and admin product routes.
type Server struct {
	opts     Options
	auth     *auth.Service
	resets   *auth.PasswordResetService
	products *shop.Service
	mailer   *mail.Dispatcher
	metrics  *observability.Metrics
	renderer *renderer
	logger   *slog.Logger

	router     *mux.Router
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates the web server and builds its route table.
// metrics may be nil, e.g. in handler tests.
func NewServer(
	opts Options,
	authSvc *auth.Service,
	resetSvc *auth.PasswordResetService,
	productSvc *shop.Service,
	mailer *mail.Dispatcher,
	metrics *observability.Metrics,
	logger *slog.Logger,
) (*Server, error) {
	if authSvc == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if resetSvc == nil {
		return nil, oops.Errorf("password reset service is required")
	}
	if productSvc == nil {
		return nil, oops.Errorf("product service is required")
	}
	if mailer == nil {
		return nil, oops.Errorf("mail dispatcher is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rn, err := newRenderer(logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:     opts,
		auth:     authSvc,
		resets:   resetSvc,
		products: productSvc,
		mailer:   mailer,
		metrics:  metrics,
		renderer: rn,
		logger:   logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)
	r.Use(s.withSession)

	staticRoot, err := fs.Sub(staticFS, "static")
	if err != nil {
		// static is embedded at compile time; Sub can only fail on a bad path literal
		panic(err)
	}
	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))))

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	r.HandleFunc("/login", s.handleLoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/signup", s.handleSignupPage).Methods(http.MethodGet)
	r.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/reset", s.handleResetPage).Methods(http.MethodGet)
	r.HandleFunc("/reset", s.handleResetRequest).Methods(http.MethodPost)
	r.HandleFunc("/reset/{token}", s.handleNewPasswordPage).Methods(http.MethodGet)
	r.HandleFunc("/new-password", s.handleNewPassword).Methods(http.MethodPost)

	// The auth guard wraps every admin route and runs before validation.
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Handle("/add-product",
		s.requireAuth(http.HandlerFunc(s.handleAddProductPage))).Methods(http.MethodGet)
	admin.Handle("/products",
		s.requireAuth(http.HandlerFunc(s.handleAdminProducts))).Methods(http.MethodGet)
	admin.Handle("/add-product",
		s.requireAuth(http.HandlerFunc(s.handleAddProduct))).Methods(http.MethodPost)
	admin.Handle("/edit-product/{productId}",
		s.requireAuth(http.HandlerFunc(s.handleEditProductPage))).Methods(http.MethodGet)
	admin.Handle("/edit-product",
		s.requireAuth(http.HandlerFunc(s.handleEditProduct))).Methods(http.MethodPost)
	admin.Handle("/product/{productId}",
		s.requireAuthJSON(http.HandlerFunc(s.handleDeleteProduct))).Methods(http.MethodDelete)

	return r
}

// Handler exposes the route table, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving. It returns an error channel that receives any error
// from the HTTP server after startup; the channel closes on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.opts.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the web server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_web_server").Wrap(err)
		}
	}

	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the listen address, or empty if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// currentUser returns the authenticated user attached to the request, or nil.
func currentUser(r *http.Request) *auth.User {
	user, _ := r.Context().Value(userKey).(*auth.User)
	return user
}

// currentSession returns the validated session attached to the request, or nil.
func currentSession(r *http.Request) *auth.WebSession {
	session, _ := r.Context().Value(sessionKey).(*auth.WebSession)
	return session
}
