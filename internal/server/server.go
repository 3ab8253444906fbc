// Package server exposes the ledger services over a JSON REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Giftedmindbenjamin/surbminer/internal/app"
	"github.com/Giftedmindbenjamin/surbminer/internal/common"
)

// Ledger requests are small JSON documents. The write timeout covers the
// slowest handler, an inline expiry sweep over every account.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 90 * time.Second
	maxHeaderBytes    = 64 << 10
)

// Server serves the account, investment, funding and admin endpoints of one App.
type Server struct {
	app    *app.App
	server *http.Server
	logger *common.Logger

	// now stamps summaries, accruals and sweeps; tests pin it.
	now func() time.Time

	// shutdownChan is signalled by POST /api/shutdown outside production.
	shutdownChan chan struct{}
}

// NewServer routes every endpoint through the middleware chain and binds
// to [server].host:port.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger,
		now:    time.Now,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:           applyMiddleware(mux, a.Logger, a.Config),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
	return s
}

// SetShutdownChannel wires the HTTP shutdown endpoint to the caller's
// signal loop.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// Handler is the fully wrapped handler, for httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	event := s.logger.Info().
		Str("addr", s.server.Addr).
		Str("backend", s.app.Storage.Backend())
	if s.app.Config.Auth.Disabled {
		event = event.Bool("auth_disabled", true)
	}
	event.Msg("Ledger API listening")
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ledger writes
// to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Ledger API draining")
	return s.server.Shutdown(ctx)
}
