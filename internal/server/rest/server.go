// Package rest is the HTTP boundary of the server: routing, request
// validation, refresh-token cookies, authentication and the translation of
// service errors into the public JSON contract.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/go-playground/validator/v10"
)

// SessionService is the session lifecycle the handlers rely on.
type SessionService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string, p models.Provenance) (*services.TokenPair, error)
	Refresh(ctx context.Context, rawToken string, p models.Provenance) (*services.TokenPair, error)
	Logout(ctx context.Context, rawToken string)
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// TaskService is the task store the handlers rely on.
type TaskService interface {
	Create(ctx context.Context, userID string, task *models.Task) (*models.Task, error)
	List(ctx context.Context, userID string) ([]*models.Task, error)
	Get(ctx context.Context, userID, id string) (*models.Task, error)
	Update(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	maxBodyBytes      = 1 << 20
)

type Server struct {
	address  string
	config   *config.Config
	sessions SessionService
	tasks    TaskService
	metrics  *metrics.Metrics
	logger   logging.Logger
	validate *validator.Validate
	clock    services.Clock
}

func NewServer(cfg *config.Config, l logging.Logger, ss SessionService, ts TaskService, m *metrics.Metrics, c services.Clock) *Server {
	if c == nil {
		c = services.SystemClock{}
	}
	return &Server{
		address:  cfg.EndpointAddrHTTP,
		config:   cfg,
		sessions: ss,
		tasks:    ts,
		metrics:  m,
		logger:   l.With("module", "rest_server"),
		validate: newValidator(c),
		clock:    c,
	}
}

// Run listens on the configured address and serves until ctx is canceled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
