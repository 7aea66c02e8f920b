// Package httpapi exposes the HTTP JSON API: signup, login, account
// existence check, and the JWT-protected OTP and password-change routes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/server/models"
	"github.com/dmitrijs2005/credvault/internal/server/services"
)

// AccountOps is the account-service surface the handlers consume.
type AccountOps interface {
	Register(ctx context.Context, username, email, phone, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	UpdatePassword(ctx context.Context, userID, password string) error
}

// RecoveryOps is the OTP-service surface the handlers consume.
type RecoveryOps interface {
	Issue(ctx context.Context, userID, email string) error
	Verify(ctx context.Context, userID, code string) error
}

// IdentityOps is the identity-resolver surface the handlers consume.
type IdentityOps interface {
	Taken(ctx context.Context, email, phone string) (bool, error)
}

type HTTPServer struct {
	address   string
	accounts  AccountOps
	recovery  RecoveryOps
	identity  IdentityOps
	logger    logging.Logger
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, accounts AccountOps, recovery RecoveryOps,
	identity IdentityOps, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		accounts:  accounts,
		recovery:  recovery,
		identity:  identity,
		jwtSecret: []byte(secretKey),
	}
}

// Router builds the chi router with the public and protected route groups.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/authenticate", s.handleAuthenticate)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)
			r.Post("/otp/send", s.handleSendOtp)
			r.Post("/otp/check", s.handleCheckOtp)
			r.Post("/password", s.handleChangePassword)
		})
	})

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
