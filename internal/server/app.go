// Package server initializes and runs the credvault server: it wires the
// crypto primitives, repositories, and services together, starts the HTTP
// API, and owns the periodic expired-OTP sweep.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/server/config"
	"github.com/dmitrijs2005/credvault/internal/server/httpapi"
	"github.com/dmitrijs2005/credvault/internal/server/mail"
	"github.com/dmitrijs2005/credvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credvault/internal/server/services"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	accountService  *services.AccountService
	recoveryService *services.RecoveryService
	identityService *services.IdentityService
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	// Fail closed: no salt or secret means no service, never a
	// plaintext-equivalent fallback.
	tokenizer, err := cryptox.NewTokenizer(cfg.TokenSalt)
	if err != nil {
		return nil, err
	}
	cipher, err := cryptox.NewCipher(cfg.EncryptionSecret)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	mailer := mail.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword)

	is := services.NewIdentityService(db, rm, tokenizer)
	as := services.NewAccountService(db, rm, is, tokenizer, cipher, cfg)
	rs := services.NewRecoveryService(db, rm, cipher, mailer, logger, cfg)

	return &App{
		config:          cfg,
		logger:          logger,
		db:              db,
		accountService:  as,
		recoveryService: rs,
		identityService: is,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger,
		app.accountService, app.recoveryService, app.identityService, app.config.JWTSecret)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startSweeper deletes expired OTP rows on a fixed cadence. It is the only
// backstop against stale rows accumulating between verify calls.
func (app *App) startSweeper(ctx context.Context) {
	ticker := time.NewTicker(app.config.OtpSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.recoveryService.Sweep(ctx)
			if err != nil {
				app.logger.Error(ctx, "otp sweep failed", "error", err)
				continue
			}
			app.logger.Info(ctx, "otp sweep finished", "deleted", n)
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startSweeper(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
