// Package app assembles the account service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/realmauth/internal/auth/http"
	"github.com/aussiebroadwan/realmauth/internal/auth/mail"
	"github.com/aussiebroadwan/realmauth/internal/auth/service"
	"github.com/aussiebroadwan/realmauth/internal/auth/store"
	"github.com/aussiebroadwan/realmauth/internal/auth/store/drivers/mysql"
	"github.com/aussiebroadwan/realmauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/realmauth/pkg/cryptox"
	"github.com/aussiebroadwan/realmauth/pkg/jwtx"
	"github.com/aussiebroadwan/realmauth/pkg/slogx"
	"github.com/aussiebroadwan/realmauth/pkg/srp6"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
)

// BuildVersion is set at build time via -ldflags "-X .../app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the account service with all its dependencies
type Application struct {
	cfg       Config
	logger    *slog.Logger
	logCloser io.Closer

	// Core dependencies
	tokens   *sqlite.Store
	accounts store.Accounts
	signer   *jwtx.HMACSigner
	registry *prometheus.Registry

	// Mail delivery
	dispatcher *mail.Dispatcher
	natsConn   *nats.Conn // nil unless mail goes over NATS

	accountService *service.AccountService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	logger, closer := slogx.New(slogx.Config{
		Service: "realmauth",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Output:  cfg.Log.Output,
	})

	app := &Application{
		cfg:       cfg,
		logger:    logger,
		logCloser: closer,
	}

	if err := app.init(); err != nil {
		_ = app.closeResources()
		return nil, err
	}
	return app, nil
}

func (app *Application) init() error {
	if err := app.initStores(); err != nil {
		return err
	}
	if err := app.initSigner(); err != nil {
		return err
	}
	if err := app.initMail(); err != nil {
		return err
	}
	if err := app.initServices(); err != nil {
		return err
	}
	app.initMetrics()
	app.initHTTP()
	return nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("account service starting",
		slog.Int("port", app.cfg.Port),
		slog.String("version", BuildVersion),
		slog.String("accounts_driver", app.cfg.Accounts.Driver),
		slog.String("mail_transport", app.cfg.Mail.Transport),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.closeResources()
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, flushes pending mail and releases the
// databases.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down account service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("err", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("err", err))
		}
	}

	if err := app.dispatcher.Close(ctx); err != nil {
		app.logger.Warn("pending mail abandoned", slog.Any("err", err))
	}

	err := app.closeResources()
	app.logger.Info("account service stopped")
	return err
}

// Handler exposes the routed HTTP handler without starting a listener.
func (app *Application) Handler() http.Handler { return app.router }

// AccountService exposes the account operations for command-line use.
func (app *Application) AccountService() *service.AccountService { return app.accountService }

// Accounts exposes the account store for command-line use.
func (app *Application) Accounts() store.Accounts { return app.accounts }

// Close releases resources without touching the HTTP server. Used by
// one-shot commands that never call Run.
func (app *Application) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if app.dispatcher != nil {
		if err := app.dispatcher.Close(ctx); err != nil {
			app.logger.Warn("pending mail abandoned", slog.Any("err", err))
		}
	}
	return app.closeResources()
}

func (app *Application) closeResources() error {
	var errs []error

	if app.natsConn != nil {
		if err := app.natsConn.Drain(); err != nil {
			errs = append(errs, err)
		}
		app.natsConn = nil
	}
	if app.accounts != nil && app.accounts != store.Accounts(app.tokens) {
		if c, ok := app.accounts.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	app.accounts = nil
	if app.tokens != nil {
		if err := app.tokens.Close(); err != nil {
			errs = append(errs, err)
		}
		app.tokens = nil
	}
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}

	if err := errors.Join(errs...); err != nil {
		app.logger.Error("error closing resources", slog.Any("err", err))
		return err
	}
	return nil
}

// OpenTokenStore opens the token database and applies pending migrations.
func OpenTokenStore(file string) (*sqlite.Store, error) {
	dsn := file
	if file != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", file)
	}

	st, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, oops.Code("TOKEN_DB_UNAVAILABLE").With("file", file).Wrap(err)
	}
	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, oops.Code("MIGRATION_FAILED").With("file", file).Wrap(err)
	}
	return st, nil
}

// initStores opens the token database and the account database. With the
// sqlite driver both live in the same file.
func (app *Application) initStores() error {
	tokens, err := OpenTokenStore(app.cfg.Tokens.File)
	if err != nil {
		return err
	}
	app.tokens = tokens
	app.logger.Info("token database ready", slog.String("file", app.cfg.Tokens.File))

	switch app.cfg.Accounts.Driver {
	case "mysql":
		accounts, err := mysql.Open(app.cfg.Accounts.MySQL, app.logger)
		if err != nil {
			return err
		}
		app.accounts = accounts
		app.logger.Info("account database connected",
			slog.String("host", app.cfg.Accounts.MySQL.Host),
			slog.String("database", app.cfg.Accounts.MySQL.Database),
		)
	default:
		app.accounts = tokens
		app.logger.Warn("using the sqlite account replica; the game server will not see these accounts")
	}
	return nil
}

func (app *Application) initSigner() error {
	secret := []byte(app.cfg.JWT.Secret)
	if len(secret) == 0 {
		// Validate refuses this outside dev.
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return oops.Code("CONFIG_INVALID").Wrapf(err, "generate development jwt secret")
		}
		secret = []byte(generated)
		app.logger.Warn("no jwt secret configured, sessions will not survive a restart")
	}

	signer, err := jwtx.NewHMACSigner(secret, app.cfg.JWT.Issuer, app.cfg.JWT.TTL)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	app.signer = signer
	return nil
}

func (app *Application) initMail() error {
	var transport mail.Transport

	switch app.cfg.Mail.Transport {
	case "smtp":
		t, err := mail.NewSMTPTransport(app.cfg.Mail.SMTP)
		if err != nil {
			return oops.Code("CONFIG_INVALID").Wrap(err)
		}
		transport = t
	case "nats":
		nc, err := mail.ConnectNATS(app.cfg.Mail.NATS.URL, "realmauth")
		if err != nil {
			return oops.Code("MAIL_UNAVAILABLE").With("url", app.cfg.Mail.NATS.URL).Wrap(err)
		}
		app.natsConn = nc
		transport = mail.NATSTransport{Publisher: nc, Prefix: app.cfg.Mail.NATS.SubjectPrefix}
	default:
		transport = mail.LogTransport{Logger: app.logger}
	}

	app.dispatcher = mail.NewDispatcher(transport, app.cfg.Mail.SendTimeout, app.logger)
	return nil
}

func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("pepper_file", app.cfg.PepperFile).Wrap(err)
	}

	postman, err := mail.NewPostman(app.cfg.PublicURL, app.dispatcher)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	app.accountService = &service.AccountService{
		Config: service.Config{
			InviteCode:         app.cfg.Auth.InviteCode,
			RequireActivation:  app.cfg.Auth.RequireActivation,
			TempPasswordLength: app.cfg.Auth.TempPasswordLength,
			RealmID:            app.cfg.Auth.RealmID,
		},
		Accounts: app.accounts,
		Tokens:   app.tokens,
		Sessions: app.signer,
		Mailer:   postman,
		Hasher:   &srp6.Hasher{},
		Pepper:   pepper,
		Now:      time.Now,
	}

	if app.cfg.Auth.InviteCode == "" {
		app.logger.Warn("no invite code configured, registration is disabled")
	}
	return nil
}

// initMetrics builds a private registry so tests can run several
// applications in one process.
func (app *Application) initMetrics() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	service.RegisterMetrics(reg)
	app.registry = reg
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.accounts,
		app.tokens,
		app.cfg.RateLimit,
		app.logger,
	)
	router.AccountService = app.accountService
	router.Gatherer = app.registry
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
