// @title studyhub API
// @version 1.0
// @description Study groups, events with enrollment, and notifications.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"studyhub/config"
	_ "studyhub/docs"
	"studyhub/internal/adapters/auth"
	"studyhub/internal/adapters/email"
	deliveryhttp "studyhub/internal/delivery/http"
	"studyhub/internal/delivery/http/controllers"
	"studyhub/internal/delivery/http/middleware"
	"studyhub/internal/eventbus"
	"studyhub/internal/repository/postgres"
	"studyhub/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(db, logger); err != nil {
			return err
		}
	}

	accounts := postgres.NewAccountRepository(db)
	studies := postgres.NewStudyRepository(db)
	events := postgres.NewEventRepository(db)
	enrollments := postgres.NewEnrollmentRepository(db)
	notifications := postgres.NewNotificationRepository(db)

	mailer, err := email.NewMailer(cfg.Email.MailerConfig(cfg.Email.Provider), logger)
	if err != nil {
		return err
	}
	if c, ok := mailer.(io.Closer); ok {
		defer c.Close()
	}
	emailSvc := services.NewEmailService(mailer, email.NewTemplateRenderer())

	bus := eventbus.New(eventbus.NewPool(eventbus.PoolConfig{
		Workers:    cfg.Bus.Workers,
		MaxWorkers: cfg.Bus.MaxWorkers,
		QueueSize:  cfg.Bus.QueueSize,
		KeepAlive:  cfg.Bus.KeepAlive,
	}, logger), logger)
	services.NewNotificationListener(accounts, studies, notifications, emailSvc, cfg.AppHost, logger).Register(bus)

	studySvc := services.NewStudyService(studies, bus)
	eventSvc := services.NewEventService(postgres.NewTransactor(db), studies, events, enrollments, bus)

	router := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Studies:       controllers.NewStudyController(logger, studySvc),
		Events:        controllers.NewEventController(logger, eventSvc),
		Notifications: controllers.NewNotificationController(logger, services.NewNotificationService(notifications)),
		Accounts:      controllers.NewAccountController(logger, services.NewAccountService(accounts, postgres.NewTagRepository(db))),
	}, auth.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer), logger)

	var handler http.Handler = router
	handler = http.TimeoutHandler(handler, cfg.RequestTimeout, `{"data":null,"error":{"code":"internal_error","message":"request timed out"}}`)
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(cfg.CORSOrigins, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	// Handlers still queued on the bus need the db and mailer, which close after this.
	if err := bus.Shutdown(shutdownCtx); err != nil {
		logger.Error("event bus shutdown", "err", err)
	}
	return nil
}
