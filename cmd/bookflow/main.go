package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/neomorfeo/bookflow/internal/adapter/fsm"
	"github.com/neomorfeo/bookflow/internal/adapter/google"
	"github.com/neomorfeo/bookflow/internal/adapter/metrics"
	"github.com/neomorfeo/bookflow/internal/adapter/otel"
	"github.com/neomorfeo/bookflow/internal/adapter/river"
	"github.com/neomorfeo/bookflow/internal/adapter/smtp"
	"github.com/neomorfeo/bookflow/internal/adapter/sqlite"
	"github.com/neomorfeo/bookflow/internal/app"
	"github.com/neomorfeo/bookflow/internal/config"
	"github.com/neomorfeo/bookflow/internal/domain"
	"github.com/neomorfeo/bookflow/internal/logger"

	handler "github.com/neomorfeo/bookflow/internal/adapter/http"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("bookflow exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.SetupDefault(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	providers, err := otel.Setup(ctx, otel.Config{
		ServiceName:    cfg.OTelServiceName,
		ServiceVersion: cfg.OTelServiceVersion,
		Environment:    cfg.OTelEnvironment,
		Exporter:       cfg.OTelExporter,
		Insecure:       cfg.OTelInsecure(),
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error("otel shutdown", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	policy, err := domain.NewCancellationPolicy(cfg.CancellationLeadHours)
	if err != nil {
		return fmt.Errorf("cancellation policy: %w", err)
	}

	mailer := newMailer(cfg, log)
	bookings := otel.NewTracingBookingStore(store.Bookings)
	bus := app.NewEventBus()
	publisher := otel.NewTracingPublisher(bus)

	var calendar *app.CalendarSync
	if cfg.CalendarEnabled {
		client := google.New(google.Config{
			CalendarID:   cfg.GoogleCalendarID,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RatePerSec:   cfg.CalendarRatePerSec,
			Burst:        int(cfg.CalendarRatePerSec) + 1,
			Timeout:      cfg.CalendarTimeout,
		})
		calendar = app.NewCalendarSync(
			otel.NewTracingCalendarClient(client),
			store.Users, store.Resources, bookings,
			app.WithReconcileObserver(collector),
			app.WithCalendarLogger(log),
		)
	}

	// --- Background jobs ---
	deps := river.Deps{Mailer: mailer, Publisher: publisher, Logger: log}
	if calendar != nil {
		deps.Reconciler = calendar
	}
	jobs, err := river.Setup(ctx, db, deps)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}

	// --- Application ---
	var handlerMailer domain.Mailer = mailer
	if cfg.MailAsync {
		handlerMailer = river.NewMailQueue(jobs)
	}
	app.NewHandlers(calendar, handlerMailer, bookings, store.Users, store.Resources, log).Register(bus)
	collector.Register(bus)

	var bookingOpts []app.BookingOption
	if calendar != nil {
		bookingOpts = append(bookingOpts, app.WithCalendarSync(calendar))
	}

	svc := handler.Services{
		Bookings:  app.NewBookingService(bookings, publisher, fsm.New(), policy, bookingOpts...),
		Resources: app.NewResourceService(store.Resources),
		Users:     app.NewUserService(store.Users),
		Calendar:  calendar,
		Publisher: publisher,
	}
	if calendar != nil {
		svc.Queue = river.NewReconcileQueue(jobs)
	}

	// --- Adapters (in) ---
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: cfg.OTelServiceName,
		Version:     version,
		Logger:      log,
		Metrics:     metrics.Handler(registry),
	}, svc)

	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("bookflow listening", "addr", srv.Addr, "docs", "http://localhost:"+cfg.Port+"/docs")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("river shutdown", "error", err)
	}

	log.Info("stopped")
	return runErr
}

// newMailer returns the SMTP mailer, or a logging mailer when no SMTP host
// is configured.
func newMailer(cfg config.Config, log *slog.Logger) domain.Mailer {
	if cfg.SMTPHost == "" {
		return smtp.NewLogMailer(log)
	}
	return smtp.New(smtp.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}
