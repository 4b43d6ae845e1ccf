package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/activitymap"
	"github.com/goliatone/go-accounts/activitysink"
	"github.com/goliatone/go-accounts/locale"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

type App struct {
	config   *gconfig.Container[*BaseConfig]
	bunDB    *bun.DB
	repo     accounts.RepositoryManager
	srv      router.Server[*fiber.App]
	logger   *glog.BaseLogger
	zap      *zap.Logger
	registry *prometheus.Registry
	sinks    accounts.MultiActivitySink
	kafka    *kafka.Writer
}

func (a *App) Config() *BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) accounts.Logger {
	if a.zap != nil {
		return accounts.NewZapLogger(a.zap.Named(name))
	}
	return a.logger.GetLogger(name)
}

func main() {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if app.Config().Server.Debug {
		fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	}

	if err := WithLogging(app); err != nil {
		panic(err)
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithActivitySinks(app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(app); err != nil {
		panic(err)
	}

	log := app.GetLogger("server")

	go func() {
		if err := app.srv.Serve(app.Config().Server.Address); err != nil {
			log.Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	log.Info("shutting down", "signal", sig.String())

	if err := app.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func WithLogging(app *App) error {
	if !strings.EqualFold(app.Config().Logging.Format, "json") {
		return nil
	}

	zcfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(app.Config().Logging.Level); err == nil {
		zcfg.Level = lvl
	}

	z, err := zcfg.Build()
	if err != nil {
		return err
	}

	app.zap = z.Named(app.Config().Name)
	return nil
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.Config().Persistence

	db, err := accounts.OpenDB(cfg)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	if cfg.Migrate {
		if err := accounts.Migrate(ctx, db); err != nil {
			return err
		}
	}

	repo := accounts.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	app.bunDB = db
	app.repo = repo
	return nil
}

func WithActivitySinks(app *App) error {
	cfg := app.Config()

	if cfg.Metrics.Enabled {
		app.registry = prometheus.NewRegistry()
		app.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		app.sinks = append(app.sinks, activitysink.NewPrometheus(app.registry))
	}

	if cfg.Kafka.Enabled {
		app.kafka = activitysink.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		var normalize []activitymap.Option
		if cfg.Kafka.RawEmails {
			normalize = append(normalize, activitymap.WithRawEmail())
		}
		app.sinks = append(app.sinks, activitysink.NewKafka(app.kafka, cfg.Kafka.Topic, normalize...))
	}

	return nil
}

func newMailer(app *App) (accounts.Mailer, error) {
	cfg := app.Config()

	renderer, err := accounts.NewActivationRenderer(nil, cfg.Locale.Default)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(cfg.SMTP.Driver, "smtp") {
		return accounts.NewSMTPMailer(cfg.SMTP.MailerConfig(), renderer, app.GetLogger("mailer"))
	}

	return accounts.NewLogMailer(renderer, app.GetLogger("mailer"))
}

func WithHTTPServer(app *App) error {
	cfg := app.Config()

	mailer, err := newMailer(app)
	if err != nil {
		return err
	}

	translations := locale.New(locale.WithDefault(cfg.Locale.Default))
	store := app.repo.Accounts()

	register := accounts.NewRegisterAccountHandler(store, mailer,
		accounts.WithRegisterHasher(accounts.BcryptHasher{Cost: cfg.Security.BcryptCost}),
		accounts.WithRegisterLogger(app.GetLogger("register")),
		accounts.WithRegisterActivitySink(app.sinks),
		accounts.WithActivationURL(cfg.SMTP.ActivationURL),
	)

	machine := accounts.NewAccountStateMachine(store,
		accounts.WithStateMachineLogger(app.GetLogger("activation")),
		accounts.WithStateMachineActivitySink(app.sinks),
	)
	activate := accounts.NewActivateAccountHandler(machine, app.GetLogger("activation"))

	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		f := router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:           cfg.Name,
			EnablePrintRoutes: cfg.Server.Debug,
		}))
		f.Use(recover.New())
		f.Use(requestid.New())

		if app.registry != nil {
			path := cfg.Metrics.Path
			if path == "" {
				path = "/metrics"
			}
			f.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})))
		}

		return f
	})

	srv.Router().Get("/health", func(ctx router.Context) error {
		if err := app.bunDB.PingContext(ctx.Context()); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return ctx.JSON(router.StatusOK, map[string]string{"status": "ok"})
	}).SetName("health")

	accounts.RegisterAccountRoutes(srv.Router().Group(cfg.Server.APIPrefix),
		accounts.WithControllerRegistrar(register),
		accounts.WithControllerActivator(activate),
		accounts.WithControllerFormatter(accounts.NewEnvelopeFormatter(translations)),
		accounts.WithControllerLocales(translations),
		accounts.WithControllerLogger(app.GetLogger("http")),
		accounts.WithControllerDebug(cfg.Server.Debug),
	)

	app.srv = srv
	return nil
}

func (a *App) Shutdown() error {
	var errs []error

	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config().shutdownTimeout())
		err := a.srv.Shutdown(ctx)
		cancel()
		if err != nil {
			errs = append(errs, err)
		}
	}

	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.bunDB != nil {
		if err := a.bunDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if a.zap != nil {
		_ = a.zap.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %v", errs)
	}
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
