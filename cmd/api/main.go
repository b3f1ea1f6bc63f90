// Command api serves the college events HTTP API.
//
//go:generate swag init -g cmd/api/main.go -o docs --parseInternal
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"collegeevents/config"
	"collegeevents/internal/adapters/email"
	httpdelivery "collegeevents/internal/delivery/http"
	"collegeevents/internal/delivery/http/controllers"
	"collegeevents/internal/delivery/http/helpers"
	"collegeevents/internal/domain"
	"collegeevents/internal/repository/mongodb"
	"collegeevents/internal/repository/postgres"
	"collegeevents/internal/services"
	"collegeevents/internal/storage/disk"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eventRepo, closeStore, err := openEventStore(rootCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	images, err := disk.NewImageStore(cfg.UploadDir, cfg.UploadPublicPrefix)
	if err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}

	announcer, err := newAnnouncer(cfg, logger)
	if err != nil {
		return err
	}

	eventTypes := domain.NewEventTypes(cfg.EventTypes)
	eventService := services.NewEventService(eventRepo, images, announcer, eventTypes, logger, cfg.RequestTimeout)

	if cfg.ImageSweepSchedule != "" {
		janitor := services.NewImageJanitor(eventRepo, images, cfg.ImageSweepGrace, cfg.RequestTimeout, logger)
		if err := janitor.Start(cfg.ImageSweepSchedule); err != nil {
			return fmt.Errorf("image sweep: %w", err)
		}
		defer janitor.Stop()
	}

	validator := helpers.NewValidator(func(name string) bool {
		_, ok := eventTypes.Canonical(name)
		return ok
	})
	router := httpdelivery.NewRouter(httpdelivery.RouterConfig{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		UploadPrefix:       images.Prefix(),
		Uploads:            images.Handler(),
	},
		controllers.NewEventController(logger, eventService, validator, cfg.MaxUploadBytes),
		controllers.NewHealthController(logger, eventRepo, cfg.RequestTimeout),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "store", cfg.StoreDriver, "uploads", cfg.UploadDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-rootCtx.Done():
	}
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("bye")
	return nil
}

// openEventStore connects the configured backend and prepares its schema or indexes.
func openEventStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.EventRepository, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return postgres.NewEventRepository(db), func() { db.Close() }, nil

	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		disconnect := func() {
			dctx, dcancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer dcancel()
			if err := client.Disconnect(dctx); err != nil {
				logger.Warn("mongo disconnect failed", "err", err)
			}
		}
		if err := client.Ping(ctx, nil); err != nil {
			disconnect()
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		coll := client.Database(cfg.MongoDatabase).Collection(mongodb.CollectionName)
		if err := mongodb.EnsureIndexes(ctx, coll); err != nil {
			disconnect()
			return nil, nil, err
		}
		logger.Info("connected to mongo", "database", cfg.MongoDatabase)
		return mongodb.NewEventRepository(coll), disconnect, nil
	}
}

// newAnnouncer returns nil when no recipients are configured.
func newAnnouncer(cfg *config.Config, logger *slog.Logger) (domain.EventAnnouncer, error) {
	if len(cfg.AnnounceRecipients) == 0 {
		return nil, nil
	}
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}
	return services.NewAnnouncementService(mailer, renderer, cfg.AnnounceRecipients, cfg.PublicBaseURL, logger), nil
}
