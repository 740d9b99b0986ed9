package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/google/gops/agent"
	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/robfig/cron/v3"

	"github.com/mern-wallet/wallet-api/auth"
	"github.com/mern-wallet/wallet-api/config"
	"github.com/mern-wallet/wallet-api/connections"
	"github.com/mern-wallet/wallet-api/controllers/api"
	"github.com/mern-wallet/wallet-api/events"
	"github.com/mern-wallet/wallet-api/images"
	"github.com/mern-wallet/wallet-api/jobs"
	"github.com/mern-wallet/wallet-api/middleware"
	"github.com/mern-wallet/wallet-api/models/account"
	"github.com/mern-wallet/wallet-api/services/accounts"
)

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown Log Level, Using Info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// openStore connects the configured account store and prepares its schema
func openStore(ctx context.Context, cfg *config.Config) (account.Store, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, closeFn, err := connections.Postgres(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		store := account.NewPostgres(db)
		if err := store.RunMigrations(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return store, closeFn, nil
	case "mongo":
		db, closeFn, err := connections.Mongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		store := account.NewMongo(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return store, closeFn, nil
	case "redis":
		pool := connections.Redis(cfg.RedisAddr, cfg.RedisPassword)
		store := account.NewRedis(pool)
		if err := store.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("unable to ping Redis: %w", err)
		}
		return store, func() { pool.Close() }, nil
	case "memory":
		log.Warn("Using In-Memory Account Store, Data Is Lost On Restart")
		return account.NewMemory(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openImages(ctx context.Context, cfg *config.Config) (images.Store, error) {
	if cfg.ImageStore != "s3" {
		return images.Inline{}, nil
	}
	return images.NewS3(ctx, images.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
}

func openPublisher(cfg *config.Config) events.Publisher {
	if cfg.RabbitMQURL == "" {
		return events.Fallback{}
	}
	p, err := events.NewRabbitMQ(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ Unavailable, Events Will Only Be Logged")
		return events.Fallback{}
	}
	return p
}

// newHandler wires the routes and the middleware stack around them
func newHandler(cfg *config.Config, store account.Store, health api.Pinger, svc *accounts.Service, tokens *auth.TokenService) http.Handler {
	router := httprouter.New()
	authenticator := auth.NewAuthenticator(store, tokens, api.WriteError)
	api.NewHandler(svc, health).Routes(router, authenticator)

	h := middleware.Timeout(cfg.RequestTimeout)(router)
	h = middleware.AccessLog(h)
	h = middleware.RequestID(h)
	return middleware.CORS(cfg.DashboardURL)(h)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env File Found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Load Config Failed")
	}
	setupLogging(cfg)

	if cfg.InsecureSecret() {
		log.Warn("JWT_SECRET Not Set, Using Development Secret")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		cancel()
		log.WithError(err).Fatal("Open Account Store Failed")
	}
	defer closeStore()

	imageStore, err := openImages(ctx, cfg)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Open Image Store Failed")
	}

	publisher := openPublisher(cfg)
	defer publisher.Close()

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	hasher := auth.NewHasher(cfg.BcryptCost, cfg.HashWorkers)
	svc := accounts.NewService(store, hasher, tokens, imageStore, publisher)

	log.Info("Start Jobs")
	check := jobs.NewStoreCheck(store)
	c := cron.New()
	if _, err := c.AddJob(cfg.HealthCheckSpec, check); err != nil {
		log.WithError(err).Fatal("Schedule Store Check Failed")
	}
	c.Start()
	defer c.Stop()

	// gops agent
	if cfg.GopsAddr != "" {
		if err := agent.Listen(agent.Options{Addr: cfg.GopsAddr, ShutdownCleanup: true}); err != nil {
			log.Fatal(err)
		}
	}

	// Web Server
	log.WithFields(log.Fields{
		"port":  cfg.Port,
		"store": cfg.StoreDriver,
	}).Info("Web Server Start")
	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, store, check, svc, tokens),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe Failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown Web Server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Web Server Shutdown Failed")
	}
	log.Info("Web Server Has Been Shut Down")
}
