package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"veriflow/internal/directory"
	"veriflow/internal/docstore"
	"veriflow/internal/events/consumer"
	"veriflow/internal/events/publisher"
	"veriflow/internal/ingest"
	ingesthandler "veriflow/internal/ingest/handler"
	"veriflow/internal/ingest/store/auditlog"
	"veriflow/internal/ingest/store/comments"
	"veriflow/internal/ingest/store/history"
	"veriflow/internal/ingest/store/notifications"
	"veriflow/internal/platform/config"
	"veriflow/internal/platform/httpserver"
	"veriflow/internal/platform/logger"
	"veriflow/internal/platform/metrics"
	"veriflow/internal/platform/middleware"
	platformredis "veriflow/internal/platform/redis"
	"veriflow/internal/requestlimit"
	limitstore "veriflow/internal/requestlimit/store"
	verificationhandler "veriflow/internal/verification/handler"
	"veriflow/internal/verification/service"
	"veriflow/internal/verification/store"
	"veriflow/migrations"
)

// main wires the dependency graph and owns the process lifecycle. Business
// logic lives in the internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New("info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// With DATABASE_URL the stores run on Postgres; without it everything
	// stays in memory, which is enough for local runs.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := migrations.Run(ctx, pool, log); err != nil {
			log.Error("run migrations", "error", err)
			os.Exit(1)
		}
	}

	var (
		requests          store.Store
		historyStore      history.Store
		commentStore      comments.Store
		notificationStore notifications.Store
		auditStore        auditlog.Store
	)
	if pool != nil {
		requests = store.NewPostgresStore(pool)
		historyStore = history.NewPostgresStore(pool)
		commentStore = comments.NewPostgresStore(pool)
		notificationStore = notifications.NewPostgresStore(pool)
		auditStore = auditlog.NewPostgresStore(pool)
	} else {
		requests = store.NewInMemoryStore()
		historyStore = history.NewInMemoryStore()
		commentStore = comments.NewInMemoryStore()
		notificationStore = notifications.NewInMemoryStore()
		auditStore = auditlog.NewInMemoryStore()
	}

	// The limit counter prefers Redis for its atomic reserve script, then
	// Postgres, then memory.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	var limits limitstore.Store
	switch {
	case redisClient != nil:
		defer redisClient.Close()
		limits = limitstore.NewRedisStore(redisClient)
	case pool != nil:
		limits = limitstore.NewPostgresStore(pool)
	default:
		limits = limitstore.NewInMemoryStore()
	}
	limitService, err := requestlimit.New(limits, cfg.MaxRequestsPerYear,
		requestlimit.WithLogger(log))
	if err != nil {
		log.Error("build limit service", "error", err)
		os.Exit(1)
	}

	users := directory.NewInMemoryDirectory()
	if cfg.UserDirectoryFile != "" {
		users, err = directory.LoadFromFile(cfg.UserDirectoryFile)
		if err != nil {
			log.Error("load user directory", "error", err)
			os.Exit(1)
		}
	}

	ingestRouter := ingest.NewRouter(
		ingest.WithRouterLogger(log),
		ingest.WithRouterMetrics(m),
	)
	ingestRouter.Register(ingest.NewStatusIngestor(historyStore, requests, log))
	ingestRouter.Register(ingest.NewCommentIngestor(commentStore, log))
	ingestRouter.Register(ingest.NewNotificationIngestor(notificationStore, log))
	ingestRouter.Register(ingest.NewAuditIngestor(auditStore, log))

	g, ctx := errgroup.WithContext(ctx)

	// The publish mode was validated at boot; each mode pairs a transport
	// with its consuming side.
	var pub publisher.Publisher
	switch cfg.PublishMode {
	case config.PublishModeSync:
		pub = publisher.NewSync(publisher.NewWebhookSender(cfg.WebhookBaseURL),
			publisher.WithLogger(log), publisher.WithMetrics(m))

	case config.PublishModeAsync:
		asyncPub := publisher.NewAsync(publisher.NewWebhookSender(cfg.WebhookBaseURL),
			publisher.WithAsyncLogger(log), publisher.WithAsyncMetrics(m))
		g.Go(func() error { return asyncPub.Run(ctx) })
		pub = asyncPub

	case config.PublishModeKafka:
		sender, err := publisher.NewKafkaSender(cfg.KafkaBrokers)
		if err != nil {
			log.Error("connect kafka producer", "error", err)
			os.Exit(1)
		}
		defer sender.Close()
		pub = publisher.NewSync(sender, publisher.WithLogger(log), publisher.WithMetrics(m))

		kc, err := consumer.NewKafkaConsumer(cfg.KafkaBrokers, ingestRouter, log)
		if err != nil {
			log.Error("connect kafka consumer", "error", err)
			os.Exit(1)
		}
		defer kc.Close()
		g.Go(func() error { return kc.Run(ctx) })

	case config.PublishModeNATS:
		sender, err := publisher.NewNATSSender(cfg.NATSURL)
		if err != nil {
			log.Error("connect nats", "error", err)
			os.Exit(1)
		}
		defer sender.Close()
		pub = publisher.NewSync(sender, publisher.WithLogger(log), publisher.WithMetrics(m))

		nc, err := consumer.NewNATSConsumer(cfg.NATSURL, ingestRouter, log)
		if err != nil {
			log.Error("connect nats consumer", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		if err := nc.Subscribe(ctx); err != nil {
			log.Error("subscribe nats consumer", "error", err)
			os.Exit(1)
		}
	}

	workflow, err := service.New(requests, limitService, pub, users, cfg.OfficerWorkloadLimit,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithDocuments(docstore.NewInMemoryStore()),
	)
	if err != nil {
		log.Error("build workflow service", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestLogger(log))
	router.Use(chimw.Timeout(30 * time.Second))

	verificationhandler.New(workflow, historyStore, commentStore, notificationStore, auditStore, log).Register(router)
	ingesthandler.New(ingestRouter, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthHandler(pool, redisClient))

	srv := httpserver.New(cfg.Addr, router)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "publish_mode", cfg.PublishMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func healthHandler(pool *pgxpool.Pool, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
