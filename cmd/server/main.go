// main wires the leaf components, the engagement engine, and the HTTP
// transport, then runs the server and the audit worker until a signal
// arrives. Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rangelog/internal/audit"
	"rangelog/internal/engagement/adapters"
	"rangelog/internal/engagement/cache"
	engagementhandler "rangelog/internal/engagement/handler"
	"rangelog/internal/engagement/metrics"
	engagementservice "rangelog/internal/engagement/service"
	engagementstore "rangelog/internal/engagement/store"
	"rangelog/internal/environment"
	environmenthandler "rangelog/internal/environment/handler"
	"rangelog/internal/equipment"
	equipmenthandler "rangelog/internal/equipment/handler"
	"rangelog/internal/geo"
	geohandler "rangelog/internal/geo/handler"
	httpapi "rangelog/internal/http"
	"rangelog/internal/platform/config"
	"rangelog/internal/platform/httpserver"
	"rangelog/internal/platform/logger"
	"rangelog/internal/platform/postgres"
	platformredis "rangelog/internal/platform/redis"
	"rangelog/internal/velocity"
	velocityhandler "rangelog/internal/velocity/handler"
)

const auditInboxSize = 256

func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.PostgresURL != "" {
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	stores := buildStores(db)

	velocitySvc := velocity.NewService(stores.velocity, velocity.WithLogger(log))
	environmentSvc := environment.NewService(stores.environment)
	equipmentSvc := equipment.NewService(stores.equipment)
	geoSvc := geo.NewService(stores.geo)

	inbox := make(chan audit.Event, auditInboxSize)
	auditStore := audit.NewInMemoryStore()
	auditWorker := audit.NewWorker(auditStore, inbox, log)

	engineOpts := []engagementservice.Option{
		engagementservice.WithLogger(log),
		engagementservice.WithMetrics(metrics.New()),
		engagementservice.WithAudit(audit.NewPublisher(inbox)),
		engagementservice.WithAssociationTolerance(cfg.AssociationTolerance),
	}
	redisClient, err := platformredis.New(cfg.RedisURL, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		engineOpts = append(engineOpts,
			engagementservice.WithSummaryCache(cache.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)))
	}

	engineSvc := engagementservice.NewService(
		stores.engagement,
		adapters.NewSessionAdapter(velocitySvc),
		adapters.NewEquipmentAdapter(equipmentSvc),
		adapters.NewLocationAdapter(geoSvc),
		adapters.NewEnvironmentAdapter(environmentSvc),
		engineOpts...,
	)

	router := httpapi.NewRouter(httpapi.Handlers{
		Velocity:    velocityhandler.New(velocitySvc, log),
		Environment: environmenthandler.New(environmentSvc, log),
		Equipment:   equipmenthandler.New(equipmentSvc, log),
		Geo:         geohandler.New(geoSvc, log),
		Engagement:  engagementhandler.New(engineSvc, log),
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", "addr", cfg.Addr, "postgres", db != nil, "redis", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
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
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type storeSet struct {
	velocity    velocity.Store
	environment environment.Store
	equipment   equipment.Store
	geo         geo.Store
	engagement  engagementstore.Store
}

// buildStores selects postgres-backed stores when a database is configured,
// in-memory stores otherwise.
func buildStores(db *sql.DB) storeSet {
	if db == nil {
		return storeSet{
			velocity:    velocity.NewInMemoryStore(),
			environment: environment.NewInMemoryStore(),
			equipment:   equipment.NewInMemoryStore(),
			geo:         geo.NewInMemoryStore(),
			engagement:  engagementstore.NewMemory(),
		}
	}
	return storeSet{
		velocity:    velocity.NewPostgres(db),
		environment: environment.NewPostgres(db),
		equipment:   equipment.NewPostgres(db),
		geo:         geo.NewPostgres(db),
		engagement:  engagementstore.NewPostgres(db),
	}
}
