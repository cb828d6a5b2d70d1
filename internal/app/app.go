package app

import (
	"careerchat/internal/assessment"
	"careerchat/internal/cache"
	"careerchat/internal/config"
	"careerchat/internal/repository"
	"careerchat/internal/service"
	"careerchat/internal/transport/rest"
	"careerchat/internal/transport/ws"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// App wires stores, services and transport for one process
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	Engine      *assessment.Engine
	Sessions    *service.SessionGateway
	Turns       *service.TurnCoordinator
	Auth        *service.AuthService
	Hub         *ws.Hub
	Transcripts repository.TranscriptRepo
	Results     repository.ResultRepo

	closers []func(context.Context) error
}

// New connects to the configured stores and builds the services. Redis and MongoDB are
// optional: without Redis sessions live in memory, without MongoDB no transcript is kept.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Engine: assessment.NewEngine(assessment.DefaultCatalog()),
		Auth:   service.NewAuthService(cfg.Auth),
	}

	durable := a.connectRedis(ctx)
	if err := a.connectMongo(ctx); err != nil {
		return nil, err
	}

	var generator service.Generator = service.PassthroughGenerator{}
	if cfg.AI.IsEnabled() {
		gemini, err := service.NewGeminiGenerator(ctx, cfg.AI, logger)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		generator = gemini
	}
	logger.Info("answer generator ready",
		zap.String("generator", generator.Name()),
		zap.Int("max_attempts", cfg.AI.MaxAttempts))

	memory := cache.NewMemorySessionCache(cfg.Redis.SessionTTL)
	a.Sessions = service.NewSessionGateway(durable, memory, a.Engine, logger)
	a.Sessions.SetDegradedTTL(cfg.Redis.SessionTTL)
	a.Turns = service.NewTurnCoordinator(a.Engine, a.Sessions, generator, cfg.AI.MaxAttempts, logger)
	a.Turns.SetRepositories(a.Transcripts, a.Results)

	a.Hub = ws.NewHub(logger)
	a.Turns.SetBroadcaster(a.Hub)
	return a, nil
}

// connectRedis returns the durable session store, or nil when Redis is absent or unreachable
func (a *App) connectRedis(ctx context.Context) cache.SessionCache {
	cfg := a.Config.Redis
	if cfg.Addr == "" {
		a.Logger.Warn("REDIS_URI not set, sessions are kept in memory")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.Logger.Warn("redis unreachable, sessions are kept in memory", zap.String("addr", cfg.Addr), zap.Error(err))
		rdb.Close()
		return nil
	}

	a.Logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	return cache.NewSessionCache(rdb, cfg.SessionTTL)
}

func (a *App) connectMongo(ctx context.Context) error {
	cfg := a.Config.Mongo
	if cfg.URI == "" {
		a.Logger.Warn("MONGO_URI not set, transcripts and results are not persisted")
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		a.Logger.Warn("mongodb unreachable, transcripts and results are not persisted", zap.Error(err))
		client.Disconnect(ctx)
		return nil
	}
	a.Logger.Info("connected to mongodb", zap.String("database", cfg.Database))
	a.closers = append(a.closers, client.Disconnect)

	db := client.Database(cfg.Database)
	transcripts := repository.NewTranscriptRepo(db)
	results := repository.NewResultRepo(db)
	for _, ensure := range []func(context.Context) error{transcripts.EnsureIndexes, results.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			a.Logger.Warn("ensure indexes", zap.Error(err))
		}
	}
	a.Transcripts = transcripts
	a.Results = results
	return nil
}

// Router builds the HTTP handler
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		Config:      a.Config.Server,
		AuthService: a.Auth,
		Turns:       a.Turns,
		WSHub:       a.Hub,
		Logger:      a.Logger,
	})
}

// Close stops the hub and disconnects the stores
func (a *App) Close(ctx context.Context) error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
