package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/rentalchat-backend/internal/data/db"
	"github.com/yungbote/rentalchat-backend/internal/http"
	"github.com/yungbote/rentalchat-backend/internal/observability"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
	"github.com/yungbote/rentalchat-backend/internal/realtime"
	"github.com/yungbote/rentalchat-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	store *db.Service
}

// New connects the store, migrates it and wires every layer. Nothing listens
// until Run.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	store, err := db.NewService(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := store.DB()

	var metrics *observability.Metrics
	if observability.Enabled() {
		metrics = observability.Init(log)
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	ssehub := realtime.NewSSEHub(log)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, ssehub, metrics)

	if cfg.SeedFile != "" {
		f, err := services.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			clients.Close()
			_ = store.Close()
			return nil, err
		}
		if err := serviceset.Seed.Apply(dbctx.Context{Ctx: ctx}, f); err != nil {
			clients.Close()
			_ = store.Close()
			return nil, fmt.Errorf("apply seed file: %w", err)
		}
		log.Info("Seed file applied", "path", cfg.SeedFile, "rules", len(f.AutoReplyRules), "quick_replies", len(f.QuickReplies))
	}

	handlerset := wireHandlers(theDB, log, serviceset, ssehub, metrics)
	middleware := wireMiddleware(log, cfg, serviceset)
	server := wireServer(log, cfg, handlerset, middleware, metrics)

	return &App{
		Log:      log,
		DB:       theDB,
		Server:   server,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clients,
		Services: serviceset,
		SSEHub:   ssehub,
		Metrics:  metrics,
		store:    store,
	}, nil
}

// Run serves HTTP and, when Redis is configured, forwards bus messages into
// the local hub. It returns once ctx is cancelled and both have stopped.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	if a.Clients.SSEBus != nil {
		g.Go(func() error {
			err := a.Clients.SSEBus.StartForwarder(gctx, a.SSEHub.Broadcast)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
		return a.Server.Run(gctx, ":"+a.Cfg.Port)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
