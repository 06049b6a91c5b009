package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/lifelog/internal/api"
	"github.com/alexanderramin/lifelog/internal/cli"
	"github.com/alexanderramin/lifelog/internal/config"
	"github.com/alexanderramin/lifelog/internal/db"
	"github.com/alexanderramin/lifelog/internal/importer"
	"github.com/alexanderramin/lifelog/internal/repository"
	"github.com/alexanderramin/lifelog/internal/service"
	"github.com/alexanderramin/lifelog/internal/session"
	"github.com/alexanderramin/lifelog/internal/streak"
	"github.com/mattn/go-isatty"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(os.Getenv("LIFELOG_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := cfg.NewLogger(os.Stderr)

	database, err := db.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	habitRepo := repository.NewSQLiteHabitRepo(database)
	entryRepo := repository.NewSQLiteEntryRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)
	recalc := streak.NewRecalculator(uow)

	pipeline := importer.NewPipeline(habitRepo, entryRepo, recalc,
		importer.WithWorkers(cfg.Import.Workers),
		importer.WithMaxFileBytes(cfg.Import.MaxFileBytes),
		importer.WithLogger(logger),
	)

	sessions, closeSessions, err := openSessionStore(cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	observer := service.ObserverSet{service.NewSlogUseCaseObserver(logger), service.MetricsUseCaseObserver{}}
	importSvc := service.NewImportService(pipeline, sessions, observer)
	habitSvc := service.NewHabitService(habitRepo, uow, recalc, observer)

	var identity api.Identity = api.HeaderIdentity{}
	if cfg.Server.SingleUser {
		identity = api.StaticIdentity(cfg.User)
	}
	server := api.NewServer(importSvc, habitSvc, cfg.Server,
		api.WithIdentity(identity),
		api.WithLogger(logger),
		api.WithMaxFileBytes(cfg.Import.MaxFileBytes),
	)

	app := &cli.App{
		Imports: importSvc,
		Habits:  habitSvc,
		Handler: server.Routes(),
		Addr:    cfg.Addr(),
		UserID:  cfg.User,
		Logger:  logger,
	}

	// Detect interactive terminal for prompts and the progress view.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).ExecuteContext(context.Background())
}

// openSessionStore keeps pending imports in Redis when an address is
// configured, in process otherwise.
func openSessionStore(cfg config.Config) (session.Store, func(), error) {
	if cfg.Redis.Addr == "" {
		return session.NewMemoryStore(cfg.Import.SessionTTL), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return session.NewRedisStore(client, cfg.Import.SessionTTL), func() { _ = client.Close() }, nil
}
