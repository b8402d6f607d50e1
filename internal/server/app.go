// Package server initializes and runs the application server: database,
// migrations, services and the HTTP endpoint, with graceful shutdown on
// OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mpetrenko/notekeeper/internal/logging"
	"github.com/mpetrenko/notekeeper/internal/server/access"
	"github.com/mpetrenko/notekeeper/internal/server/config"
	nkhttp "github.com/mpetrenko/notekeeper/internal/server/http"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/repomanager"
	"github.com/mpetrenko/notekeeper/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *nkhttp.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	gate := access.NewMembershipGate(repos.Members(db))

	noteService := services.NewNoteService(db, repos, gate)
	historyService := services.NewHistoryService(db, repos, gate)
	attachmentService := services.NewAttachmentService(db, repos, gate, cfg)

	handler := nkhttp.NewHandler(noteService, historyService, attachmentService, logger)
	server := nkhttp.NewServer(cfg.EndpointAddr, handler, logger, cfg.SecretKey)

	return &App{config: cfg, logger: logger, db: db, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
