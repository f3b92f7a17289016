package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"moocdash/internal/config"
	"moocdash/internal/dataset"
	"moocdash/internal/dbstore"
	"moocdash/internal/logger"
	"moocdash/internal/quality"
	"moocdash/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	qopts, err := quality.LoadOptions(cfg.Quality.RulesFile)
	if err != nil {
		log.Fatal("load quality rules", "path", cfg.Quality.RulesFile, "error", err)
	}

	src, replacer, closeSrc, err := openSource(cfg, log)
	if err != nil {
		log.Fatal("open data source", "source", cfg.Data.Source, "error", err)
	}
	defer closeSrc()

	metrics := web.NewMetrics()
	store := dataset.NewStore(src, cfg.Data.CacheTTL, log, dataset.WithObserver(metrics.ObserveLoad))

	srv, err := web.New(web.Options{
		Config:   cfg,
		Log:      log,
		Store:    store,
		Replacer: replacer,
		Quality:  qopts,
		Metrics:  metrics,
	})
	if err != nil {
		log.Fatal("init http server", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting dashboard", "addr", cfg.Addr(), "source", cfg.Data.Source, "env", cfg.Server.Env)
	if err := srv.Run(ctx); err != nil {
		log.Error("server error", "error", err)
	}
}

// openSource: CSV-каталог или SQL-база; оба умеют заменять набор целиком.
func openSource(cfg *config.Config, log *logger.Logger) (dataset.Source, dataset.Replacer, func(), error) {
	switch cfg.Data.Source {
	case "sql":
		db, err := dbstore.Open(cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		closeDB := func() {
			if err := dbstore.Close(db); err != nil {
				log.Warn("close database", "error", err)
			}
		}
		return dbstore.NewSource(db), dbstore.NewImporter(db, log), closeDB, nil
	default:
		src := dataset.NewCSVSource(cfg.Data.Dir)
		return src, src, func() {}, nil
	}
}
