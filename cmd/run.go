package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/abhisek/practest/internal/analytics"
	"github.com/abhisek/practest/internal/app"
	"github.com/abhisek/practest/internal/attempt"
	"github.com/abhisek/practest/internal/auth"
	"github.com/abhisek/practest/internal/catalog"
	"github.com/abhisek/practest/internal/gateway"
	"github.com/abhisek/practest/internal/progress"
	"github.com/abhisek/practest/internal/screens"
	"github.com/abhisek/practest/internal/store"
)

// runApp opens the local store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	cfg, err := clientConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cmd, cfg.Log, true)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer closeLog()

	dbPath, err := resolveDBPath(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	users := auth.NewStub()
	gw := gateway.NewHTTPClient(cfg.ServerURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger).WithUsers(users)
	prog := progress.New(gw, logger)

	anOpts := []analytics.Option{analytics.WithLogger(logger)}
	if cfg.PersistTrend {
		anOpts = append(anOpts, analytics.WithTrendLog(st.CurrentUserTrend(users)))
	}

	env := &screens.Env{
		Auth:     users,
		Catalog:  catalog.New(gw, logger),
		Progress: prog,
		Attempt: attempt.New(attempt.Deps{
			Gateway:   gw,
			Progress:  prog,
			Auth:      users,
			Analytics: analytics.New(anOpts...),
			Recorder:  st.AttemptRepo(),
			Logger:    logger,
		}),
		History:        st.AttemptRepo(),
		Logger:         logger,
		RequestTimeout: cfg.HTTPTimeout + cfg.HTTPTimeout/2,
	}

	logger.Info("starting", "server", cfg.ServerURL, "db", dbPath, "persist_trend", cfg.PersistTrend)
	return app.Run(env)
}
