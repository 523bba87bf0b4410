package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/practest/internal/config"
	"github.com/abhisek/practest/internal/llm"
	"github.com/abhisek/practest/internal/questiongen"
	"github.com/abhisek/practest/internal/server"
	"github.com/abhisek/practest/internal/server/event"
	"github.com/abhisek/practest/internal/server/repo"
	"github.com/abhisek/practest/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend API",
	Long: `Serve subjects, topics, generated tests, results and progress over HTTP.

The question bank lives in SQLite (default) or MongoDB. Result and progress
events go to RabbitMQ when PRACTEST_AMQP_URL is set. When an LLM provider is
configured, missing questions are authored on demand.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides PRACTEST_ADDR)")
	serveCmd.Flags().String("store", "", "Question bank: sqlite or mongo (overrides PRACTEST_STORE)")
	serveCmd.Flags().String("server-db", "", "SQLite path of the backend (overrides PRACTEST_SERVER_DB)")
	serveCmd.Flags().Bool("no-llm", false, "Never author questions with an LLM")
}

// serverConfig loads backend settings with command-line flags applied on top.
func serverConfig(cmd *cobra.Command) (config.Server, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return config.Server{}, err
	}
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Addr = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store = v
	}
	if v, _ := cmd.Flags().GetString("server-db"); v != "" {
		cfg.DBPath = v
	}
	applyLogFlags(cmd, &cfg.Log)
	return cfg, nil
}

// serverDBPath defaults to server.db next to the client database.
func serverDBPath(p string) (string, error) {
	if p != "" {
		return p, store.EnsureDir(p)
	}
	client, err := store.DefaultDBPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(client), "server.db"), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serverConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cmd, cfg.Log, false)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		r        repo.Repository
		recorder llm.UsageRecorder
	)
	switch cfg.Store {
	case "mongo":
		m, err := repo.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return err
		}
		r = m
		logger.Info("using mongo", "db", cfg.MongoDB)
	default:
		path, err := serverDBPath(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("resolve server DB path: %w", err)
		}
		s, err := repo.OpenSQLite(path)
		if err != nil {
			return err
		}
		r, recorder = s, s
		logger.Info("using sqlite", "path", path)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := r.Close(closeCtx); err != nil {
			logger.Warn("close repository", "error", err)
		}
	}()

	if cfg.Seed {
		seeded, err := repo.SeedIfEmpty(ctx, r)
		if err != nil {
			return fmt.Errorf("seed question bank: %w", err)
		}
		if seeded {
			logger.Info("seeded question bank")
		}
	}

	var events event.Publisher = event.Nop{}
	if cfg.AMQPURL != "" {
		p, err := event.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return err
		}
		defer p.Close()
		events = p
		logger.Info("publishing events", "exchange", cfg.AMQPExchange)
	}

	opts := server.Options{
		Repo:        r,
		Events:      events,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	}
	if noLLM, _ := cmd.Flags().GetBool("no-llm"); !noLLM {
		opts.Generator = newGenerator(ctx, logger, recorder)
	}

	return server.New(opts).Run(ctx, cfg.Addr, cfg.ShutdownTimeout)
}

// newGenerator returns nil when no provider is configured; the server then
// serves only banked questions.
func newGenerator(ctx context.Context, logger *slog.Logger, recorder llm.UsageRecorder) questiongen.Generator {
	llmCfg, ok := llm.ConfigFromEnv()
	if !ok {
		logger.Info("no LLM provider configured, question authoring disabled")
		return nil
	}
	provider, err := llm.NewProvider(ctx, llmCfg, logger, recorder)
	if err != nil {
		logger.Warn("LLM provider unavailable, question authoring disabled", "error", err)
		return nil
	}
	logger.Info("question authoring enabled", "provider", llmCfg.Provider)
	return questiongen.New(provider, questiongen.DefaultConfig())
}
