// Package cli provides the command-line interface for ChemBot.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SurabhiV1999/ChemBot/internal/cache"
	"github.com/SurabhiV1999/ChemBot/internal/classifier"
	"github.com/SurabhiV1999/ChemBot/internal/config"
	"github.com/SurabhiV1999/ChemBot/internal/conversation"
	"github.com/SurabhiV1999/ChemBot/internal/db"
	"github.com/SurabhiV1999/ChemBot/internal/engine"
	"github.com/SurabhiV1999/ChemBot/internal/llm"
	"github.com/SurabhiV1999/ChemBot/internal/prompts"
	"github.com/SurabhiV1999/ChemBot/internal/ratelimit"
	"github.com/SurabhiV1999/ChemBot/internal/vectorstore"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and connections
	cfg      config.Config
	dbClient *db.Client
	logFlush func() error

	// Lazy-initialized engine
	bot *engine.Engine
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chembot",
	Short: "Question answering over uploaded learning material",
	Long: `ChemBot answers student questions about uploaded documents.

Documents are chunked, embedded and stored in a vector database; questions
are classified, answered from retrieved context and cached for reuse.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, flush := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		logFlush = flush

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logFlush != nil {
			_ = logFlush()
		}
	},
}

// getEngine builds the engine on first use. Redis and SurrealDB attach only
// when configured; the engine runs without either.
func getEngine(ctx context.Context) (*engine.Engine, error) {
	if bot != nil {
		return bot, nil
	}

	model, err := llm.NewModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("init model: %w", err)
	}
	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	exec := ratelimit.New(cfg.MaxConcurrentRequests, cfg.MaxRetries, cfg.RetryDelay, cfg.RetryBackoff, llm.IsRetryable)

	var store vectorstore.Store
	if cfg.VectorProvider == "memory" {
		store = vectorstore.NewMemory()
	} else {
		store, err = vectorstore.NewQdrant(cfg)
		if err != nil {
			return nil, fmt.Errorf("init vector store: %w", err)
		}
	}
	retriever := vectorstore.NewManager(store, embedder, exec, cfg.VectorBatchSize)

	var answerCache cache.Cache
	if cfg.CacheEnabled {
		answerCache = cache.NewRedis(cfg)
	}

	window, err := conversation.NewWindow(cfg.MaxHistory, cfg.MaxConversations)
	if err != nil {
		return nil, fmt.Errorf("init conversation window: %w", err)
	}

	lib, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	var persistence engine.Persistence
	if cfg.SurrealDBURL != "" {
		dbClient, err = db.NewClient(ctx, db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
		}, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := dbClient.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		persistence = db.NewStore(dbClient)
	}

	bot = engine.New(engine.Deps{
		Generator:   model,
		Retriever:   retriever,
		Cache:       answerCache,
		Window:      window,
		Classifier:  classifier.New(model, exec, lib, cfg.EnableClassification),
		Prompts:     lib,
		Executor:    exec,
		Persistence: persistence,
		Config:      cfg,
	})
	return bot, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(invalidateCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(statsCmd)
}
