package cli

import (
	"context"
	"fmt"

	"correspondence/config"
	"correspondence/corpus"
	"correspondence/database"
	"correspondence/embedding"
	"correspondence/graph"
	"correspondence/lexicon"
	"correspondence/retrieval"

	"go.uber.org/zap"
)

// flushLogs syncs the process logger; replaced in tests.
var flushLogs = config.Cleanup

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	lex      *lexicon.Lexicon
	store    corpus.Store
	pg       *database.PostgresStore
	provider *embedding.Provider
}

// bootstrap loads configuration and wires the store and embedding provider.
// The store is the --corpus file when given, PostgreSQL otherwise.
func bootstrap(ctx context.Context) (*app, error) {
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg := config.Load(tempLogger)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := config.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		flushLogs()
		return nil, fmt.Errorf("failed to re-initialize logger with configured level: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// init loads the lexicon, the embedding provider and the store.
func (a *app) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	a.lex = lexicon.Default()
	if cfg.LexiconPath != "" {
		lex, err := lexicon.Load(cfg.LexiconPath)
		if err != nil {
			return err
		}
		a.lex = lex
		logger.Info("Loaded lexicon", zap.String("path", cfg.LexiconPath))
	}

	var err error
	a.provider, err = embedding.NewProviderFromConfig(cfg, a.lex, logger)
	if err != nil {
		return err
	}

	if corpusPath != "" {
		docs, err := corpus.LoadDocuments(corpusPath)
		if err != nil {
			return err
		}
		if embedOffline {
			n, err := a.provider.EmbedDocuments(ctx, docs)
			if err != nil {
				return err
			}
			logger.Info("Embedded offline corpus", zap.Int("embedded", n))
		}
		a.store = corpus.NewMemoryStore(docs)
		logger.Info("Loaded offline corpus", zap.String("path", corpusPath), zap.Int("documents", len(docs)))
		return nil
	}

	return a.connect(ctx)
}

func (a *app) connect(ctx context.Context) error {
	if a.cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set; use --corpus for offline mode")
	}
	pg, err := database.NewPostgresStore(ctx, a.cfg.DatabaseURL, a.cfg.EmbeddingDimension, a.logger)
	if err != nil {
		return err
	}
	a.pg = pg
	a.store = pg
	return nil
}

func (a *app) engine() *retrieval.Engine {
	return retrieval.NewEngine(a.store, a.provider, a.lex, retrieval.OptionsFromConfig(a.cfg), a.logger)
}

func (a *app) explorer() *graph.Explorer {
	return graph.NewExplorer(a.store, a.lex, graph.Options{GapDays: a.cfg.TimelineGapDays}, a.cfg.StoreQueryTimeout, a.logger)
}

func (a *app) close() {
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	flushLogs()
}
