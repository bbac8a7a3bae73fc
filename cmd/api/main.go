package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jpereiran/txlink/internal/config"
	"github.com/jpereiran/txlink/internal/database"
	"github.com/jpereiran/txlink/internal/dataset"
	datasetStore "github.com/jpereiran/txlink/internal/dataset/store"
	"github.com/jpereiran/txlink/internal/embedding"
	txlinkHttp "github.com/jpereiran/txlink/internal/http"
	matchHandler "github.com/jpereiran/txlink/internal/http/match"
	searchHandler "github.com/jpereiran/txlink/internal/http/search"
	"github.com/jpereiran/txlink/internal/match"
	"github.com/jpereiran/txlink/internal/semantic"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	repo, cleanup, err := newRepository(cfg)
	if err != nil {
		slog.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	embedder := newEmbedder(cfg)

	var (
		matchService    = match.NewService(repo)
		semanticService = semantic.NewService(repo, embedder, slog.Default())
	)

	router := txlinkHttp.New(
		matchHandler.NewHandler(matchService),
		searchHandler.NewHandler(semanticService),
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port, "data_source", cfg.Data.Source)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newRepository(cfg *config.Config) (dataset.Repository, func(), error) {
	switch cfg.Data.Source {
	case "csv":
		set, err := dataset.LoadCSV(cfg.Data.TransactionsPath, cfg.Data.UsersPath)
		if err != nil {
			return nil, nil, err
		}

		return set, func() {}, nil

	case "postgres":
		db, err := database.New(cfg.ConnectionString())
		if err != nil {
			return nil, nil, err
		}

		return datasetStore.New(db), func() { db.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
}

// newEmbedder builds the configured provider behind the shared cache. When
// the served model cannot be reached the semantic path is disabled and the
// lexical path keeps running.
func newEmbedder(cfg *config.Config) embedding.Embedder {
	switch cfg.Embedding.Provider {
	case "ollama":
		ollama, err := embedding.NewOllama(context.Background(),
			cfg.Embedding.Endpoint, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		if err != nil {
			if errors.Is(err, embedding.ErrModelUnavailable) {
				slog.Warn("embedding model unavailable, semantic search disabled", "error", err)
				return nil
			}

			slog.Error("failed to initialize embedder", "error", err)
			os.Exit(1)
		}

		return embedding.NewCache(ollama)

	case "local":
		return embedding.NewCache(embedding.NewLocal())
	}

	slog.Warn("unknown embedding provider, semantic search disabled",
		"provider", cfg.Embedding.Provider)

	return nil
}
