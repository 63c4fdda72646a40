package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/suggester"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/rocketscienceinc/gomoku-backend/transport/peer"
)

// main - is the entry point of the terminal client.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := initConfig()
	logger := initLogger(conf)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	manager := usecase.NewGameManager(logger, peer.New(logger, conf.Client.RelayURL),
		initSuggester(ctx, logger, conf), conf.Suggester.ThinkDelay)

	go func() {
		if err := manager.Run(ctx); err != nil {
			logger.Error("game manager stopped", "error", err)
		}
	}()

	newConsole(manager, os.Stdin, os.Stdout).run(ctx)
	manager.ReturnToMenu()
}

// initialize config.
func initConfig() *config.Config {
	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	return config.MustLoad(filepath.Join(baseDir, "./config.yml"))
}

// initialize logger. The board goes to stdout, so logs go to stderr.
func initLogger(conf *config.Config) *slog.Logger {
	level := slog.LevelWarn

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// initialize move suggester. Without an API key the computer plays random moves.
func initSuggester(ctx context.Context, logger *slog.Logger, conf *config.Config) suggester.MoveSuggester {
	random := suggester.NewRandom()

	if conf.Suggester.APIKey == "" {
		return random
	}

	gemini, err := suggester.NewGemini(ctx, logger, suggester.GeminiOptions{
		APIKey:  conf.Suggester.APIKey,
		Model:   conf.Suggester.Model,
		Timeout: conf.Suggester.Timeout,
	})
	if err != nil {
		logger.Warn("gemini unavailable, using random moves", "error", err)
		return random
	}

	return suggester.NewFallback(logger, gemini, random)
}
