// Package app provides the mini-RAG server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abdul-Halim01/mini-RAG/cmd/mini-rag/app/options"
	"github.com/Abdul-Halim01/mini-RAG/pkg/app"
)

const (
	// Name is the name of the application.
	Name = "mini-rag"

	// commandDesc is the description of the command.
	commandDesc = `mini-RAG Server

A minimal Retrieval-Augmented Generation service.

This server provides:
  - File upload and chunk-based document processing
  - Document indexing with vector embeddings (Milvus)
  - Semantic similarity search with Redis result caching
  - RAG-based question answering with LLM
  - Support for multiple LLM providers (OpenAI, Cohere, Gemini)`
)

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	application := app.NewApp(
		app.WithName(Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)

	return application
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal forces an immediate exit.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
