package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nijaru/yt-gemini/config"
	"github.com/nijaru/yt-gemini/generator"
	"github.com/nijaru/yt-gemini/handlers"
	"github.com/nijaru/yt-gemini/logger"
	"github.com/nijaru/yt-gemini/middleware"
	"github.com/nijaru/yt-gemini/transcript"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log, logCloser, err := logger.New(logger.Options{
		Dir:   cfg.LogDir,
		Level: cfg.LogLevel,
		JSON:  !cfg.Debug,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logger")
	}
	defer logCloser.Close()

	server, err := newServer(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize server")
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":  cfg.ServerPort,
			"model": cfg.ModelName,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		return
	}
	log.Info("Server stopped gracefully")
}

func newServer(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*http.Server, error) {
	gen, err := generator.New(ctx, generator.Config{
		APIKey:  cfg.GenAIKey,
		BaseURL: cfg.GenAIBaseURL,
		Model:   cfg.ModelName,
	}, log)
	if err != nil {
		return nil, err
	}

	fetcher := transcript.NewFetcher(
		transcript.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
		transcript.WithUserAgent(cfg.UserAgent),
		transcript.WithLogger(log),
	)

	h := handlers.New(gen, fetcher, handlers.Options{
		MaxUploadSize:  cfg.MaxUploadSize,
		RequestTimeout: cfg.RequestTimeout,
	})

	handler := middleware.Chain(
		h.Routes(),
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	return &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, nil
}
