package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"pricebook/api"
	"pricebook/config"
	"pricebook/dispatch"
	"pricebook/feed"
	"pricebook/logger"
	"pricebook/metrics"
	"pricebook/publish"
	"pricebook/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("bookd stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

// closer is the shutdown hook of a dispatcher
type closer interface {
	Close(ctx context.Context) error
}

func newDispatcher(cfg *config.Config, log *zap.Logger) (dispatch.Dispatcher, closer) {
	if strings.EqualFold(cfg.Dispatcher.Mode, config.ModeImmediate) {
		return dispatch.NewImmediate(dispatch.WithLogger(log)), nil
	}
	q := dispatch.NewQueued(dispatch.WithLogger(log))
	return q, q
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := metrics.NewRegistry()
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	dispatcher, dispatcherCloser := newDispatcher(cfg, log)
	books := store.New(dispatcher,
		store.WithLogger(log.Named("store")),
		store.WithIndexType(cfg.IndexType()))

	var publisher *publish.Publisher
	if cfg.Kafka.Enabled {
		publisher = publish.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, log.Named("publish"))
		books.Subscribe(publisher.Observe)
		log.Info("publishing applied updates",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: api.NewRouter(books, reg, log.Named("http")),
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()
	feedDone := make(chan struct{})
	if cfg.Feed.Enabled {
		client := feed.New(books,
			feed.WithSymbols(cfg.Feed.Symbols...),
			feed.WithLogger(log.Named("feed")))
		go func() {
			defer close(feedDone)
			if err := client.Run(feedCtx, cfg.Feed.URL); err != nil {
				errCh <- fmt.Errorf("feed: %w", err)
			}
		}()
	} else {
		close(feedDone)
	}

	log.Info("bookd started",
		zap.String("dispatcher", cfg.Dispatcher.Mode),
		zap.String("index", cfg.IndexType().String()),
		zap.Bool("feed", cfg.Feed.Enabled))

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	cancelFeed()
	select {
	case <-feedDone:
	case <-shutdownCtx.Done():
		log.Warn("feed did not stop in time")
	}

	if dispatcherCloser != nil {
		if err := dispatcherCloser.Close(shutdownCtx); err != nil {
			log.Warn("dispatcher drain incomplete", zap.Error(err))
		}
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Warn("publisher close", zap.Error(err))
		}
	}

	log.Info("bookd stopped")
	return runErr
}
