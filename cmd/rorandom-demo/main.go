package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rorandom/rorandom-go"
	"github.com/rorandom/rorandom-go/internal/rcconfig"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("rorandom-demo starting", "config", *configPath)

	cfg, err := rcconfig.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	blockingTimeout := cfg.Rorandom.BlockingTimeout
	if blockingTimeout <= 0 {
		blockingTimeout = rorandom.Unbounded
	}

	client, err := rorandom.NewClient(rorandom.Config{
		Credential:                cfg.Rorandom.Credential(),
		Unserialized:              !cfg.Rorandom.Serialized,
		BlockingTimeout:           blockingTimeout,
		HTTPTimeout:               cfg.Rorandom.HTTPTimeout,
		MaxConcurrentUnserialized: cfg.Rorandom.MaxConcurrentUnserialized,
		Logger:                    slog.Default(),
	})
	if err != nil {
		slog.Error("failed to construct client", "err", err)
		os.Exit(1)
	}

	usage, aerr := client.GetUsage(ctx)
	if aerr != nil {
		slog.Error("getUsage failed", "kind", aerr.Kind, "message", aerr.Message)
		os.Exit(1)
	}
	slog.Info("usage", "bitsLeft", usage.BitsLeft, "requestsLeft", usage.RequestsLeft)

	values, aerr := client.GenerateIntegers(ctx, 5, 1, 100, true)
	if aerr != nil {
		slog.Error("generateIntegers failed", "kind", aerr.Kind, "message", aerr.Message)
		os.Exit(1)
	}
	slog.Info("generated integers", "values", values)

	for _, decl := range cfg.Rorandom.Precaches {
		if decl.Method != "generateIntegers" {
			continue
		}
		cache := client.NewIntegerCache(decl.Name, decl.N, 1, 1_000_000, decl.TargetBufferSize, decl.WithoutReplacement)
		slog.Info("precache pool started", "name", decl.Name)

		go func(name string) {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if batch, err, ok := cache.Take(); ok {
						slog.Info("precache batch ready", "pool", name, "size", len(batch))
					} else if err != nil {
						slog.Warn("precache pool reported error", "pool", name, "kind", err.Kind)
					}
				}
			}
		}(decl.Name)
	}

	<-ctx.Done()
	slog.Info("rorandom-demo shutting down")
}
