// Spins up the file cache server, compatible w/ the Redis protocol, along with its Prometheus metrics endpoint.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nobletooth/filecache/pkg/config"
	"github.com/nobletooth/filecache/pkg/port"
	"github.com/nobletooth/filecache/pkg/storage"
	"github.com/nobletooth/filecache/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

var (
	printVersion   = flag.Bool("print_version", false, "Print the version and exit.")
	metricsAddress = flag.String("metrics_address", ":9090",
		"The ip:port serving Prometheus metrics on /metrics; empty disables it.")
	shutdownTimeout = flag.Duration("shutdown_timeout", 5*time.Second, "Grace period for in-flight metric scrapes.")
)

func main() {
	configErr := config.InitFlags()
	utils.InitLogging()
	if configErr != nil {
		slog.Error("Failed to load configuration.", "error", configErr)
		os.Exit(1)
	}

	if *printVersion {
		slog.Info("File cache build info.", utils.BuildAttrs()...)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		slog.Error("File cache server stopped.", "error", err)
		os.Exit(1)
	}
}

// run serves the cache configured by flags until `ctx` is done or a server fails.
func run(ctx context.Context) error {
	opts := storage.OptionsFromFlags()
	root := storage.CacheDirFromFlags()
	// The cache never creates its root; the server owns it.
	if err := os.MkdirAll(root, opts.DirPerm); err != nil {
		return fmt.Errorf("failed to create cache root: %w", err)
	}
	cache, err := storage.NewShardedFileCache(root, opts)
	if err != nil {
		return fmt.Errorf("failed to create the cache: %w", err)
	}
	backend, err := port.NewCacheBackend(cache)
	if err != nil {
		return err
	}
	slog.Info("Starting the file cache.", append(utils.BuildAttrs(), "root", cache.Root(),
		"shardDepth", opts.ShardDepth, "serialization", opts.Serialization, "compressionLevel", opts.CompressionLevel)...)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return port.RunRedisServer(groupCtx, backend) })
	if *metricsAddress != "" {
		group.Go(func() error { return runMetricsServer(groupCtx, *metricsAddress) })
	}
	return group.Wait()
}

// runMetricsServer serves the default Prometheus registry until `ctx` is done.
func runMetricsServer(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.ListenAndServe() }()
	slog.Info("Serving metrics.", "address", address)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down the metrics server: %w", err)
		}
		return nil
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server stopped unexpectedly: %w", err)
	}
}
