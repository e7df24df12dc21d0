package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wasmactors/actorhost/internal/config"
	"github.com/wasmactors/actorhost/internal/diskmodules"
	"github.com/wasmactors/actorhost/internal/gateway"
	"github.com/wasmactors/actorhost/rt"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot the runtime and serve the HTTP/WebSocket gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	runtime, err := rt.New(ctx, log)
	if err != nil {
		return fmt.Errorf("constructing runtime: %w", err)
	}
	defer runtime.Close(context.Background()) //nolint:errcheck

	modules := diskmodules.New(cfg.ModuleDir, log)
	if cfg.Watch {
		if err := modules.Watch(func(name string) {
			log.Info("module changed on disk, restart to reload bootstrap actors", zap.String("module", name))
		}); err != nil {
			log.Warn("failed to start module directory watch", zap.Error(err))
		}
		defer modules.Close() //nolint:errcheck
	}

	if err := loadBootstrapModulesConcurrently(ctx, modules, log); err != nil {
		return err
	}

	if err := runtime.Start(ctx, modules); err != nil {
		return fmt.Errorf("running bootstrap sequence: %w", err)
	}
	if err := runtime.Poll(ctx); err != nil {
		return fmt.Errorf("initial poll after bootstrap: %w", err)
	}

	srv := gateway.New(runtime, log)
	httpServer := &http.Server{Addr: cfg.BindAddr, Handler: srv.Router()}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gateway listening", zap.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		return httpServer.Shutdown(context.Background())
	})

	return g.Wait()
}

// loadBootstrapModulesConcurrently warms the OS page cache for every
// bootstrap actor's .wasm file before Start spawns them in order. The reads
// happen in parallel (errgroup, mirroring how substrate fans out
// independent setup steps) but nothing about handler execution becomes
// concurrent — Start still compiles and spawns the twelve actors serially,
// this only avoids serializing the disk I/O ahead of it.
func loadBootstrapModulesConcurrently(ctx context.Context, modules *diskmodules.Dir, log *zap.Logger) error {
	names := rt.BootstrapModuleNames()
	g, _ := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			if _, err := modules.ModuleBytes(name); err != nil {
				log.Warn("bootstrap module unavailable, Start will fail on it", zap.String("module", name), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
