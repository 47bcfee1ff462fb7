package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/nbcontents/internal/logger"
	"github.com/marmos91/nbcontents/internal/ratelimiter"
	"github.com/marmos91/nbcontents/pkg/api"
	"github.com/marmos91/nbcontents/pkg/config"
	"github.com/marmos91/nbcontents/pkg/gc"
	"github.com/marmos91/nbcontents/pkg/mcpserver"
	"github.com/marmos91/nbcontents/pkg/metrics"
)

var version = "dev"

// loadConfig loads the configuration and returns the file actually used, so
// it can be watched. path is "" when running on defaults.
func loadConfig(cmd *cli.Command) (*config.Config, string, error) {
	path := cmd.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	if path == "" && config.ConfigExists() {
		path = config.GetDefaultConfigPath()
	}
	return cfg, path, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("nbcontents %s starting: backend=%s", version, cfg.Backend.Type)

	svc, err := config.InitializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Shutdown error: %v", err)
		}
	}()

	// Always built so a reload can turn limiting on; a zero rate allows
	// everything.
	limiter := ratelimiter.NewKeyed(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst, api.LimiterTTL)

	opts := api.Options{
		AuthToken: cfg.Server.AuthToken,
		Limiter:   limiter,
		Metrics:   svc.Metrics.HTTP,
		Version:   version,
	}
	// Without a dedicated port, metrics share the API listener.
	if svc.Metrics.Enabled() && svc.Metrics.Server == nil {
		opts.MetricsHandler = metrics.Handler()
	}
	if cfg.Server.AuthToken == "" {
		logger.Warn("No auth token configured; the contents API is open to anyone who can reach %s", cfg.Server.Listen)
	}

	srv := api.NewServer(api.ServerConfig{
		Listen:          cfg.Server.Listen,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, api.NewRouter(svc.Manager, opts))

	if gcCfg := cfg.Contents.CheckpointGC; gcCfg.Enabled {
		collector := gc.NewCollector(svc.Manager, gc.Config{Interval: gcCfg.Interval, DryRun: gcCfg.DryRun})
		collector.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = collector.Stop(stopCtx)
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	if svc.Metrics.Server != nil {
		g.Go(func() error { return svc.Metrics.Server.Start(gctx) })
	}
	if path != "" {
		g.Go(func() error {
			return config.Watch(gctx, path, func(next *config.Config) {
				config.ApplyRuntime(next)
				limiter.Reconfigure(next.Server.RateLimit.RequestsPerSecond, next.Server.RateLimit.Burst)
			})
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	output := cfg.Logging.Output
	if output == "" || output == "stdout" {
		output = "stderr"
	}
	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: output}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := config.InitializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	logger.Info("Serving MCP on stdio: backend=%s", cfg.Backend.Type)
	return mcpserver.New(svc.Manager, version).ServeStdio()
}

func initConfig(ctx context.Context, cmd *cli.Command) error {
	force := cmd.Bool("force")
	if out := cmd.String("output"); out != "" {
		if err := config.InitConfigToPath(out, force); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", out)
		return nil
	}

	path, err := config.InitConfig(force)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "nbcontents",
		Usage:   "Jupyter contents API over pluggable storage backends",
		Version: version,
		// Root flags are inherited by the subcommands.
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: $XDG_CONFIG_HOME/nbcontents/config.yaml)",
				Sources: cli.EnvVars("NBCONTENTS_CONFIG"),
			},
		},
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the contents REST API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the contents tools over MCP on stdio",
				Action: serveMCP,
			},
			{
				Name:  "init",
				Usage: "Write a commented default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Overwrite an existing file"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to this path instead of the default location"},
				},
				Action: initConfig,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
