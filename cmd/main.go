package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"prompt-forge/server/internal/config"
	"prompt-forge/server/internal/engine"
	"prompt-forge/server/internal/infra"
	"prompt-forge/server/internal/interfaces"
	"prompt-forge/server/internal/prompts"
	"prompt-forge/server/internal/storage"
	"prompt-forge/server/internal/web"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	configPath := os.Getenv("PROMPT_FORGE_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cmd := &cobra.Command{
		Use:   "prompt-forge [port]",
		Short: "Serve Stable Diffusion prompt generation over HTTP",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, args)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&configPath, "config", configPath, "path to the YAML config file")

	return cmd
}

func run(ctx context.Context, configPath string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", args[0])
		}
		cfg.Server.Port = port
	}

	logger, closeLog, err := infra.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	apiKey := cfg.APIKey()
	if apiKey == "" {
		logger.Warn("no API key configured, generation requests will fail", "provider", cfg.AI.Provider)
	}

	styles := prompts.LoadStyles(cfg.Styles.File, logger)

	counter, closeCounter := newFailureCounter(cfg.Counter, logger)
	defer closeCounter()

	generator, err := engine.NewTextGenerator(cfg.AI)
	if err != nil {
		return err
	}

	opts := engine.ServiceOptions{
		APIKey:      apiKey,
		Generator:   generator,
		Counter:     counter,
		Styles:      styles,
		MaxFailures: cfg.Counter.Threshold,
		Logger:      logger,
	}

	var history web.HistoryReader
	if cfg.History.Enabled {
		store, err := storage.NewHistoryStore(cfg.History)
		if err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			defer store.Close()
			opts.History = store
			history = store
			logger.Info("history enabled", "driver", cfg.History.Driver)
		}
	}

	service := engine.NewPromptService(opts)
	router := web.NewRouter(web.NewHandlers(service, history, logger), cfg.Server.StaticDir)

	binder := &infra.PortBinder{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		MaxAttempts: cfg.Server.MaxPortAttempts,
		Logger:      logger,
	}
	ln, port, err := binder.Bind()
	if errors.Is(err, infra.ErrNoAvailablePort) {
		fmt.Fprintf(os.Stderr, "Could not find an available port after %d attempts. Please free up a port or specify a different one.\n", cfg.Server.MaxPortAttempts)
		return err
	} else if err != nil {
		logger.Error("failed to start server", "error", err)
		return err
	}

	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}
	fmt.Printf("Serving at http://%s:%d\n", host, port)
	logger.Info("server started", "port", port, "provider", generator.Name(), "static_dir", cfg.Server.StaticDir)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return infra.NewServer(router, cfg.Server, logger).Run(ctx, ln)
}

// newFailureCounter picks the configured backend. An unreachable Redis falls
// back to the file counter.
func newFailureCounter(cfg config.CounterConfig, logger *slog.Logger) (interfaces.FailureCounter, func()) {
	noop := func() {}

	switch cfg.Backend {
	case config.CounterBackendMemory:
		return storage.NewMemoryCounter(), noop
	case config.CounterBackendRedis:
		rc, err := storage.NewRedisCounter(cfg.Redis, logger)
		if err == nil {
			logger.Info("failure counter on redis", "key", cfg.Redis.Key)
			return rc, func() { rc.Close() }
		}
		logger.Warn("redis unavailable, using file counter", "error", err)
	}

	return storage.NewFileCounter(cfg.File, logger), noop
}
