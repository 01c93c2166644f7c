package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/tavern-watch/internal/broadcast"
	"github.com/ironsheep/tavern-watch/internal/capture"
	"github.com/ironsheep/tavern-watch/internal/config"
	"github.com/ironsheep/tavern-watch/internal/imaging"
	"github.com/ironsheep/tavern-watch/internal/library"
	"github.com/ironsheep/tavern-watch/internal/matching"
	"github.com/ironsheep/tavern-watch/internal/pipeline"
	"github.com/ironsheep/tavern-watch/internal/recognition"
	"github.com/ironsheep/tavern-watch/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var errMCPClosed = errors.New("mcp session closed")

func usage() {
	fmt.Println("tavern-watch - Battlegrounds screen recognition service")
	fmt.Println()
	fmt.Println("Usage: tavern-watch [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c <path>  Read configuration from a YAML file")
	fmt.Println("  --version, -v        Print version information")
	fmt.Println("  --help, -h           Print this help message")
	fmt.Println()
	fmt.Println("Environment variables override the file, for example:")
	fmt.Println("  TAVERN_WATCH_LOG_LEVEL=debug               Enable debug logging")
	fmt.Println("  TAVERN_WATCH_LISTEN_ADDR=127.0.0.1:8000    HTTP and WebSocket address")
	fmt.Println("  TAVERN_WATCH_FRAME_DIR=frames              Directory of frames to replay")
	fmt.Println("  TAVERN_WATCH_MCP_STDIO=true                Serve MCP tools on stdin/stdout")
	fmt.Println()
	fmt.Println("Logs are written to stderr.")
}

func main() {
	configPath := os.Getenv(config.EnvPrefix + "CONFIG")

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--version" || arg == "-v" || arg == "version":
			fmt.Printf("tavern-watch %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case arg == "--help" || arg == "-h" || arg == "help":
			usage()
			return
		case arg == "--config" || arg == "-c":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a path\n", arg)
				os.Exit(2)
			}
			i++
			configPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		default:
			fmt.Fprintf(os.Stderr, "unknown option: %s\n\n", arg)
			usage()
			os.Exit(2)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout is reserved for the MCP protocol
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	logger.Info("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	cache := imaging.NewImageCache()

	lib, err := library.Load(library.LoadOptions{
		TemplateDir: cfg.TemplateDir,
		MinionsPath: cfg.MinionsPath,
		HeroesPath:  cfg.HeroesPath,
		Cache:       cache,
	})
	if err != nil {
		return fmt.Errorf("load template library: %w", err)
	}
	stats := lib.Stats()
	logger.Info("template library loaded",
		"templates", stats.Templates, "minions", stats.Minions, "heroes", stats.Heroes)

	source, err := capture.NewDirectorySource(cfg.FrameDir)
	if err != nil {
		return err
	}
	logger.Info("replaying frames", "dir", cfg.FrameDir, "frames", source.Len())

	matcher := matching.New(lib, cfg.Recognition.Scales)
	logger.Info("matcher ready", "scales", matcher.Scales(), "threshold", cfg.Recognition.Threshold)
	builder := recognition.NewBuilder(recognition.NewRecognizer(lib, matcher), recognition.BuilderConfig{
		Threshold: cfg.Recognition.Threshold,
		ShopSlots: cfg.Recognition.ShopSlots,
		Logger:    logger.With("component", "builder"),
	})

	broadcaster := broadcast.New(broadcast.NewRegistry(), logger.With("component", "broadcast"))
	scheduler := pipeline.New(source, builder, broadcaster, pipeline.BackoffPolicy{
		NormalInterval: cfg.Schedule.NormalInterval,
		FailureBackoff: cfg.Schedule.FailureBackoff,
	}, logger.With("component", "scheduler"))

	g, gctx := errgroup.WithContext(ctx)

	srv := server.New(server.Options{
		Broadcaster:  broadcaster,
		Scheduler:    scheduler,
		Version:      Version,
		WriteTimeout: cfg.Delivery.WriteTimeout,
		BaseContext:  gctx,
		Logger:       logger.With("component", "server"),
	})

	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.ListenAddr)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if cfg.MCPStdio {
		g.Go(func() error {
			if err := srv.ServeMCP(gctx, &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("mcp: %w", err)
			}
			// The process ends with the MCP client session.
			return errMCPClosed
		})
	}

	err = g.Wait()
	if ctx.Err() != nil || errors.Is(err, errMCPClosed) {
		return nil
	}
	return err
}
