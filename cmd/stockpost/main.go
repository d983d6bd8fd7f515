// Command stockpost is the operator tool of the posting engine. It posts and
// unposts warehouse documents, decides cash approvals and posts money documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp/warehouse/internal/infrastructure/config"
	"github.com/erp/warehouse/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config.toml (default: ./config.toml or /etc/wms/config.toml)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log = log.With(zap.String("run_id", runID), zap.String("command", args[0]))
	ctx = logger.WithContext(ctx, log)

	code := run(ctx, cfg, log, cmd, args[1:])
	stop()
	_ = log.Sync()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, cmd command, args []string) int {
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	exec := cmd.bind(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to start", zap.Error(err))
		return 1
	}
	defer a.close()

	out, err := exec(ctx, a)
	if err != nil {
		log.Error("Command failed", zap.Error(err))
		return exitCode(err)
	}
	fmt.Println(out)
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Warehouse document posting tool

Usage:
  stockpost [-config path] <command> [flags]

Commands:`)
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(os.Stderr, `
Run "stockpost <command> -h" for the flags of a command.

Environment Variables:
  WMS_DATABASE_HOST, WMS_DATABASE_PASSWORD, WMS_REDIS_HOST, WMS_WAREHOUSE_ALLOW_NEGATIVE_STOCK, ...`)
}
