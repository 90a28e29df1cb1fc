package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/lead-desk/internal/config"
	"github.com/nimasrn/lead-desk/pkg/logger"
	"github.com/nimasrn/lead-desk/pkg/prom"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage: leadctl [--env=PATH] [--metrics] <command> [flags]")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var envPath string
	var metrics bool

	flagSet := pflag.NewFlagSet("leadctl", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&envPath, "env", "", "load configuration from this .env file first")
	flagSet.BoolVar(&metrics, "metrics", false, "serve prometheus metrics on METRICS_ADDR")
	flagSet.Usage = func() { printUsage(out, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() == 0 {
		printUsage(out, flagSet)
		return errUsage
	}

	if err := config.Load(envPath); err != nil {
		return err
	}
	cfg := config.Get()

	if metrics {
		if err := startMetrics(cfg); err != nil {
			return err
		}
	}

	a, err := newApp(cfg, out)
	if err != nil {
		return err
	}
	defer a.close()

	return a.dispatch(ctx, flagSet.Args())
}

func startMetrics(cfg *config.Config) error {
	if cfg.MetricsAddr == "" {
		return errors.New("METRICS_ADDR is required with --metrics")
	}
	host, _ := os.Hostname()
	if err := prom.Create(host, cfg.AppEnv, cfg.PromNamespace); err != nil {
		return err
	}
	go prom.ListenAndServer(cfg.MetricsAddr, cfg.MetricsURI)
	logger.Debug("metrics enabled", "addr", cfg.MetricsAddr)
	return nil
}

func printUsage(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(out, `leadctl manages leads on the remote lead service.

Usage:
  leadctl [global flags] <command> [flags]

Commands:
  list        show leads (--preset, --phone, --sort, --order, --follow-up, --opted-out)
  create      add a lead (--name, --phone, --tg)
  update      change fields of a lead (--id, --set key=value ...)
  delete      remove a lead (--id)
  attention   flip the needs-attention flag (--phone)
  actions     list lead actions, or run one (--id, --run)
  chat        show or send messages (--id, --send, --watch)

Global flags:
%s`, flagSet.FlagUsages())
}
