// Command doubler doubles an array on the GPU, in a window or headless.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/openfluke/doubler/app"
	"github.com/openfluke/doubler/compute"
	"github.com/openfluke/doubler/detector"
	"github.com/openfluke/doubler/gpu"
	"github.com/openfluke/doubler/internal/config"
	"github.com/openfluke/doubler/internal/ctxlog"
	"github.com/openfluke/doubler/kernels"
	"github.com/openfluke/doubler/ui"
)

func main() {
	// Use a minimal logger until flags are parsed.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if cleanExit(err) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cleanExit reports whether err only means the user asked to stop.
func cleanExit(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, flag.ErrHelp)
}

func run(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("doubler", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to an HCL configuration file.")
	backendName := fs.String("backend", "", "Compute backend: "+strings.Join(gpu.Backends(), ", ")+".")
	preferVendor := fs.String("prefer-vendor", "", "Force-select an adapter whose name or vendor contains this string.")
	headless := fs.Bool("headless", false, "Run without a window and print each iteration.")
	iterations := fs.Int("iterations", 1, "Number of doublings in headless mode.")
	probe := fs.Bool("probe", false, "Print the GPU capability report as JSON and exit.")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("invalid -log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctxlog.WithLogger(context.Background(), logger), os.Interrupt)
	defer stop()

	if *probe {
		s, err := detector.DetectJSON(ctx)
		if err != nil {
			return fmt.Errorf("probe: %w", err)
		}
		_, err = fmt.Fprintln(out, s)
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backendName
		case "prefer-vendor":
			cfg.PreferVendor = *preferVendor
		}
	})

	desc, err := kernels.LookupVersion(cfg.Kernel, cfg.KernelVersion)
	if err != nil {
		return err
	}
	backend, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}

	var t app.Transformer
	d, err := compute.New(ctx, backend, desc)
	if err != nil {
		logger.Warn("accelerated doubling unavailable", "backend", cfg.Backend, "err", err)
	} else {
		defer d.Close()
		logger.Info("dispatcher ready", "device", d.Device().String(), "kernel", desc.ID())
		t = d
	}
	m := app.NewModel(t, cfg.Initial)

	if *headless {
		return ui.RunHeadless(ctx, out, m, *iterations)
	}
	return runWindow(m)
}

func newBackend(cfg *config.Config, logger *slog.Logger) (gpu.Backend, error) {
	if cfg.Backend == "wgpu" {
		return gpu.NewWGPUBackend(gpu.WGPUOptions{
			PreferVendor: cfg.PreferVendor,
			Power:        cfg.Power,
			Logger:       logger,
		}), nil
	}
	return gpu.Lookup(cfg.Backend)
}
