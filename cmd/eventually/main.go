// eventually is a status bar calendar app that shows the current or
// next event and a menu of the coming days.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/calrichards/eventually/internal/config"
	"github.com/calrichards/eventually/internal/launchd"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: ~/.config/eventually/config.yaml)")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Service management subcommand: `eventually service <action>`.
	if flag.Arg(0) == "service" {
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: eventually service <install|uninstall|start|stop|restart>")
			os.Exit(1)
		}
		if err := launchd.Run(flag.Arg(1)); err != nil {
			slog.Error("service command failed", "error", err)
			os.Exit(1)
		}
		return
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting eventually",
		"interval", cfg.Sync.Interval,
		"backend", cfg.UI.Backend,
	)

	app := NewApp(cfg)
	if err := app.Run(); err != nil {
		slog.Error("app failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: eventually [flags] [service <action>]

Run with no arguments to start the status bar app.

Subcommands:
  service install|uninstall|start|stop|restart
        manage the launch agent

Flags:
`)
	flag.PrintDefaults()
}
