// arview - marker-based augmented reality viewer.
// Tracks fiducial markers in a live camera feed and draws a model on each.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-arview/internal/config"
	"github.com/teslashibe/go-arview/internal/log"
	"github.com/teslashibe/go-arview/pkg/app"
	"github.com/teslashibe/go-arview/pkg/debug"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fatal("❌ Configuration error: %v", err)
	}

	log.Init(cfg.LogLevel)

	a, err := app.New(cfg)
	if err != nil {
		fatal("❌ Configuration error: %v", err)
	}

	if err := a.Init(); err != nil {
		a.Shutdown()
		fatal("❌ Initialization failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = a.Run(ctx)
	cancel()
	a.Shutdown()
	if err != nil {
		fatal("❌ Runtime error: %v", err)
	}
}

// parseFlags loads the config file and applies command line overrides.
func parseFlags() (config.Config, error) {
	configPath := flag.String("config", "", "Config file (YAML or JSON)")
	objectsPath := flag.String("objects", "", "Object descriptor (overrides config)")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	noWindow := flag.Bool("no-window", false, "Run without the overlay window")
	port := flag.String("port", "", "Web API port (overrides config)")
	noWeb := flag.Bool("no-web", false, "Disable the web API")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}

	if *objectsPath != "" {
		cfg.Objects = *objectsPath
	}
	if *debugFlag {
		debug.Enable(true)
		cfg.LogLevel = "debug"
	}
	if *noWindow {
		cfg.Render.Window = false
	}
	if *port != "" {
		cfg.Web.Port = *port
	}
	if *noWeb {
		cfg.Web.Enabled = false
	}
	return cfg, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
