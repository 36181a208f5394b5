// sdrscand is the scanner daemon. Run plainly it is the supervisor:
// it loads the YAML configuration, spawns one receiver process per
// configured device plus the audio mixer, and serves the control
// WebSocket. The receiver and mixer roles are the same binary
// re-executed with a hidden subcommand, so a single installed file
// covers all three processes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kb9vy/sdrscan/internal/config"
	"github.com/kb9vy/sdrscan/internal/controlws"
	"github.com/kb9vy/sdrscan/internal/logging"
	"github.com/kb9vy/sdrscan/internal/mixer"
	"github.com/kb9vy/sdrscan/internal/receiver"
	"github.com/kb9vy/sdrscan/internal/supervisor"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "receiver":
			os.Exit(runReceiver(os.Args[2:]))
		case "mixer":
			os.Exit(runMixer(os.Args[2:]))
		}
	}
	os.Exit(runSupervisor())
}

func runSupervisor() int {
	var configPath = pflag.String("config", "", "Path to the scanner YAML configuration file.")
	var controlWsHost = pflag.String("controlWsHost", "", "Bind host for the control WebSocket (overrides the config file).")
	var controlWsPort = pflag.Int("controlWsPort", 0, "Bind port for the control WebSocket (overrides the config file).")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sdrscand --config <path> [--controlWsHost h] [--controlWsPort p]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help || *configPath == "" {
		pflag.Usage()
		if *help {
			return 0
		}
		return 1
	}

	log := logging.New("supervisor")

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sdrscand: %v\n", err)
		return 1
	}
	if *controlWsHost != "" {
		cfg.ControlWSHost = *controlWsHost
	}
	if *controlWsPort != 0 {
		cfg.ControlWSPort = *controlWsPort
	}

	exePath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sdrscand: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup, err := supervisor.New(ctx, cfg, exePath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sdrscand: %v\n", err)
		return 1
	}

	ctl := controlws.New(sup.Events(), sup.Commands, cfg.ControlWSHost, cfg.ControlWSPort, log)
	go func() {
		if err := ctl.ListenAndServe(); err != nil {
			log.Error("control websocket server failed", "err", err)
		}
	}()
	defer ctl.Shutdown(context.Background())

	if cfg.Announce {
		go controlws.Announce(ctx, "sdrscan", cfg.ControlWSPort, log)
	}

	// SIGHUP re-reads the config file and swaps the channel set in.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			fresh, err := config.Load(*configPath)
			if err != nil {
				log.Error("config reload failed, keeping current config", "err", err)
				continue
			}
			select {
			case sup.Reloads <- fresh:
			default: // a reload is already pending
			}
		}
	}()

	log.Info("scanner running",
		"receivers", len(cfg.Receivers),
		"channels", len(cfg.Channels),
		"control", fmt.Sprintf("%s:%d", cfg.ControlWSHost, cfg.ControlWSPort))

	if err := sup.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sdrscand: %v\n", err)
		return 1
	}
	return 0
}

func runReceiver(args []string) int {
	fs := pflag.NewFlagSet("receiver", pflag.ExitOnError)
	var cfgJSON = fs.String("config-json", "", "Receiver config as JSON (set by the supervisor).")
	var ringCapacity = fs.Int("ring-capacity", 0, "Ring buffer capacity in samples (set by the supervisor).")
	_ = fs.Parse(args)

	var rc config.Receiver
	if err := json.Unmarshal([]byte(*cfgJSON), &rc); err != nil {
		fmt.Fprintf(os.Stderr, "sdrscand receiver: bad --config-json: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := receiver.RunProcess(ctx, &rc, *ringCapacity); err != nil {
		return 1
	}
	return 0
}

func runMixer(args []string) int {
	fs := pflag.NewFlagSet("mixer", pflag.ExitOnError)
	var cfgJSON = fs.String("config-json", "", "Full scanner config as JSON (set by the supervisor).")
	var ringCapacity = fs.Int("ring-capacity", 0, "Ring buffer capacity in samples (set by the supervisor).")
	_ = fs.Parse(args)

	var cfg config.Config
	if err := json.Unmarshal([]byte(*cfgJSON), &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "sdrscand mixer: bad --config-json: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mixer.RunProcess(ctx, &cfg, *ringCapacity); err != nil {
		return 1
	}
	return 0
}
