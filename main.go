package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/saveugene/pulsedash/internal/config"
	"github.com/saveugene/pulsedash/internal/logging"
)

// commonOptions are the flags every subcommand accepts. Flags override the
// config file only when given explicitly.
type commonOptions struct {
	config  *string
	source  *string
	url     *string
	broker  *string
	topic   *string
	csv     *string
	logFile *string
	debug   *bool
}

func addCommonFlags(fs *flag.FlagSet, logFile string) *commonOptions {
	return &commonOptions{
		config:  fs.String("config", "", "Path to YAML config file"),
		source:  fs.String("source", config.SourceWebSocket, "Transport: websocket or mqtt"),
		url:     fs.String("url", "", "Websocket URL of the sensor stream"),
		broker:  fs.String("broker", "", "MQTT broker address (host:port)"),
		topic:   fs.String("topic", "", "MQTT topic carrying readings"),
		csv:     fs.String("csv", config.DefaultExportPath, "Path of the exported session CSV"),
		logFile: fs.String("log", logFile, "Log file (empty = stderr)"),
		debug:   fs.Bool("debug", false, "Enable debug logging"),
	}
}

// loadConfig reads the config file, applies explicitly set flags and, when
// given, command-specific overrides, then validates.
func loadConfig(fs *flag.FlagSet, o *commonOptions, extra ...func(cfg *config.Config, name string)) (*config.Config, error) {
	cfg, err := config.LoadFile(*o.config)
	if err != nil {
		return nil, err
	}
	if cfg.Log.File == "" {
		cfg.Log.File = *o.logFile
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source.Kind = *o.source
		case "url":
			cfg.Source.URL = *o.url
		case "broker":
			cfg.Source.Broker = *o.broker
		case "topic":
			cfg.Source.Topic = *o.topic
		case "csv":
			cfg.Export.Path = *o.csv
		case "log":
			cfg.Log.File = *o.logFile
		case "debug":
			cfg.Log.Debug = *o.debug
		}
		for _, fn := range extra {
			fn(cfg, f.Name)
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(service string, cfg *config.Config) *zap.Logger {
	logger, err := logging.New(logging.Options{Service: service, Debug: cfg.Log.Debug, File: cfg.Log.File})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}
	_ = cmd.Start()
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: pulsedash <command> [flags]

Commands:
  term    Terminal heart-rate dashboard
  web     Browser dashboard served over HTTP
  sim     Simulated heart-rate sensor (websocket)

Run "pulsedash <command> -h" for command-specific flags.
`)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "term":
		runTerm(os.Args[2:])
	case "web":
		runWeb(os.Args[2:])
	case "sim":
		runSim(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
	}
}
