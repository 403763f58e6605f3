package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/saveugene/pulsedash/internal/config"
	"github.com/saveugene/pulsedash/internal/metrics"
	"github.com/saveugene/pulsedash/internal/simulator"
)

func runSim(args []string) {
	fs := flag.NewFlagSet("sim", flag.ExitOnError)
	opts := addCommonFlags(fs, "")
	host := fs.String("host", "127.0.0.1", "Host to listen on")
	port := fs.Int("port", config.DefaultSimPort, "Port to listen on")
	interval := fs.Duration("interval", config.DefaultSimInterval, "Time between readings")
	seed := fs.Int64("seed", 0, "Random seed (0 = time based)")
	fs.Parse(args)

	cfg, err := loadConfig(fs, opts, func(cfg *config.Config, name string) {
		switch name {
		case "host":
			cfg.Sim.Host = *host
		case "port":
			cfg.Sim.Port = *port
		case "interval":
			cfg.Sim.Interval = *interval
		case "seed":
			cfg.Sim.Seed = *seed
		}
	})
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger("pulsedash-sim", cfg)
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := simulator.New(simulator.Options{
		Interval: cfg.Sim.Interval,
		Seed:     cfg.Sim.Seed,
		Logger:   logger,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Sim.Host, cfg.Sim.Port)
	fmt.Printf("Simulator: ws://%s/ws\n", addr)
	fmt.Printf("Last session: http://%s/api/session\n", addr)
	fmt.Printf("Interval: %s\n", cfg.Sim.Interval)
	fmt.Println("Press Ctrl+C to stop")
	logger.Info("simulator started", zap.String("addr", addr), zap.Duration("interval", cfg.Sim.Interval))

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		log.Fatalf("sim: %v", err)
	}
	logger.Info("simulator stopped")
}
