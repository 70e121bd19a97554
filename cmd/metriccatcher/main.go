// cmd/metriccatcher/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/clearspring/metriccatcher/pkg/api"
	"github.com/clearspring/metriccatcher/pkg/catcher"
	"github.com/clearspring/metriccatcher/pkg/config"
	"github.com/clearspring/metriccatcher/pkg/lifecycle"
	"github.com/clearspring/metriccatcher/pkg/metrics"
	"github.com/clearspring/metriccatcher/pkg/reporter"
)

func main() {
	log.Printf("Starting metriccatcher...")

	configFile := flag.String("config", "/etc/metriccatcher/config.json", "Path to config file")
	flag.Parse()

	var cfg config.Config
	if err := config.LoadAndValidate(*configFile, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Max metrics: %d", cfg.MaxMetrics)

	registry, err := metrics.NewRegistry(cfg.MaxMetrics)
	if err != nil {
		log.Fatalf("Failed to create registry: %v", err)
	}

	c, err := catcher.New(cfg.UDPPort, registry)
	if err != nil {
		log.Fatalf("Failed to bind UDP port %d: %v", cfg.UDPPort, err)
	}

	log.Printf("Listening on UDP port %d", cfg.UDPPort)

	services := []lifecycle.Service{c}

	if reporters := buildReporters(&cfg); len(reporters) > 0 {
		services = append(services,
			reporter.NewRunner(registry, time.Duration(cfg.ReportInterval), reporters...))
	}

	if cfg.HTTPListenAddr != "" {
		services = append(services, api.NewServer(cfg.HTTPListenAddr, registry))
	}

	if err := lifecycle.Run(context.Background(), services...); err != nil {
		log.Fatalf("Service error: %v", err)
	}

	log.Printf("Shutdown complete")
}

func buildReporters(cfg *config.Config) []reporter.Reporter {
	var reporters []reporter.Reporter

	if cfg.Graphite != nil {
		prefix := cfg.Graphite.Prefix
		if prefix == "" {
			// Match the longstanding default of prefixing with the local
			// hostname.
			hostname, err := os.Hostname()
			if err != nil {
				log.Printf("Failed to determine hostname for graphite prefix: %v", err)
			} else {
				prefix = hostname
			}
		}

		log.Printf("Creating Graphite reporter pointed at %s:%d with prefix %q",
			cfg.Graphite.Host, cfg.Graphite.Port, prefix)
		reporters = append(reporters, reporter.NewGraphite(cfg.Graphite.Host, cfg.Graphite.Port, prefix))
	}

	if cfg.Console {
		reporters = append(reporters, reporter.Console{})
	}

	return reporters
}
