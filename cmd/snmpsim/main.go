package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/config"
	"github.com/debashish-mukherjee/go-snmpsim/internal/metrics"
	"github.com/debashish-mukherjee/go-snmpsim/internal/netlisten"
	"github.com/debashish-mukherjee/go-snmpsim/internal/pool"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
)

func main() {
	configPath := flag.String("config", "", "Path to simulator config YAML")
	listenAddr := flag.String("listen", "0.0.0.0", "Listen address")
	metricsPort := flag.String("metrics-port", "9090", "Port for the Prometheus /metrics endpoint")
	idleTimeout := flag.Duration("idle-timeout", 30*time.Minute, "Idle duration before a device is reaped")
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("missing required -config flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	checkFileDescriptors(cfg.Global.MaxDevices)

	log.Printf("Starting SNMP simulator")
	log.Printf("Device groups: %d, max_devices: %d", len(cfg.DeviceGroups), cfg.Global.MaxDevices)

	store := profile.NewStore()
	var assignments []pool.Assignment
	for _, g := range cfg.DeviceGroups {
		community := g.Community
		if community == "" {
			community = cfg.Global.Community
		}
		if _, err := store.LoadWalkProfileWithExtras(string(g.DeviceType), g.WalkFile, defaultFirmwareUpgradeEntries()); err != nil {
			log.Fatalf("failed to load walk file for group %q: %v", g.Name, err)
		}
		assignments = append(assignments, pool.Assignment{
			DeviceType: string(g.DeviceType),
			Range:      pool.PortRange{Start: g.PortRange.Start, End: g.PortRange.End},
			Community:  community,
		})
	}

	devicePool := pool.New(pool.Config{MaxDevices: cfg.Global.MaxDevices, IdleTimeout: *idleTimeout}, store)
	if err := devicePool.ConfigurePortAssignments(assignments); err != nil {
		log.Fatalf("invalid port_assignments: %v", err)
	}
	for _, g := range cfg.DeviceGroups {
		devicePool.SetWritePolicy(string(g.DeviceType), defaultFirmwareUpgradePolicy())
	}

	listener := netlisten.New(devicePool, *listenAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, g := range cfg.DeviceGroups {
		if err := listener.Start(ctx, g.PortRange.Start, g.PortRange.Start+g.Count-1); err != nil {
			log.Fatalf("failed to start listeners for group %q: %v", g.Name, err)
		}
	}

	go func() {
		log.Printf("Metrics server listening on :%s/metrics", *metricsPort)
		if err := metrics.Serve(":" + *metricsPort); err != nil {
			log.Printf("Warning: metrics server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()

	log.Printf("Simulator started successfully")
	<-ctx.Done()

	log.Printf("Shutting down...")
	listener.Stop()
	devicePool.ShutdownAllDevices()
	devicePool.Stop()
	log.Printf("Graceful shutdown complete")
}

func checkFileDescriptors(requiredFDs int) {
	var rlimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rlimit); err != nil {
		log.Printf("Warning: could not check file descriptor limit: %v", err)
		return
	}

	requiredTotal := uint64(requiredFDs) + 100
	if rlimit.Cur < requiredTotal {
		log.Printf("Warning: current file descriptor limit (%d) may be insufficient for %d devices (%d required)",
			rlimit.Cur, requiredFDs, requiredTotal)
		log.Printf("Increase with: ulimit -n %d", requiredTotal*2)
	} else {
		log.Printf("File descriptor limit OK: %d (need ~%d)", rlimit.Cur, requiredTotal)
	}
}
