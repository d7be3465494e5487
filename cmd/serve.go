package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kelisiWu123/hardware-game/sim"
	"github.com/kelisiWu123/hardware-game/sim/scenario"
	"github.com/kelisiWu123/hardware-game/sim/stream"
	"github.com/kelisiWu123/hardware-game/sim/topology"
)

var (
	addr  string // listen address for serve
	watch bool   // reload the scenario topology when its file changes
)

// serveCmd runs the simulator in real time and exposes it over HTTP and websocket.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a live simulation over HTTP and websocket",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := serve(ctx, scenarioPath, configPath, addr, watch); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func serve(ctx context.Context, path, cfgPath, listenAddr string, watchFile bool) error {
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	store, err := sc.Build()
	if err != nil {
		return fmt.Errorf("building scenario: %w", err)
	}

	simulator := sim.NewSimulator(store, cfg)
	hub := stream.NewHub()
	width, height := sc.CanvasSize()
	server := stream.NewServer(store, simulator, hub, stream.ServerConfig{
		Width:  width,
		Height: height,
		Layout: sc.LayoutOptions(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := simulator.Run(ctx); err != nil && ctx.Err() == nil {
			logrus.Errorf("simulator stopped: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		feedSchedule(ctx, simulator, scenario.NewSchedule(sc.Packets), time.Duration(cfg.TickIntervalMs)*time.Millisecond)
	}()
	if watchFile {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := scenario.Watch(ctx, path, scenario.DefaultDebounce, func() {
				if err := reloadTopology(path, store, hub); err != nil {
					logrus.Warnf("reloading %s: %v", path, err)
				}
			})
			if err != nil && ctx.Err() == nil {
				logrus.Errorf("%v", err)
			}
		}()
	}

	err = server.ListenAndServe(ctx, listenAddr)
	cancel()
	simulator.Stop()
	wg.Wait()
	return err
}

// reloadTopology syncs the live store with the scenario file and tells
// connected clients when anything changed. Packets in the file are ignored.
func reloadTopology(path string, store *topology.Store, hub *stream.Hub) error {
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}
	stats, err := sc.Sync(store)
	if err != nil {
		return err
	}
	if stats.Changed() {
		hub.PublishTopology(stream.Snapshot(store))
	}
	return nil
}

// feedSchedule injects scheduled packets as the live clock reaches them.
func feedSchedule(ctx context.Context, simulator *sim.Simulator, schedule *scenario.Schedule, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for schedule.Len() > 0 {
		for _, p := range schedule.Due(simulator.Clock()) {
			if _, err := simulator.CreatePacketOfType(p.Source, p.Target, p.PacketType()); err != nil {
				logrus.Warnf("scheduled packet %s -> %s: %v", p.Source, p.Target, err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().BoolVar(&watch, "watch", false, "Reload the scenario topology when the file changes")
	rootCmd.AddCommand(serveCmd)
}
