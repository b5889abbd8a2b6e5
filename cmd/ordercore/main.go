// Package main is the entry point for the ordercore engine.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/paulmach/orb"

	"github.com/cadre-games/ordercore/internal/behavior"
	"github.com/cadre-games/ordercore/internal/catalog"
	"github.com/cadre-games/ordercore/internal/config"
	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/ipc"
	"github.com/cadre-games/ordercore/internal/order"
	"github.com/cadre-games/ordercore/internal/sim"
	"github.com/cadre-games/ordercore/internal/store"
	"github.com/cadre-games/ordercore/internal/tags"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to configuration JSON file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ordercore %s (commit=%s, built=%s)\n", version, commit, date)
		os.Exit(0)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Resolve config path: --config flag > ORDERCORE_CONFIG env > auto-discover.
	path := *configPath
	if path == "" {
		path = os.Getenv("ORDERCORE_CONFIG")
	}
	if path == "" {
		path = discoverConfig()
	}
	if path == "" {
		fatal("no config found. Place config.json next to the exe, use --config <path>, or set ORDERCORE_CONFIG.")
	}

	cfg, err := config.Load(path)
	if err != nil {
		fatal(fmt.Sprintf("load config: %v", err))
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		fatal(fmt.Sprintf("open database: %v", err))
	}
	defer db.Close()

	// Wire the order registry with the built-in strategies.
	sys := behavior.NewSystem(log)
	registry := order.NewRegistry(log)
	executions := map[string]order.RunFunc{
		"idle": behavior.NewIdleRun(sys),
		"move": behavior.NewMoveRun(sys),
		"attack": behavior.NewAttackRun(sys, behavior.AttackConfig{
			Damage:   10,
			Cooldown: 1,
		}),
		"channel": behavior.NewChannelRun(sys, 3),
	}
	builtins := map[domain.OrderTypeID]order.Order{
		cfg.StopOrder: order.NewStopOrder(executions["idle"]),
		"move":        order.NewMoveOrder(executions["move"]),
		"attack":      order.NewAttackOrder(executions["attack"]),
	}
	for id, o := range builtins {
		if err := registry.Register(id, o); err != nil {
			fatal(fmt.Sprintf("register order %s: %v", id, err))
		}
	}

	// Catalog-declared orders join the registry.
	if cfg.CatalogPath != "" {
		cat, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			fatal(fmt.Sprintf("load catalog: %v", err))
		}
		if err := cat.Build(registry, executions); err != nil {
			fatal(fmt.Sprintf("build catalog: %v", err))
		}
	}

	world := sim.NewWorld(registry, sys, sim.Config{
		StopOrder:         cfg.StopOrder,
		AutoOrderInterval: int64(cfg.AutoOrderIntervalTicks),
	}, log)

	feed := ipc.NewFeed()
	recorder := store.NewRecorder(db, log)
	recorder.Notify = feed.Publish

	if cfg.ScenarioPath != "" {
		if err := loadScenario(cfg.ScenarioPath, world, recorder, db, log); err != nil {
			fatal(fmt.Sprintf("load scenario: %v", err))
		}
	}

	snapshots, err := store.NewSnapshotRepo()
	if err != nil {
		fatal(fmt.Sprintf("snapshot repo: %v", err))
	}

	var mu sync.Mutex
	handler := ipc.NewHandler(world, &mu, db, snapshots, feed, log)
	srv := ipc.NewServer(handler, cfg.ListenAddr)

	stopTick := make(chan struct{})
	go runTicks(world, &mu, cfg, snapshots, db, log, stopTick)

	// Graceful shutdown on interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down")
		close(stopTick)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("server shutdown", "error", err)
		}
	}()

	log.Info("ordercore engine listening", "addr", cfg.ListenAddr, "tick_rate_hz", cfg.TickRateHz)

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		fatal(fmt.Sprintf("server error: %v", err))
	}
}

// scenarioAgent is one unit of the scenario file.
type scenarioAgent struct {
	ID                domain.AgentID     `json:"id"`
	Faction           string             `json:"faction"`
	Location          [2]float64         `json:"location"`
	Health            float64            `json:"health"`
	MoveSpeed         float64            `json:"move_speed"`
	AttackRange       float64            `json:"attack_range"`
	AcquisitionRadius float64            `json:"acquisition_radius"`
	ChaseDistance     float64            `json:"chase_distance"`
	FormationRank     int                `json:"formation_rank"`
	Tags              []tags.Tag         `json:"tags"`
	AutoOrders        []domain.OrderSlot `json:"auto_orders"`
	HumanControlled   bool               `json:"human_controlled"`
}

// loadScenario spawns the agents declared in the scenario file, attaches
// the event recorder and restores persisted human auto-order toggles.
func loadScenario(path string, world *sim.World, recorder *store.Recorder, db *sql.DB, log *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scenario file: %w", err)
	}
	var agents []scenarioAgent
	if err := json.Unmarshal(raw, &agents); err != nil {
		return fmt.Errorf("parse scenario JSON: %w", err)
	}

	autoRepo := &store.AutoOrderRepo{}
	ctx := context.Background()

	for _, sa := range agents {
		_, err := world.Spawn(sim.AgentConfig{
			ID:                sa.ID,
			Faction:           sa.Faction,
			Location:          orb.Point{sa.Location[0], sa.Location[1]},
			Health:            sa.Health,
			MoveSpeed:         sa.MoveSpeed,
			AttackRange:       sa.AttackRange,
			AcquisitionRadius: sa.AcquisitionRadius,
			ChaseDistance:     sa.ChaseDistance,
			FormationRank:     sa.FormationRank,
			Tags:              sa.Tags,
			AutoOrders:        sa.AutoOrders,
			HumanControlled:   sa.HumanControlled,
		})
		if err != nil {
			return fmt.Errorf("spawn %s: %w", sa.ID, err)
		}
		recorder.Attach(world.Controller(sa.ID))

		saved, err := autoRepo.States(ctx, db, sa.ID)
		if err != nil {
			return fmt.Errorf("restore auto-orders for %s: %w", sa.ID, err)
		}
		coord := world.Coordinator(sa.ID)
		for slot, enabled := range saved {
			if err := coord.SetEnabled(slot, enabled); err != nil {
				log.Warn("dropping stale auto-order state", "agent", sa.ID, "slot", slot.Type, "error", err)
			}
		}
	}

	log.Info("scenario loaded", "agents", len(agents))
	return nil
}

// runTicks drives the simulation and writes periodic snapshots until stop
// closes.
func runTicks(world *sim.World, mu *sync.Mutex, cfg *config.Config, snapshots *store.SnapshotRepo, db *sql.DB, log *slog.Logger, stop <-chan struct{}) {
	dt := 1.0 / float64(cfg.TickRateHz)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			mu.Lock()
			world.Step(dt)
			tick := world.Tick()
			var payload []byte
			if cfg.SnapshotIntervalTicks > 0 && tick%int64(cfg.SnapshotIntervalTicks) == 0 {
				var err error
				payload, err = json.Marshal(world.Dump())
				if err != nil {
					log.Error("marshal snapshot", "tick", tick, "error", err)
					payload = nil
				}
			}
			mu.Unlock()

			if payload != nil {
				if err := snapshots.Save(ctx, db, tick, payload, time.Now().Unix()); err != nil {
					log.Error("save snapshot", "tick", tick, "error", err)
					continue
				}
				if err := snapshots.Prune(ctx, db, cfg.SnapshotKeep); err != nil {
					log.Error("prune snapshots", "error", err)
				}
			}
		}
	}
}

// discoverConfig looks for config.json next to the executable, then in the cwd.
func discoverConfig() string {
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "config.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if _, err := os.Stat("config.json"); err == nil {
		return "config.json"
	}
	return ""
}

func fatal(msg string) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	os.Exit(1)
}
