package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/red-sands/internal/api"
	"github.com/talgya/red-sands/internal/config"
	"github.com/talgya/red-sands/internal/engine"
	"github.com/talgya/red-sands/internal/entropy"
	"github.com/talgya/red-sands/internal/persistence"
	"github.com/talgya/red-sands/internal/scenario"
	"github.com/talgya/red-sands/internal/task"
	"github.com/talgya/red-sands/internal/terrain"
	"github.com/talgya/red-sands/internal/units"
)

func runCmd() *cobra.Command {
	var sols int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the colony",
		Long: "Run the colony in real time with the HTTP API, or headless for a fixed\n" +
			"number of sols with --sols.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runColony(ctx, cfg, sols, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&sols, "sols", 0, "run headless for this many sols, then exit")
	cmd.Flags().Int("port", 8080, "HTTP API port (0 disables)")
	cmd.Flags().Float64("speed", 1, "pulses per interval (0 = paused)")
	_ = v.BindPFlag("api.port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("speed", cmd.Flags().Lookup("speed"))
	return cmd
}

// buildWorld creates the colony from the scenario file, or procedurally when
// none is configured, on freshly generated terrain.
func buildWorld(cfg config.Config) (*task.World, error) {
	rng := entropy.New(cfg.Seed)
	u := units.NewManager(rng.Child(1))

	if cfg.Scenario != "" {
		sc, err := scenario.Load(cfg.Scenario)
		if err != nil {
			return nil, fmt.Errorf("load scenario: %w", err)
		}
		if err := sc.Build(u); err != nil {
			return nil, fmt.Errorf("build scenario: %w", err)
		}
		slog.Info("scenario loaded", "name", sc.Name, "path", cfg.Scenario)
	} else {
		spawn := units.DefaultSpawnConfig()
		spawn.Seed = rng.Seed()
		spawn.Settlements = cfg.World.Settlements
		spawn.PeoplePerSettlement = cfg.World.PeoplePerSettlement
		spawn.VehiclesPerSettlement = cfg.World.VehiclesPerSettlement
		spawn.SpreadKM = cfg.World.SpreadKM
		if err := units.NewSpawner(rng.Seed()).Populate(u, spawn); err != nil {
			return nil, fmt.Errorf("populate colony: %w", err)
		}
	}

	gen := terrain.DefaultGenConfig()
	gen.Rows = cfg.Terrain.Rows
	gen.Seed = rng.Seed()
	slog.Info("generating terrain...", "rows", gen.Rows)
	grid, err := terrain.Generate(gen)
	if err != nil {
		return nil, fmt.Errorf("generate terrain: %w", err)
	}

	persons, vehicles, settlements := u.Counts()
	slog.Info("colony ready",
		"persons", persons,
		"vehicles", vehicles,
		"settlements", settlements,
		"terrain_samples", humanize.Comma(int64(grid.Samples())),
	)
	for _, s := range u.Settlements() {
		slog.Debug("settlement", "name", s.Name, "location", s.Location.String(),
			"elevation_km", fmt.Sprintf("%.2f", grid.Elevation(s.Location)), "population", s.Population())
	}

	return task.NewWorld(u, grid, rng.Child(2)), nil
}

// runColony runs until ctx is cancelled, or for sols sols when sols > 0.
// The journal is written every sol and once more on the way out.
func runColony(ctx context.Context, cfg config.Config, sols int, out io.Writer) error {
	var db *persistence.DB
	if cfg.DB.Path != "" {
		if dir := filepath.Dir(cfg.DB.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
		}
		var err error
		db, err = persistence.Open(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		slog.Info("journal opened", "path", cfg.DB.Path)
	}

	world, err := buildWorld(cfg)
	if err != nil {
		return err
	}

	sim := engine.NewSimulation(world, cfg.PulseSeconds)
	if db != nil {
		if err := db.SaveMeta("seed", strconv.FormatInt(cfg.Seed, 10)); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
		if err := db.SaveMeta("scenario", cfg.Scenario); err != nil {
			return fmt.Errorf("save meta: %w", err)
		}
	}

	eng := engine.NewEngine()
	eng.PulseSeconds = cfg.PulseSeconds
	eng.Interval = cfg.Interval
	eng.SetSpeed(cfg.Speed)
	eng.OnPulse = sim.Pulse
	eng.OnSol = func(tick uint64, sol int) {
		sim.TickSol(tick, sol)
		if db != nil {
			if err := db.SaveRun(sim); err != nil {
				slog.Error("sol journal save failed", "error", err)
			}
		}
	}

	if sols > 0 {
		for engine.SolOf(eng.Tick, eng.PulseSeconds) < sols && ctx.Err() == nil {
			eng.Step()
		}
	} else {
		if cfg.API.Port > 0 {
			if cfg.API.AdminKey == "" {
				slog.Warn("api.adminKey not set; admin POST endpoints are disabled")
			}
			server := &api.Server{
				Sim:              sim,
				Eng:              eng,
				DB:               db,
				Port:             cfg.API.Port,
				AdminKey:         cfg.API.AdminKey,
				CORSOrigins:      cfg.API.CORSOrigins,
				InterventionRate: cfg.API.InterventionRate,
			}
			go func() {
				if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("HTTP server error", "error", err)
				}
			}()
			fmt.Fprintf(out, "API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
		}
		fmt.Fprintln(out, "Starting simulation... (Ctrl+C to stop)")
		eng.Run(ctx)
	}

	if db != nil {
		slog.Info("final journal save...")
		if err := db.SaveRun(sim); err != nil {
			return fmt.Errorf("final save: %w", err)
		}
	}

	st := sim.Status()
	fmt.Fprintf(out, "Stopped at %s: %s km driven, %s kg harvested, %d vehicles broken down.\n",
		engine.SimTime(st.Tick, st.PulseSeconds),
		humanize.Comma(int64(st.Stats.OdometerKM)),
		humanize.CommafWithDigits(st.Stats.TotalHarvest, 1),
		st.Stats.VehiclesBroken,
	)
	return nil
}
