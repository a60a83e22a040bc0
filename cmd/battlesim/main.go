// Command battlesim runs a fixed number of simulation ticks over a
// scripted scenario and prints a JSON summary of the final snapshot (tick,
// simulated time, squad count). It exists to exercise
// the sim package end to end outside of a test binary, with optional CPU/
// memory profiling, following the profiling flag pattern used by the
// swarm-simulation example's cmd/simulation/main.go.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"battlesim/config"
	"battlesim/coords"
	"battlesim/sim"
	"battlesim/terrain"
	"battlesim/world"

	"go.uber.org/zap"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to file")
	ticks      = flag.Int("ticks", 300, "number of fixed ticks to advance")
	squadsPerSide = flag.Int("squads", 500, "squads spawned per faction")
	configPath = flag.String("config", "", "optional SimConfig JSON path (defaults built in)")
)

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "create cpu profile:", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintln(os.Stderr, "start cpu profile:", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg := config.DefaultSimConfig()
	if *configPath != "" {
		loaded, err := config.LoadSimConfig(*configPath)
		if err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
		cfg = loaded
	}

	terrainGrid := terrain.NewGrid(200, 200, coords.Position{}, cfg.CellSize)
	s := sim.New(cfg, terrainGrid, sim.WithLogger(logger))

	if err := s.SpawnMass(world.Blue, 500, 6000, *squadsPerSide, 400, 1, 4, 100); err != nil {
		logger.Fatal("spawn blue squads", zap.Error(err))
	}
	if err := s.SpawnMass(world.Red, 11500, 6000, *squadsPerSide, 400, 100000, 4, 100); err != nil {
		logger.Fatal("spawn red squads", zap.Error(err))
	}

	for id := uint32(1); id < uint32(*squadsPerSide)+1; id++ {
		s.IssueAttackMoveOrder(id, 11500, 6000)
	}
	for id := uint32(100000); id < uint32(100000+*squadsPerSide); id++ {
		s.IssueAttackMoveOrder(id, 500, 6000)
	}

	ctx := context.Background()
	for i := 0; i < *ticks; i++ {
		if err := s.Step(ctx, cfg.Rate.FixedTimestep()); err != nil {
			logger.Fatal("step", zap.Error(err))
		}
	}

	snap := s.Snapshot()
	out, err := json.MarshalIndent(struct {
		Tick   uint64 `json:"tick"`
		Time   float64 `json:"time"`
		Squads int     `json:"squad_count"`
	}{snap.Tick, snap.Time, len(snap.Squads)}, "", "  ")
	if err != nil {
		logger.Fatal("marshal snapshot summary", zap.Error(err))
	}
	fmt.Println(string(out))

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "create mem profile:", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintln(os.Stderr, "write mem profile:", err)
			os.Exit(1)
		}
	}
}
