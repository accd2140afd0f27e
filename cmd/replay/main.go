package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "galaxytrade/internal/persistence/log"
	"galaxytrade/internal/sim/economy"
	"galaxytrade/internal/sim/tuning"
)

var errStop = errors.New("stop")

func main() {
	var (
		runDir     = flag.String("run", "", "run directory (contains tuning.yaml and events/)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <run>/tuning.yaml)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *runDir == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*runDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	r, err := economy.NewReplayer(economy.ParamsFromTuning(tune))
	if err != nil {
		fmt.Fprintln(os.Stderr, "replayer:", err)
		os.Exit(1)
	}

	files, err := persistlog.ListEventFiles(persistlog.EventsDir(*runDir))
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", persistlog.EventsDir(*runDir))
		os.Exit(1)
	}

	for _, path := range files {
		err := persistlog.ReadTickFile(path, func(entry economy.TickLogEntry) error {
			if *toTick != 0 && entry.Tick > *toTick {
				return errStop
			}
			if err := r.Apply(entry); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			return nil
		})
		if errors.Is(err, errStop) {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
	}

	s := r.Engine().Snapshot()
	fmt.Printf("replay ok: checked=%d ticks final_tick=%d credits=%.2f inventory=%d in_transit=%d warehouse=%d/%d\n",
		r.Checked(), s.Tick, s.Credits, s.Inventory, s.PendingShipments, s.WarehouseOccupancy, s.WarehouseCapacity)
	fmt.Printf("totals: produced=%d shipped=%d sold=%d lost=%d disruptions=%d stored=%d returned=%d revenue=%.2f costs=%.2f\n",
		s.Stats.Produced, s.Stats.Shipped, s.Stats.Sold, s.Stats.Lost, s.Stats.Disruptions, s.Stats.Stored, s.Stats.ReturnedDispatched, s.Stats.Revenue, s.Stats.Costs())
}
