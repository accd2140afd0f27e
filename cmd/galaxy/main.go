package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"galaxytrade/internal/cli"
	"galaxytrade/internal/persistence/indexdb"
	persistlog "galaxytrade/internal/persistence/log"
	"galaxytrade/internal/sim/economy"
	"galaxytrade/internal/sim/tuning"
	"galaxytrade/internal/transport/observer"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml (defaults are used if missing)")
		seed       = flag.Int64("seed", 0, "risk seed (0: use tuning seed)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		runID      = flag.String("run", "", "run id (default: UTC timestamp)")
		disableLog = flag.Bool("disable_log", false, "disable the compressed tick log")
		enableDB   = flag.Bool("db", false, "index ticks and events into <run>/index.sqlite")
		observe    = flag.String("observe", "", "observer websocket listen address, e.g. 127.0.0.1:8081 (empty to disable)")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[galaxy] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := loadTuning(*tuningPath, logger)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	e, err := economy.NewEngine(economy.ParamsFromTuning(tune), economy.NewRandom(tune.Seed))
	if err != nil {
		logger.Fatalf("engine: %v", err)
	}

	id := strings.TrimSpace(*runID)
	if id == "" {
		id = time.Now().UTC().Format("20060102-150405")
	}
	runDir := filepath.Join(*dataDir, "runs", id)
	if !*disableLog {
		used, err := persistlog.HasEventFiles(runDir)
		if err != nil {
			logger.Fatalf("run dir: %v", err)
		}
		if used {
			logger.Fatalf("run %q already has a tick log; pick another -run id", id)
		}
	}
	if !*disableLog || *enableDB {
		if err := os.MkdirAll(runDir, 0o755); err != nil {
			logger.Fatalf("run dir: %v", err)
		}
		if err := writeEffectiveTuning(runDir, tune); err != nil {
			logger.Printf("write effective tuning: %v", err)
		}
	}

	if !*disableLog {
		tl := persistlog.NewTickLogger(runDir)
		defer tl.Close()
		e.AddTickLogger(loggedSink{name: "tick log", sink: tl, log: logger})
		logger.Printf("tick log: %s", persistlog.EventsDir(runDir))
	}

	if *enableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(runDir, "index.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer func() {
			st := idx.Stats()
			if st.DropTickTotal > 0 || st.WriteErrTotal > 0 {
				logger.Printf("index: dropped=%d write_errors=%d", st.DropTickTotal, st.WriteErrTotal)
			}
			_ = idx.Close()
		}()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index: upsert tuning: %v", err)
		}
		e.AddTickLogger(loggedSink{name: "index", sink: idx, log: logger})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shell := cli.NewShell(e, os.Stdout)

	if addr := strings.TrimSpace(*observe); addr != "" {
		obs := observer.NewServer(e, logger)
		e.AddTickLogger(obs)
		shell.AfterCommand = obs.Publish

		mux := http.NewServeMux()
		mux.HandleFunc("/v1/observe", obs.WSHandler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Printf("observer feed on ws://%s/v1/observe", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("observer: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := shell.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("shell: %v", err)
	}
}

func loadTuning(path string, logger *log.Logger) (tuning.Tuning, error) {
	tune, err := tuning.Load(path)
	if err == nil {
		return tune, nil
	}
	if os.IsNotExist(err) {
		logger.Printf("tuning not found (%s); using defaults", path)
		return tuning.Defaults(), nil
	}
	return tune, err
}

// loggedSink keeps a failing sink from going unnoticed without failing the tick.
type loggedSink struct {
	name string
	sink economy.TickLogger
	log  *log.Logger
}

func (s loggedSink) WriteTick(entry economy.TickLogEntry) error {
	if err := s.sink.WriteTick(entry); err != nil {
		s.log.Printf("%s: tick %d: %v", s.name, entry.Tick, err)
	}
	return nil
}
