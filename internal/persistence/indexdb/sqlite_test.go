package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"galaxytrade/internal/protocol"
	"galaxytrade/internal/sim/economy"
	"galaxytrade/internal/sim/tuning"
)

func TestSQLiteIndex_WritesTicksActionsEvents(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.sqlite")
	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("upsert tuning: %v", err)
	}

	p := economy.DefaultParams()
	p.Route.RiskBaseline = 0
	e, err := economy.NewEngine(p, economy.NewScripted())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	e.AddTickLogger(idx)
	e.Produce()
	if _, _, err := e.Ship(10); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if _, err := e.Advance(3); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	count := func(q string, args ...any) int {
		t.Helper()
		var n int
		if err := db.QueryRow(q, args...).Scan(&n); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
		return n
	}
	if n := count(`SELECT COUNT(*) FROM ticks`); n != 3 {
		t.Fatalf("ticks=%d want 3", n)
	}
	if n := count(`SELECT COUNT(*) FROM actions WHERE tick=1`); n != 2 {
		t.Fatalf("actions at tick 1=%d want 2", n)
	}
	if n := count(`SELECT COUNT(*) FROM events WHERE type=? AND tick=3`, protocol.EventArrival); n != 1 {
		t.Fatalf("arrival events=%d want 1", n)
	}
	var revenue float64
	if err := db.QueryRow(`SELECT revenue FROM events WHERE type=?`, protocol.EventArrival).Scan(&revenue); err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if revenue != 100 {
		t.Fatalf("revenue=%v want 100", revenue)
	}
	if n := count(`SELECT COUNT(*) FROM meta WHERE key='tuning'`); n != 1 {
		t.Fatalf("tuning meta missing")
	}
}

func TestSQLiteIndex_DropsWhenQueueFull(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{tick: economy.TickLogEntry{Tick: 1}}

	_ = s.WriteTick(economy.TickLogEntry{Tick: 2})

	st := s.Stats()
	if st.DropTickTotal != 1 {
		t.Fatalf("DropTickTotal=%d want=1", st.DropTickTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_NilAndClosedAreNoOps(t *testing.T) {
	var nilIdx *SQLiteIndex
	if err := nilIdx.WriteTick(economy.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("nil write: %v", err)
	}
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "x", "run.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := idx.WriteTick(economy.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("closed write: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestPrepareStatements_FailsWithoutSchema(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "bare.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := prepareStatements(db); err == nil {
		t.Fatalf("expected prepare error on a database without tables")
	}
	if err := initSchema(db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	st, err := prepareStatements(db)
	if err != nil {
		t.Fatalf("prepare after schema: %v", err)
	}
	st.close()
}
