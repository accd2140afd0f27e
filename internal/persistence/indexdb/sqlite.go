package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"galaxytrade/internal/sim/economy"
	"galaxytrade/internal/sim/tuning"
)

// SQLiteIndex is a write-only read model of a run's tick log. The simulation
// never reads it back; JSONL logs remain the source of truth.
type SQLiteIndex struct {
	db    *sql.DB
	stmts statements

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick  atomic.Uint64
	writeErrs atomic.Uint64
}

type req struct {
	tick economy.TickLogEntry
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTickTotal uint64
	WriteErrTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	stmts, err := prepareStatements(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:    db,
		stmts: stmts,
		ch:    make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			actions INTEGER NOT NULL,
			draws INTEGER NOT NULL,
			events INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			amount INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			shipment_id TEXT,
			ref TEXT,
			amount INTEGER NOT NULL,
			lost INTEGER NOT NULL,
			cost REAL NOT NULL,
			revenue REAL NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type_tick ON events(type, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_events_shipment ON events(shipment_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry economy.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{tick: entry}:
	default:
		// Drop if the indexer falls behind.
		s.dropTick.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTick.Load(),
		WriteErrTotal: s.writeErrs.Load(),
	}
}

// UpsertTuning stores the run's effective tuning under meta.tuning.
func (s *SQLiteIndex) UpsertTuning(t tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, "tuning", string(b))
	return err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	defer s.stmts.close()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.writeErrs.Add(1)
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.writeErrs.Add(1)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		s.writeErrs.Add(1)
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			s.dropTick.Add(1)
			continue
		}
		if err := s.stmts.writeEntry(tx, r.tick, &opCount); err != nil {
			rollback()
			continue
		}
		flushIfNeeded()
	}

	commit()
}

type statements struct {
	insertTick   *sql.Stmt
	insertAction *sql.Stmt
	insertEvent  *sql.Stmt
}

func prepareStatements(db *sql.DB) (statements, error) {
	var st statements
	var err error
	if st.insertTick, err = db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,actions,draws,events,raw_json) VALUES(?,?,?,?,?,?)`); err != nil {
		return st, fmt.Errorf("prepare ticks insert: %w", err)
	}
	if st.insertAction, err = db.Prepare(`INSERT OR REPLACE INTO actions(tick,seq,type,amount) VALUES(?,?,?,?)`); err != nil {
		st.close()
		return statements{}, fmt.Errorf("prepare actions insert: %w", err)
	}
	if st.insertEvent, err = db.Prepare(`INSERT OR REPLACE INTO events(tick,seq,type,shipment_id,ref,amount,lost,cost,revenue) VALUES(?,?,?,?,?,?,?,?,?)`); err != nil {
		st.close()
		return statements{}, fmt.Errorf("prepare events insert: %w", err)
	}
	return st, nil
}

func (st statements) close() {
	for _, s := range []*sql.Stmt{st.insertTick, st.insertAction, st.insertEvent} {
		if s != nil {
			_ = s.Close()
		}
	}
}

func (st statements) writeEntry(tx *sql.Tx, entry economy.TickLogEntry, opCount *int) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	tick := int64(entry.Tick)
	if _, err := tx.Stmt(st.insertTick).Exec(tick, entry.Digest, len(entry.Actions), len(entry.Draws), len(entry.Events), string(raw)); err != nil {
		return err
	}
	*opCount++
	for i, a := range entry.Actions {
		if _, err := tx.Stmt(st.insertAction).Exec(tick, i, a.Type, a.Amount); err != nil {
			return err
		}
		*opCount++
	}
	for i, ev := range entry.Events {
		if _, err := tx.Stmt(st.insertEvent).Exec(tick, i, ev.Type, nullString(ev.ShipmentID), nullString(ev.Ref), ev.Amount, ev.Lost, ev.Cost, ev.Revenue); err != nil {
			return err
		}
		*opCount++
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
