package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"MarketScreener/internal/model"

	"github.com/phuslu/log"
)

// dialect captures the differences between the supported databases.
type dialect struct {
	name       string
	serialPK   string
	realType   string
	dollarArgs bool
}

var (
	sqliteDialect   = dialect{name: "sqlite", serialPK: "INTEGER PRIMARY KEY AUTOINCREMENT", realType: "REAL"}
	postgresDialect = dialect{name: "postgres", serialPK: "BIGSERIAL PRIMARY KEY", realType: "DOUBLE PRECISION", dollarArgs: true}
)

// rebind rewrites ? placeholders to $n for postgres.
func (d dialect) rebind(query string) string {
	if !d.dollarArgs {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// SQLRecorder persists runs through database/sql.
type SQLRecorder struct {
	db      *sql.DB
	dialect dialect
	mu      sync.Mutex
}

func newSQLRecorder(db *sql.DB, d dialect) (*SQLRecorder, error) {
	r := &SQLRecorder{db: db, dialect: d}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	num := r.dialect.realType
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS screen_runs (
			id          TEXT PRIMARY KEY,
			started_at  BIGINT NOT NULL,
			preset      TEXT,
			scoring     TEXT,
			duration_ms BIGINT,
			scanned     INTEGER,
			matched     INTEGER,
			rejected    INTEGER,
			skipped     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON screen_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS screen_results (
			id              ` + r.dialect.serialPK + `,
			run_id          TEXT NOT NULL REFERENCES screen_runs(id),
			rank            INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			name            TEXT,
			sector          TEXT,
			price           ` + num + `,
			market_cap      ` + num + `,
			score           INTEGER,
			rsi_14          ` + num + `,
			adr_20          ` + num + `,
			ma_50           ` + num + `,
			ma_200          ` + num + `,
			distance_ma_200 ` + num + `,
			perfect_order   BOOLEAN
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON screen_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_symbol ON screen_results(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullable(v model.Value) sql.NullFloat64 {
	f, ok := v.Get()
	return sql.NullFloat64{Float64: f, Valid: ok}
}

func fromNullable(n sql.NullFloat64) model.Value {
	if !n.Valid {
		return model.Absent
	}
	return model.Some(n.Float64)
}

// RecordRun stores the run and its ranked results in one transaction.
func (r *SQLRecorder) RecordRun(ctx context.Context, rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.dialect.rebind(`INSERT INTO screen_runs
		(id, started_at, preset, scoring, duration_ms, scanned, matched, rejected, skipped)
		VALUES (?,?,?,?,?,?,?,?,?)`),
		rec.ID, rec.StartedAt.UnixMilli(), rec.Preset, rec.Scoring, rec.DurationMS,
		rec.Scanned, rec.Matched, rec.Rejected, rec.Skipped,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.dialect.rebind(`INSERT INTO screen_results
		(run_id, rank, symbol, name, sector, price, market_cap, score,
		 rsi_14, adr_20, ma_50, ma_200, distance_ma_200, perfect_order)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`))
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range rec.Results {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, res.Rank, res.Symbol, res.Name, res.Sector, res.Price, res.MarketCap, res.Score,
			nullable(res.RSI14), nullable(res.ADR20), nullable(res.MA50), nullable(res.MA200),
			nullable(res.DistanceMA200), res.PerfectOrder,
		); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Debug().Str("run", rec.ID).Int("results", len(rec.Results)).Msg("run recorded")
	return nil
}

// LatestRun loads the most recent run with its results in rank order.
func (r *SQLRecorder) LatestRun(ctx context.Context) (*RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &RunRecord{}
	var started int64
	var preset, scoring sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT id, started_at, preset, scoring, duration_ms, scanned, matched, rejected, skipped
		FROM screen_runs ORDER BY started_at DESC, id DESC LIMIT 1`).
		Scan(&rec.ID, &started, &preset, &scoring, &rec.DurationMS, &rec.Scanned, &rec.Matched, &rec.Rejected, &rec.Skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	rec.StartedAt = time.UnixMilli(started).UTC()
	rec.Preset, rec.Scoring = preset.String, scoring.String

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(`SELECT rank, symbol, name, sector, price, market_cap, score,
		rsi_14, adr_20, ma_50, ma_200, distance_ma_200, perfect_order
		FROM screen_results WHERE run_id = ? ORDER BY rank`), rec.ID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	rec.Results = []ResultRecord{}
	for rows.Next() {
		var res ResultRecord
		var name, sector sql.NullString
		var rsi, adr, ma50, ma200, dist sql.NullFloat64
		if err := rows.Scan(&res.Rank, &res.Symbol, &name, &sector, &res.Price, &res.MarketCap, &res.Score,
			&rsi, &adr, &ma50, &ma200, &dist, &res.PerfectOrder); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Name, res.Sector = name.String, sector.String
		res.RSI14, res.ADR20 = fromNullable(rsi), fromNullable(adr)
		res.MA50, res.MA200 = fromNullable(ma50), fromNullable(ma200)
		res.DistanceMA200 = fromNullable(dist)
		rec.Results = append(rec.Results, res)
	}
	return rec, rows.Err()
}

func (r *SQLRecorder) Close() error {
	return r.db.Close()
}
