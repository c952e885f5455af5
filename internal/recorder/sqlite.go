package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"GridSentinel/internal/model"
)

// barsPerInsert bounds the number of rows in one multi-row INSERT.
const barsPerInsert = 200

// SQLiteRecorder persists cycle outcomes and bar snapshots to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *zap.Logger
	mu  sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log.Named("recorder"),
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id                TEXT PRIMARY KEY,
			started_at        INTEGER NOT NULL,
			finished_at       INTEGER NOT NULL,
			symbol            TEXT NOT NULL,
			timeframe         TEXT NOT NULL,
			rsi_period        INTEGER,
			ma_period         INTEGER,
			rsi_oversold      REAL,
			rsi_overbought    REAL,
			cumulative_return REAL,
			evaluated         INTEGER,
			viable            INTEGER,
			signal            INTEGER,
			latest_close      REAL,
			latest_ma         REAL,
			latest_rsi        REAL,
			wilder_rsi        REAL,
			error             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at)`,

		`CREATE TABLE IF NOT EXISTS orders (
			order_id  TEXT NOT NULL,
			cycle_id  TEXT NOT NULL,
			symbol    TEXT NOT NULL,
			side      TEXT NOT NULL,
			quantity  TEXT NOT NULL,
			price     REAL,
			status    TEXT,
			dry_run   INTEGER NOT NULL,
			placed_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_cycle ON orders(cycle_id)`,

		`CREATE TABLE IF NOT EXISTS bars (
			cycle_id TEXT NOT NULL,
			kind     TEXT NOT NULL,
			ts       INTEGER NOT NULL,
			open     REAL,
			high     REAL,
			low      REAL,
			close    REAL,
			volume   REAL,
			PRIMARY KEY (cycle_id, kind, ts)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordBars(ctx context.Context, cycleID uuid.UUID, kind BarKind, series model.PriceSeries) error {
	if len(series) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(series); start += barsPerInsert {
		end := min(start+barsPerInsert, len(series))
		insert := r.sq.Insert("bars").
			Columns("cycle_id", "kind", "ts", "open", "high", "low", "close", "volume")
		for _, b := range series[start:end] {
			insert = insert.Values(cycleID.String(), string(kind), b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build bars insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert bars: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordCycle(ctx context.Context, report *model.CycleReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errText sql.NullString
	if report.Err != nil {
		errText = sql.NullString{String: report.Err.Error(), Valid: true}
	}
	p := report.Best.Params

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args, err := r.sq.Insert("cycles").
		Columns(
			"id", "started_at", "finished_at", "symbol", "timeframe",
			"rsi_period", "ma_period", "rsi_oversold", "rsi_overbought", "cumulative_return",
			"evaluated", "viable", "signal", "latest_close", "latest_ma", "latest_rsi", "wilder_rsi", "error",
		).
		Values(
			report.ID.String(), report.StartedAt.Unix(), report.FinishedAt.Unix(), report.Symbol, report.Timeframe,
			p.RSIPeriod, p.MAPeriod, p.RSIOversold, p.RSIOverbought, report.Best.CumulativeReturn,
			report.Evaluated, report.Viable, int(report.Signal), report.LatestClose, report.LatestMA,
			report.LatestRSI, report.WilderRSI, errText,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build cycle insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	if o := report.Order; o != nil {
		query, args, err := r.sq.Insert("orders").
			Columns("order_id", "cycle_id", "symbol", "side", "quantity", "price", "status", "dry_run", "placed_at").
			Values(o.OrderID, report.ID.String(), o.Symbol, string(o.Side), o.Quantity.String(),
				o.Price, o.Status, o.DryRun, o.PlacedAt.Unix()).
			ToSql()
		if err != nil {
			return fmt.Errorf("build order insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
