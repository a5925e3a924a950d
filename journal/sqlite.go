package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the journal database at path and
// applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, symbol, side, entry_price, exit_price, quantity, pnl, pnl_percent, entry_time, exit_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Symbol, t.Side, t.EntryPrice,
		t.ExitPrice, t.Quantity, t.PnL, t.PnLPercent, t.EntryTime, t.ExitTime,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (time, run_id, balance, equity)
		VALUES (?, ?, ?, ?)`,
		e.Time, e.RunID, e.Balance, e.Equity,
	)
	return err
}

func (j *SQLite) RecordBacktestRun(r BacktestRun) error {
	_, err := j.db.Exec(`
		INSERT INTO backtest_runs
		(run_id, symbol, start_time, end_time, bars, initial_balance, final_balance,
		 total_trades, win_rate, max_drawdown, sharpe_ratio, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Symbol, r.Start, r.End, r.Bars, r.InitialBalance, r.FinalBalance,
		r.TotalTrades, r.WinRate, r.MaxDrawdown, r.SharpeRatio, r.CreatedAt,
	)
	return err
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, run_id, symbol, side, entry_price, exit_price, quantity, pnl, pnl_percent, entry_time, exit_time
		FROM trades
		WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
	}
	return rec, err
}

// ListTradesByRun returns all trades belonging to a run, oldest first.
func (j *SQLite) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, symbol, side, entry_price, exit_price, quantity, pnl, pnl_percent, entry_time, exit_time
		FROM trades
		WHERE run_id = ?
		ORDER BY exit_time ASC`, runID)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// ListTradesClosedBetween returns trades whose exit_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, symbol, side, entry_price, exit_price, quantity, pnl, pnl_percent, entry_time, exit_time
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// GetBacktestRun returns a stored run summary by ID.
func (j *SQLite) GetBacktestRun(runID string) (BacktestRun, error) {
	var r BacktestRun
	row := j.db.QueryRow(`
		SELECT run_id, symbol, start_time, end_time, bars, initial_balance, final_balance,
		       total_trades, win_rate, max_drawdown, sharpe_ratio, created_at
		FROM backtest_runs
		WHERE run_id = ?`, runID)

	err := row.Scan(
		&r.RunID, &r.Symbol, &r.Start, &r.End, &r.Bars,
		&r.InitialBalance, &r.FinalBalance, &r.TotalTrades,
		&r.WinRate, &r.MaxDrawdown, &r.SharpeRatio, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return BacktestRun{}, fmt.Errorf("backtest run %q not found", runID)
	}
	return r, err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	err := row.Scan(
		&rec.TradeID, &rec.RunID, &rec.Symbol, &rec.Side,
		&rec.EntryPrice, &rec.ExitPrice, &rec.Quantity,
		&rec.PnL, &rec.PnLPercent, &rec.EntryTime, &rec.ExitTime,
	)
	return rec, err
}

func collectTrades(rows *sql.Rows) ([]TradeRecord, error) {
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
