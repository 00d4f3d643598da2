// Package roster publishes wallet evaluation records as a self-contained
// SQLite artifact. Publication is atomic: the new artifact is written to a
// unique temp path, integrity-checked, then renamed over the published path.
// A reader of the published path sees either the old complete artifact or
// the new one, never a half-written file.
package roster

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"wallet-scout/internal/domain"
)

const schema = `
CREATE TABLE wallets (
	address              TEXT PRIMARY KEY NOT NULL,
	status               TEXT NOT NULL DEFAULT 'CANDIDATE',
	score                REAL NOT NULL DEFAULT 0,
	roi_7d               REAL,
	roi_30d              REAL,
	trade_count_30d      INTEGER,
	win_rate             REAL,
	max_drawdown_30d     REAL,
	avg_trade_size_sol   REAL,
	avg_entry_delay_sec  REAL,
	profit_factor        REAL,
	avg_win_sol          REAL,
	avg_loss_sol         REAL,
	realized_pnl_30d_sol REAL,
	last_trade_at        INTEGER,
	promoted_at          INTEGER,
	expires_at           INTEGER,
	notes                TEXT NOT NULL DEFAULT '',
	archetype            TEXT NOT NULL DEFAULT '',
	created_at           INTEGER NOT NULL,
	updated_at           INTEGER NOT NULL
);

CREATE INDEX idx_wallets_status ON wallets (status);
CREATE INDEX idx_wallets_score ON wallets (score DESC);
`

const insertWalletQuery = `
INSERT INTO wallets (
	address, status, score,
	roi_7d, roi_30d, trade_count_30d, win_rate, max_drawdown_30d,
	avg_trade_size_sol, avg_entry_delay_sec, profit_factor,
	avg_win_sol, avg_loss_sol, realized_pnl_30d_sol,
	last_trade_at, promoted_at, expires_at,
	notes, archetype, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Writer publishes rosters to a fixed filesystem path.
type Writer struct {
	path string
	log  *zap.Logger
}

// NewWriter creates a Writer publishing to path.
func NewWriter(path string, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{path: path, log: log}
}

// Path returns the published artifact path.
func (w *Writer) Path() string {
	return w.path
}

// Publish writes records to a fresh artifact and atomically replaces the
// published one. On any failure the temp artifact is removed and the
// previously published artifact is left untouched.
func (w *Writer) Publish(ctx context.Context, records []*domain.WalletRecord) (err error) {
	tmp := w.tempPath()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err = writeArtifact(ctx, tmp, records); err != nil {
		return fmt.Errorf("write roster artifact: %w", err)
	}
	if err = verifyArtifact(ctx, tmp, len(records)); err != nil {
		return fmt.Errorf("verify roster artifact: %w", err)
	}
	if err = os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("replace roster artifact: %w", err)
	}

	w.log.Info("roster published",
		zap.String("path", w.path), zap.Int("records", len(records)))
	return nil
}

// tempPath builds a temp path unique to this publish run so overlapping
// runs cannot clobber each other's in-progress artifact.
func (w *Writer) tempPath() string {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	return filepath.Join(dir, fmt.Sprintf(".%s.%d.%d.%08x.tmp",
		base, os.Getpid(), time.Now().UnixNano(), rand.Uint32()))
}

func writeArtifact(ctx context.Context, path string, records []*domain.WalletRecord) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertWalletQuery)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.Address, string(rec.Status), rec.Score,
			rec.ROI7D, rec.ROI30D, rec.TradeCount30D, rec.WinRate, rec.MaxDrawdown30D,
			rec.AvgTradeSizeSOL, rec.AvgEntryDelaySec, rec.ProfitFactor,
			rec.AvgWinSOL, rec.AvgLossSOL, rec.RealizedPnL30DSOL,
			rec.LastTradeAt, rec.PromotedAt, rec.ExpiresAt,
			rec.Notes, rec.Archetype, rec.CreatedAt, rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert wallet %s: %w", rec.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// verifyArtifact runs the integrity check against the temp artifact before
// it is allowed to replace the published one.
func verifyArtifact(ctx context.Context, path string, wantRecords int) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	var check string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&check); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if check != "ok" {
		return fmt.Errorf("integrity check reported %q", check)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wallets`).Scan(&count); err != nil {
		return fmt.Errorf("count wallets: %w", err)
	}
	if count != wantRecords {
		return fmt.Errorf("artifact has %d records, expected %d", count, wantRecords)
	}

	var blank int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wallets WHERE address IS NULL OR address = ''`).Scan(&blank); err != nil {
		return fmt.Errorf("check addresses: %w", err)
	}
	if blank > 0 {
		return fmt.Errorf("artifact has %d records with blank address", blank)
	}

	return nil
}
