// Package store provides the SQLite-backed savings ledger.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SavingsStore implements repository.SavingsRepository on SQLite.
type SavingsStore struct {
	db *sql.DB
}

// Open opens or creates the ledger database at the given path.
func Open(dbPath string) (*SavingsStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SavingsStore{db: db}, nil
}

// Close closes the ledger database.
func (s *SavingsStore) Close() error {
	return s.db.Close()
}

// Add inserts a new pending recommendation and returns its assigned id.
func (s *SavingsStore) Add(ctx context.Context, rec entity.Recommendation) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `INSERT INTO recommendations
		(title, type, description, account_id, estimated_monthly_savings,
		 risk_level, effort, status, created_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Title, rec.Type, rec.Description, rec.AccountID, rec.EstimatedMonthlySavings,
		string(rec.RiskLevel), string(rec.Effort), string(entity.StatusPending), now, rec.Notes,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting recommendation: %w", err)
	}
	return res.LastInsertId()
}

// Resolve moves a pending recommendation to a terminal status. The
// update is a single compare-and-set on the pending status, so two
// concurrent resolves of the same id cannot both succeed; the loser
// gets types.ErrInvalidTransition. Empty resolution notes leave the
// notes recorded at Add time in place.
func (s *SavingsStore) Resolve(ctx context.Context, id int64, status entity.RecommendationStatus, actualSavings *float64, notes string) (entity.Recommendation, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `UPDATE recommendations
		SET status = ?, resolved_at = ?, actual_monthly_savings = ?,
		    notes = COALESCE(NULLIF(?, ''), notes)
		WHERE id = ? AND status = 'pending'`,
		string(status), now, actualSavings, notes, id,
	)
	if err != nil {
		return entity.Recommendation{}, fmt.Errorf("resolving recommendation %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return entity.Recommendation{}, err
	}
	if affected == 0 {
		// Either the row does not exist or it is already resolved.
		var current string
		err := s.db.QueryRowContext(ctx, "SELECT status FROM recommendations WHERE id = ?", id).Scan(&current)
		if err == sql.ErrNoRows {
			return entity.Recommendation{}, types.ErrNotFound
		}
		if err != nil {
			return entity.Recommendation{}, err
		}
		return entity.Recommendation{}, types.ErrInvalidTransition
	}

	return s.Get(ctx, id)
}

// Get returns one recommendation by id.
func (s *SavingsStore) Get(ctx context.Context, id int64) (entity.Recommendation, error) {
	row := s.db.QueryRowContext(ctx, selectRecommendation+" WHERE id = ?", id)
	rec, err := scanRecommendation(row)
	if err == sql.ErrNoRows {
		return entity.Recommendation{}, types.ErrNotFound
	}
	return rec, err
}

// List returns recommendations newest first, optionally filtered by
// status.
func (s *SavingsStore) List(ctx context.Context, status entity.RecommendationStatus) ([]entity.Recommendation, error) {
	query := selectRecommendation
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var recs []entity.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Summary aggregates the whole ledger into ROI figures. Accuracy only
// counts implemented rows that carry both a positive estimate and an
// actual value. Both reads run inside one read transaction so the
// counts and the accuracy figures come from the same ledger state even
// while resolves commit concurrently.
func (s *SavingsStore) Summary(ctx context.Context) (entity.RoiSummary, error) {
	var summary entity.RoiSummary

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return entity.RoiSummary{}, fmt.Errorf("summarizing ledger: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(status = 'pending'), 0),
		COALESCE(SUM(status = 'implemented'), 0),
		COALESCE(SUM(status = 'rejected'), 0),
		COALESCE(SUM(estimated_monthly_savings), 0),
		COALESCE(SUM(CASE WHEN status = 'implemented' THEN estimated_monthly_savings ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'implemented' THEN COALESCE(actual_monthly_savings, 0) ELSE 0 END), 0)
		FROM recommendations`).Scan(
		&summary.Total, &summary.Pending, &summary.Implemented, &summary.Rejected,
		&summary.EstimatedSavingsTotal, &summary.ImplementedSavingsEstimated, &summary.ActualSavingsTotal,
	)
	if err != nil {
		return entity.RoiSummary{}, fmt.Errorf("summarizing ledger: %w", err)
	}

	if summary.Total > 0 {
		summary.ImplementationRatePct = 100 * float64(summary.Implemented) / float64(summary.Total)
	}
	summary.AnnualProjection = summary.ActualSavingsTotal * 12

	rows, err := tx.QueryContext(ctx, `SELECT estimated_monthly_savings, actual_monthly_savings
		FROM recommendations
		WHERE status = 'implemented' AND estimated_monthly_savings > 0 AND actual_monthly_savings IS NOT NULL`)
	if err != nil {
		return entity.RoiSummary{}, err
	}
	defer func() { _ = rows.Close() }()

	var accSum float64
	var accN int
	for rows.Next() {
		var estimated, actual float64
		if err := rows.Scan(&estimated, &actual); err != nil {
			return entity.RoiSummary{}, err
		}
		acc := 100 * (1 - abs(estimated-actual)/estimated)
		if acc < 0 {
			acc = 0
		}
		if acc > 100 {
			acc = 100
		}
		accSum += acc
		accN++
	}
	if err := rows.Err(); err != nil {
		return entity.RoiSummary{}, err
	}
	if accN > 0 {
		avg := accSum / float64(accN)
		summary.ForecastAccuracyPct = &avg
	}

	if err := tx.Commit(); err != nil {
		return entity.RoiSummary{}, fmt.Errorf("summarizing ledger: %w", err)
	}
	return summary, nil
}

// AddSnapshot stores one analyzed-period cost snapshot.
func (s *SavingsStore) AddSnapshot(ctx context.Context, snap entity.CostSnapshot) (int64, error) {
	var byService []byte
	if len(snap.ByService) > 0 {
		var err error
		byService, err = json.Marshal(snap.ByService)
		if err != nil {
			return 0, fmt.Errorf("encoding service breakdown: %w", err)
		}
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO cost_snapshots
		(date, account_id, total_cost, period_days, by_service)
		VALUES (?, ?, ?, ?, ?)`,
		snap.Date.UTC().Format(time.RFC3339), snap.AccountID, snap.TotalCost, snap.PeriodDays, string(byService),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	return res.LastInsertId()
}

// GetCostTrend returns up to limit recent snapshots for an account,
// newest first.
func (s *SavingsStore) GetCostTrend(ctx context.Context, accountID string, limit int) ([]entity.CostSnapshot, error) {
	if limit <= 0 {
		limit = 12
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, date, account_id, total_cost, period_days, by_service
		FROM cost_snapshots
		WHERE account_id = ?
		ORDER BY date DESC LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snaps []entity.CostSnapshot
	for rows.Next() {
		var snap entity.CostSnapshot
		var dateStr string
		var byService sql.NullString
		if err := rows.Scan(&snap.ID, &dateStr, &snap.AccountID, &snap.TotalCost, &snap.PeriodDays, &byService); err != nil {
			return nil, err
		}
		snap.Date, _ = time.Parse(time.RFC3339, dateStr)
		if byService.Valid && byService.String != "" {
			if err := json.Unmarshal([]byte(byService.String), &snap.ByService); err != nil {
				return nil, fmt.Errorf("decoding service breakdown: %w", err)
			}
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

const selectRecommendation = `SELECT
	id, title, type, description, account_id, estimated_monthly_savings,
	risk_level, effort, status, created_at, resolved_at, actual_monthly_savings, notes
	FROM recommendations`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecommendation(row rowScanner) (entity.Recommendation, error) {
	var rec entity.Recommendation
	var description, accountID, notes sql.NullString
	var createdStr string
	var resolvedStr sql.NullString
	var actual sql.NullFloat64

	err := row.Scan(
		&rec.ID, &rec.Title, &rec.Type, &description, &accountID, &rec.EstimatedMonthlySavings,
		&rec.RiskLevel, &rec.Effort, &rec.Status, &createdStr, &resolvedStr, &actual, &notes,
	)
	if err != nil {
		return entity.Recommendation{}, err
	}

	rec.Description = description.String
	rec.AccountID = accountID.String
	rec.Notes = notes.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	if resolvedStr.Valid && resolvedStr.String != "" {
		t, err := time.Parse(time.RFC3339, resolvedStr.String)
		if err == nil {
			rec.ResolvedAt = &t
		}
	}
	if actual.Valid {
		rec.ActualMonthlySavings = &actual.Float64
	}
	return rec, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
