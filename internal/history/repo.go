package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"onspop/pkg/models"
)

// Repo is the run ledger: one row per successful fetch.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Save(ctx context.Context, run models.PopulationRun) (*models.PopulationRun, error) {
	rec := run.Record
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO population_runs
		  (run_id, geography, population, period, period_label, dataset_id, dataset_title,
		   edition, version, method, age_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, rec.Geography, rec.Population, rec.Period, rec.PeriodLabel, rec.DatasetID, rec.DatasetTitle,
		run.Edition, run.Version, run.Method, run.AgeCount, rec.UpdatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.PopulationRun, error) {
	row := r.DB.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]models.PopulationRun, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, selectRuns+`
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.PopulationRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		out = append(out, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

const selectRuns = `
	SELECT id, run_id, geography, population, period, period_label, dataset_id, dataset_title,
	       edition, version, method, age_count, updated_at
	FROM population_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.PopulationRun, error) {
	var (
		run          models.PopulationRun
		periodLabel  sql.NullString
		datasetTitle sql.NullString
		edition      sql.NullString
		version      sql.NullString
		updatedAt    time.Time
	)
	if err := s.Scan(
		&run.ID,
		&run.RunID,
		&run.Record.Geography,
		&run.Record.Population,
		&run.Record.Period,
		&periodLabel,
		&run.Record.DatasetID,
		&datasetTitle,
		&edition,
		&version,
		&run.Method,
		&run.AgeCount,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	run.Record.PeriodLabel = periodLabel.String
	run.Record.DatasetTitle = datasetTitle.String
	run.Edition = edition.String
	run.Version = version.String
	run.Record.UpdatedAt = updatedAt
	return &run, nil
}
