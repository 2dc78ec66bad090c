package history

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"onspop/pkg/models"
)

var csvHeader = []string{
	"run_id", "geography", "population", "period", "period_label",
	"dataset_id", "dataset_title", "edition", "version", "method", "age_count", "updated_at",
}

// WriteCSV writes runs with a header row.
func WriteCSV(w io.Writer, runs []models.PopulationRun) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, run := range runs {
		rec := run.Record
		if err := cw.Write([]string{
			run.RunID,
			rec.Geography,
			strconv.FormatFloat(rec.Population, 'f', -1, 64),
			rec.Period,
			rec.PeriodLabel,
			rec.DatasetID,
			rec.DatasetTitle,
			run.Edition,
			run.Version,
			run.Method,
			strconv.Itoa(run.AgeCount),
			rec.UpdatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
