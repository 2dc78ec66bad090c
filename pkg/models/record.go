package models

import "time"

// PopulationRecord is the artifact written to data/data.json and, when a
// history database is configured, appended to the run ledger.
type PopulationRecord struct {
	Geography    string    `json:"geography"`     // GSS code
	Population   float64   `json:"population"`    // observation or per-age sum
	Period       string    `json:"period"`        // time option code, e.g. "2022"
	PeriodLabel  string    `json:"period_label"`  // human label for Period
	DatasetID    string    `json:"dataset_id"`    // resolved catalog id
	DatasetTitle string    `json:"dataset_title"` // resolved catalog title
	UpdatedAt    time.Time `json:"updated_at"`    // when this run produced the record
}

// PopulationRun is a ledger row: the record plus how it was obtained.
type PopulationRun struct {
	ID       int64            `json:"id"`
	RunID    string           `json:"run_id"`
	Edition  string           `json:"edition"`
	Version  string           `json:"version"`
	Method   string           `json:"method"` // "direct" or "age-sum"
	AgeCount int              `json:"age_count,omitempty"`
	Record   PopulationRecord `json:"record"`
}
