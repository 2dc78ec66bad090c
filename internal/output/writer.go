package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"onspop/pkg/models"
)

// DefaultPath is where a run writes its record.
const DefaultPath = "data/data.json"

// WriteRecord writes rec as indented JSON with a trailing newline,
// creating the parent directory and replacing any existing file.
func WriteRecord(path string, rec models.PopulationRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	b = append(b, '\n')

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadRecord loads a record previously written by WriteRecord.
func ReadRecord(path string) (models.PopulationRecord, error) {
	var rec models.PopulationRecord
	b, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}
