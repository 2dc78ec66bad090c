package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onspop/pkg/models"
)

func sampleRecord() models.PopulationRecord {
	return models.PopulationRecord{
		Geography:    "E07000046",
		Population:   45000,
		Period:       "2022",
		PeriodLabel:  "2022",
		DatasetID:    "pop-est",
		DatasetTitle: "Population estimates for local authorities",
		UpdatedAt:    time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
}

func TestWriteRecord_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "data.json")

	require.NoError(t, WriteRecord(path, sampleRecord()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), b[len(b)-1], "trailing newline")
	assert.Contains(t, string(b), "\n  \"population\": 45000,\n")

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.ElementsMatch(t,
		[]string{"geography", "population", "period", "period_label", "dataset_id", "dataset_title", "updated_at"},
		keys(fields))
	assert.Equal(t, "2026-10-18T09:30:00Z", fields["updated_at"])
}

func TestWriteRecord_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than nothing"), 0o644))

	rec := sampleRecord()
	rec.Population = 22
	require.NoError(t, WriteRecord(path, rec))
	require.NoError(t, WriteRecord(path, rec))

	got, err := ReadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, float64(22), got.Population)
	assert.Equal(t, "pop-est", got.DatasetID)
}

func TestReadRecord_Missing(t *testing.T) {
	_, err := ReadRecord(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
