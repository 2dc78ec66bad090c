package mirror

import (
	"encoding/json"
	"fmt"
	"os"

	"onspop/pkg/models"
)

// Fixture is the offline copy of the catalog served by the mirror.
//
// Example:
//
//	{
//	  "search": [{"uri": "/datasets/pop-est", "description": {"dataset_id": "pop-est", "title": "..."}}],
//	  "datasets": [{
//	    "id": "pop-est",
//	    "title": "Population estimates for local authorities",
//	    "editions": [{
//	      "edition": "time-series",
//	      "last_updated": "2023-01-01T00:00:00Z",
//	      "versions": [{
//	        "version": "2",
//	        "dimensions": [{"id": "sex", "label": "Sex", "options": [{"option": "7", "label": "All persons"}]}],
//	        "observations": [{"filters": {"sex": "7"}, "observation": "45000"}]
//	      }]
//	    }]
//	  }]
//	}
type Fixture struct {
	Search   []models.SearchItem `json:"search"`
	Datasets []DatasetFixture    `json:"datasets"`
}

type DatasetFixture struct {
	ID          string           `json:"id"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Editions    []EditionFixture `json:"editions,omitempty"`
}

type EditionFixture struct {
	Edition     string           `json:"edition"`
	LastUpdated string           `json:"last_updated,omitempty"`
	Versions    []VersionFixture `json:"versions,omitempty"`
}

type VersionFixture struct {
	Version      models.FlexString    `json:"version"`
	ReleaseDate  string               `json:"release_date,omitempty"`
	Dimensions   []DimensionFixture   `json:"dimensions,omitempty"`
	Observations []ObservationFixture `json:"observations,omitempty"`
}

type DimensionFixture struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Label   string          `json:"label,omitempty"`
	Options []models.Option `json:"options,omitempty"`
}

// ObservationFixture answers an observation query whose parameters include
// every entry of Filters.
type ObservationFixture struct {
	Filters     map[string]string `json:"filters"`
	Observation models.FlexString `json:"observation"`
	Value       models.FlexString `json:"value"`
	TimeLabel   string            `json:"time_label,omitempty"`
}

// LoadFixture reads and decodes a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *Fixture) dataset(id string) *DatasetFixture {
	for i := range f.Datasets {
		if f.Datasets[i].ID == id {
			return &f.Datasets[i]
		}
	}
	return nil
}

func (d *DatasetFixture) edition(name string) *EditionFixture {
	for i := range d.Editions {
		if d.Editions[i].Edition == name {
			return &d.Editions[i]
		}
	}
	return nil
}

func (e *EditionFixture) version(v string) *VersionFixture {
	for i := range e.Versions {
		if e.Versions[i].Version.Text == v {
			return &e.Versions[i]
		}
	}
	return nil
}

func (v *VersionFixture) dimension(key string) *DimensionFixture {
	for i := range v.Dimensions {
		d := &v.Dimensions[i]
		if d.ID == key || (d.ID == "" && d.Name == key) {
			return d
		}
	}
	return nil
}

func (o ObservationFixture) matches(query map[string]string) bool {
	for k, want := range o.Filters {
		if query[k] != want {
			return false
		}
	}
	return true
}
