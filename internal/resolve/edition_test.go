package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onspop/pkg/models"
)

func TestLatestEdition(t *testing.T) {
	tests := []struct {
		name     string
		editions []models.Edition
		want     string
	}{
		{
			name:     "single",
			editions: []models.Edition{{Edition: "time-series", LastUpdated: "2023-01-01"}},
			want:     "time-series",
		},
		{
			name: "greatest timestamp wins",
			editions: []models.Edition{
				{Edition: "2021", LastUpdated: "2022-06-24T08:00:00.000Z"},
				{Edition: "2022", LastUpdated: "2024-03-26T07:00:00.000Z"},
				{Edition: "2020", LastUpdated: "2021-06-25T08:00:00Z"},
			},
			want: "2022",
		},
		{
			name: "tie keeps first listed",
			editions: []models.Edition{
				{Edition: "a", LastUpdated: "2023-01-01T00:00:00Z"},
				{Edition: "b", LastUpdated: "2023-01-01T00:00:00Z"},
			},
			want: "a",
		},
		{
			name: "unparsable sorts as epoch",
			editions: []models.Edition{
				{Edition: "broken", LastUpdated: "last tuesday"},
				{Edition: "dated", LastUpdated: "1999-12-31"},
			},
			want: "dated",
		},
		{
			name: "all unparsable keeps first",
			editions: []models.Edition{
				{Edition: "x"},
				{Edition: "y", LastUpdated: "soon"},
			},
			want: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LatestEdition(tt.editions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Edition)
		})
	}
}

func TestLatestEdition_Empty(t *testing.T) {
	_, err := LatestEdition(nil)
	assert.ErrorIs(t, err, ErrResolution)
}

func TestLatestVersion(t *testing.T) {
	versions := func(vs ...string) []models.Version {
		out := make([]models.Version, 0, len(vs))
		for _, v := range vs {
			out = append(out, models.Version{Version: models.Flex(v)})
		}
		return out
	}

	tests := []struct {
		name     string
		versions []models.Version
		want     string
	}{
		{"ascending", versions("1", "2"), "2"},
		{"numeric not lexical", versions("9", "10", "2"), "10"},
		{"non-numeric is zero", versions("draft", "1"), "1"},
		{"non-numeric ties zero, first wins", versions("draft", "0"), "draft"},
		{"equal numbers keep first", versions("2", "2.0"), "2"},
		{"infinity is not numeric", versions("Inf", "infinity", "1"), "1"},
		{"nan is not numeric", versions("NaN", "0"), "NaN"},
		{"missing version field", []models.Version{{}, {Version: models.Flex("3")}}, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LatestVersion(tt.versions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Version.Text)
		})
	}
}

func TestLatestVersion_Empty(t *testing.T) {
	_, err := LatestVersion([]models.Version{})
	assert.ErrorIs(t, err, ErrResolution)
}
