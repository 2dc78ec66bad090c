package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onspop/pkg/models"
)

func TestHeuristicMatcher(t *testing.T) {
	tests := []struct {
		name string
		dims []models.Dimension
		want Roles
	}{
		{
			name: "plain ids",
			dims: []models.Dimension{{ID: "geography"}, {ID: "sex"}, {ID: "age"}, {ID: "time"}},
			want: Roles{Sex: "sex", Age: "age", Time: "time", Geography: "geography"},
		},
		{
			name: "matched by label",
			dims: []models.Dimension{
				{Name: "mid-year-pop-geography", Label: "Geography"},
				{Name: "mid-year-pop-sex", Label: "Sex"},
				{Name: "mid-year-pop-age", Label: "Single Year of Age"},
			},
			want: Roles{Sex: "mid-year-pop-sex", Age: "mid-year-pop-age", Time: "time", Geography: "geography"},
		},
		{
			name: "persons label counts as sex",
			dims: []models.Dimension{{ID: "dim1", Label: "Persons"}, {ID: "dim2", Label: "Age band"}},
			want: Roles{Sex: "dim1", Age: "dim2", Time: "time", Geography: "geography"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HeuristicMatcher{}.MatchRoles(tt.dims)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeuristicMatcher_MissingMandatory(t *testing.T) {
	_, err := HeuristicMatcher{}.MatchRoles([]models.Dimension{{ID: "sex"}, {ID: "time"}})
	require.ErrorIs(t, err, ErrDimensionNotFound)
	assert.Contains(t, err.Error(), "sex(")
}

func TestStaticMatcher(t *testing.T) {
	dims := []models.Dimension{
		{Name: "administrative-geography", Label: "Local authority"},
		{Name: "gender", Label: "Gender"},
		{Name: "syoa", Label: "Single year of age"},
		{Name: "calendar-years", Label: "Year"},
	}

	got, err := NewStaticMatcher().MatchRoles(dims)
	require.NoError(t, err)
	assert.Equal(t, Roles{
		Sex:       "gender",
		Age:       "syoa",
		Time:      "calendar-years",
		Geography: "administrative-geography",
	}, got)
}

func TestStaticMatcher_FallsBackToDefaults(t *testing.T) {
	got, err := NewStaticMatcher().MatchRoles([]models.Dimension{{ID: "unrelated", Label: "Something"}})
	require.NoError(t, err)
	assert.Equal(t, Roles{Sex: "sex", Age: "age", Time: "time", Geography: "geography"}, got)
}

func TestNewRoleMatcher(t *testing.T) {
	m, err := NewRoleMatcher("")
	require.NoError(t, err)
	assert.IsType(t, HeuristicMatcher{}, m)

	m, err = NewRoleMatcher("Static")
	require.NoError(t, err)
	assert.IsType(t, StaticMatcher{}, m)

	_, err = NewRoleMatcher("psychic")
	assert.Error(t, err)
}
