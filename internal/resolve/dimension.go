package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"onspop/pkg/models"
)

type Role string

const (
	RoleSex       Role = "sex"
	RoleAge       Role = "age"
	RoleTime      Role = "time"
	RoleGeography Role = "geography"
)

// Strategy names accepted by NewRoleMatcher.
const (
	StrategyHeuristic = "heuristic"
	StrategyStatic    = "static"
)

// Roles maps each semantic role to the dataset's dimension id.
type Roles struct {
	Sex       string
	Age       string
	Time      string
	Geography string
}

// RoleMatcher assigns dimension ids to roles from a version's dimensions.
type RoleMatcher interface {
	MatchRoles(dims []models.Dimension) (Roles, error)
}

// NewRoleMatcher returns the matcher for strategy.
func NewRoleMatcher(strategy string) (RoleMatcher, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyHeuristic:
		return HeuristicMatcher{}, nil
	case StrategyStatic:
		return NewStaticMatcher(), nil
	default:
		return nil, fmt.Errorf("unknown dimension strategy %q", strategy)
	}
}

var (
	sexDimension = regexp.MustCompile(`sex|persons`)
	ageDimension = regexp.MustCompile(`age`)
)

// HeuristicMatcher finds sex and age by pattern over dimension ids and
// labels. Time and geography use their conventional ids.
type HeuristicMatcher struct{}

func (HeuristicMatcher) MatchRoles(dims []models.Dimension) (Roles, error) {
	roles := Roles{Time: string(RoleTime), Geography: string(RoleGeography)}
	for _, d := range dims {
		id := d.Key()
		label := strings.ToLower(d.Label)
		if label == "" {
			label = id
		}
		lid := strings.ToLower(id)

		if roles.Sex == "" && (sexDimension.MatchString(lid) || sexDimension.MatchString(label)) {
			roles.Sex = id
		}
		if roles.Age == "" && (ageDimension.MatchString(lid) || ageDimension.MatchString(label)) {
			roles.Age = id
		}
	}

	if roles.Sex == "" || roles.Age == "" {
		return Roles{}, fmt.Errorf("%w: could not identify sex/age among %s", ErrDimensionNotFound, describeDims(dims))
	}
	return roles, nil
}

// StaticMatcher looks roles up in a lowercase label/id table, trying
// Candidates in order and falling back to the role name itself. It never
// fails, so a relabelled upstream dataset yields a wrong id rather than an
// error.
type StaticMatcher struct {
	Candidates map[Role][]string
}

func NewStaticMatcher() StaticMatcher {
	return StaticMatcher{Candidates: map[Role][]string{
		RoleSex:       {"sex", "gender"},
		RoleAge:       {"age", "single-year-of-age", "single year of age"},
		RoleTime:      {"time", "year"},
		RoleGeography: {"geography", "administrative-geography", "local authority"},
	}}
}

func (m StaticMatcher) MatchRoles(dims []models.Dimension) (Roles, error) {
	table := make(map[string]string, len(dims)*2)
	for _, d := range dims {
		id := d.Key()
		if id == "" {
			continue
		}
		if label := strings.ToLower(strings.TrimSpace(d.Label)); label != "" {
			if _, ok := table[label]; !ok {
				table[label] = id
			}
		}
		if _, ok := table[strings.ToLower(id)]; !ok {
			table[strings.ToLower(id)] = id
		}
	}

	pick := func(role Role) string {
		for _, key := range m.Candidates[role] {
			if id, ok := table[key]; ok {
				return id
			}
		}
		return string(role)
	}

	return Roles{
		Sex:       pick(RoleSex),
		Age:       pick(RoleAge),
		Time:      pick(RoleTime),
		Geography: pick(RoleGeography),
	}, nil
}

func describeDims(dims []models.Dimension) string {
	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		parts = append(parts, fmt.Sprintf("%s(%s)", d.Key(), d.Label))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
