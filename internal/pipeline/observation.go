package pipeline

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"onspop/internal/ons"
	"onspop/internal/resolve"
	"onspop/pkg/models"
)

// Selection is the fully resolved filter set for one version.
type Selection struct {
	Ref       ons.VersionRef
	Roles     resolve.Roles
	Geography string
	Sex       string
	Period    models.Option
}

func (s Selection) filters(age string) url.Values {
	q := url.Values{}
	q.Set(s.Roles.Geography, s.Geography)
	q.Set(s.Roles.Sex, s.Sex)
	q.Set(s.Roles.Age, age)
	q.Set(s.Roles.Time, s.Period.Code())
	return q
}

// ObservationValue is a fetched scalar and its period label.
type ObservationValue struct {
	Value       float64
	PeriodLabel string
}

// rawValue returns the observation text, preferring "observation" over
// "value".
func rawValue(o models.Observation) (string, bool) {
	if o.Observation.Valid {
		return o.Observation.Text, true
	}
	if o.Value.Valid {
		return o.Value.Text, true
	}
	return "", false
}

// parseValue accepts finite numbers only; ParseFloat also takes "NaN"
// and "Inf", which are not observations.
func parseValue(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func timeLabel(o models.Observation, timeDim string) string {
	if d, ok := o.Dimensions[timeDim]; ok && d.Label != "" {
		return d.Label
	}
	if d, ok := o.Dimensions["time"]; ok && d.Label != "" {
		return d.Label
	}
	return ""
}

// fetchDirect issues the single aggregate query. A missing or non-numeric
// value is fatal.
func (p *Pipeline) fetchDirect(ctx context.Context, sel Selection, age string) (ObservationValue, error) {
	list, err := p.Source.Observations(ctx, sel.Ref, sel.filters(age))
	if err != nil {
		return ObservationValue{}, fmt.Errorf("fetch observation: %w", err)
	}
	if len(list.Observations) == 0 {
		return ObservationValue{}, fmt.Errorf("%w: empty observation list for %s", resolve.ErrNoObservation, sel.Ref)
	}

	first := list.Observations[0]
	raw, ok := rawValue(first)
	if !ok {
		return ObservationValue{}, fmt.Errorf("%w: observation field absent for %s", resolve.ErrNoObservation, sel.Ref)
	}
	v, ok := parseValue(raw)
	if !ok {
		return ObservationValue{}, fmt.Errorf("%w: non-numeric observation %q", resolve.ErrNoObservation, raw)
	}
	return ObservationValue{Value: v, PeriodLabel: timeLabel(first, sel.Roles.Time)}, nil
}

// sumAges queries each single-year age in turn and adds the results.
// Missing or non-numeric values count as zero; any request error aborts.
func (p *Pipeline) sumAges(ctx context.Context, sel Selection, ages []models.Option) (ObservationValue, error) {
	var out ObservationValue
	for _, age := range ages {
		list, err := p.Source.Observations(ctx, sel.Ref, sel.filters(age.Code()))
		if err != nil {
			return ObservationValue{}, fmt.Errorf("fetch observation for age %s: %w", age.Code(), err)
		}

		var v float64
		if len(list.Observations) > 0 {
			first := list.Observations[0]
			if raw, ok := rawValue(first); ok {
				v, _ = parseValue(raw)
			}
			if out.PeriodLabel == "" {
				out.PeriodLabel = timeLabel(first, sel.Roles.Time)
			}
		}
		p.Logger.Debug("age observation", zap.String("age", age.Code()), zap.Float64("value", v))
		out.Value += v
	}
	return out, nil
}
