package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"onspop/pkg/models"
)

var (
	// AllPersons matches the sex aggregate option.
	AllPersons = regexp.MustCompile(`all\s*persons|persons|all person`)
	// AllAges matches the age aggregate option.
	AllAges = regexp.MustCompile(`all\s*ages|total`)

	numericAge = regexp.MustCompile(`^\d+$`)
)

// FindOption returns the first option whose lowercase label or code
// matches pattern.
func FindOption(opts []models.Option, pattern *regexp.Regexp) (models.Option, bool) {
	for _, o := range opts {
		if pattern.MatchString(strings.ToLower(o.Label)) || pattern.MatchString(strings.ToLower(o.Code())) {
			return o, true
		}
	}
	return models.Option{}, false
}

// SelectSex returns the "all persons" option, or the first option when
// none matches.
func SelectSex(opts []models.Option) (models.Option, error) {
	if o, ok := FindOption(opts, AllPersons); ok {
		return o, nil
	}
	for _, o := range opts {
		if o.Code() != "" {
			return o, nil
		}
	}
	return models.Option{}, fmt.Errorf("%w: sex dimension has no options", ErrMissingOption)
}

// AggregateAge returns the "all ages" option if the dimension has one.
func AggregateAge(opts []models.Option) (models.Option, bool) {
	return FindOption(opts, AllAges)
}

// NumericAges returns the single-year options, those labelled with a
// plain non-negative integer, in listed order.
func NumericAges(opts []models.Option) ([]models.Option, error) {
	var out []models.Option
	for _, o := range opts {
		if numericAge.MatchString(strings.TrimSpace(o.Label)) && o.Code() != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no all-ages option and no single-year ages to sum", ErrNoAggregateAvailable)
	}
	return out, nil
}

// LatestPeriod returns the option with the lexicographically greatest code.
func LatestPeriod(opts []models.Option) (models.Option, error) {
	var best models.Option
	for _, o := range opts {
		if o.Code() > best.Code() {
			best = o
		}
	}
	if best.Code() == "" {
		return models.Option{}, fmt.Errorf("%w: no time period found", ErrResolution)
	}
	return best, nil
}
