// Package pipeline runs the fetch: resolve the dataset and its latest
// version, map dimensions, pick options, fetch the observation (or sum
// single-year ages) and write the record.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"onspop/internal/ons"
	"onspop/internal/output"
	"onspop/internal/resolve"
	"onspop/pkg/models"
)

// Geography is the local authority the tool reports on (Torridge).
const Geography = "E07000046"

const (
	MethodDirect = "direct"
	MethodAgeSum = "age-sum"
)

// Source is everything the pipeline reads from the API.
type Source interface {
	resolve.Catalog
	Observations(ctx context.Context, ref ons.VersionRef, filters url.Values) (*models.ObservationList, error)
}

var _ Source = (*ons.Client)(nil)

// Pipeline holds one run's wiring. It is not safe for concurrent use.
type Pipeline struct {
	Source     Source
	Datasets   *resolve.DatasetResolver
	Roles      resolve.RoleMatcher
	Geography  string
	OutputPath string

	// AllowAgeSum enables summing single-year ages when the age dimension
	// has no aggregate option. When false such datasets fail with
	// resolve.ErrMissingOption.
	AllowAgeSum bool

	Logger *zap.Logger
	Now    func() time.Time
	RunID  string
}

// Result describes a successful run.
type Result struct {
	RunID    string
	Ref      ons.VersionRef
	Roles    resolve.Roles
	Method   string
	AgeCount int
	Record   models.PopulationRecord
}

// Run returns the ledger row for r.
func (r *Result) Run() models.PopulationRun {
	return models.PopulationRun{
		RunID:    r.RunID,
		Edition:  r.Ref.Edition,
		Version:  r.Ref.Version,
		Method:   r.Method,
		AgeCount: r.AgeCount,
		Record:   r.Record,
	}
}

// New wires a pipeline with the default title matcher, heuristic roles,
// summation fallback and output path.
func New(src Source, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Source:      src,
		Datasets:    resolve.NewDatasetResolver(src, nil),
		Roles:       resolve.HeuristicMatcher{},
		Geography:   Geography,
		OutputPath:  output.DefaultPath,
		AllowAgeSum: true,
		Logger:      logger.Named("pipeline"),
		Now:         time.Now,
		RunID:       uuid.NewString(),
	}
}

// Run fetches the record and writes it. Nothing is written unless every
// step succeeds.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res, err := p.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := output.WriteRecord(p.OutputPath, res.Record); err != nil {
		return nil, err
	}
	p.Logger.Info("wrote record",
		zap.String("run_id", res.RunID),
		zap.String("path", p.OutputPath),
		zap.Float64("population", res.Record.Population),
		zap.String("period", res.Record.Period))
	return res, nil
}

// Fetch resolves and retrieves the record without writing it.
func (p *Pipeline) Fetch(ctx context.Context) (*Result, error) {
	log := p.Logger.With(zap.String("run_id", p.RunID))

	ds, err := p.Datasets.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("using dataset", zap.String("id", ds.ID), zap.String("title", ds.Title))

	ref, err := resolve.ResolveVersion(ctx, p.Source, ds.ID)
	if err != nil {
		return nil, err
	}
	log.Info("using version", zap.String("edition", ref.Edition), zap.String("version", ref.Version))

	doc, err := p.Source.Version(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch version %s: %w", ref, err)
	}
	roles, err := p.Roles.MatchRoles(doc.Dimensions)
	if err != nil {
		return nil, err
	}
	log.Debug("dimensions",
		zap.String("sex", roles.Sex),
		zap.String("age", roles.Age),
		zap.String("time", roles.Time),
		zap.String("geography", roles.Geography))

	sexOpts, err := p.Source.Options(ctx, ref, roles.Sex)
	if err != nil {
		return nil, fmt.Errorf("list %s options: %w", roles.Sex, err)
	}
	sex, err := resolve.SelectSex(sexOpts)
	if err != nil {
		return nil, err
	}

	ageOpts, err := p.Source.Options(ctx, ref, roles.Age)
	if err != nil {
		return nil, fmt.Errorf("list %s options: %w", roles.Age, err)
	}
	aggregate, hasAggregate := resolve.AggregateAge(ageOpts)
	if !hasAggregate && !p.AllowAgeSum {
		return nil, fmt.Errorf("%w: no all-ages option in %s and age summation is disabled", resolve.ErrMissingOption, roles.Age)
	}

	timeOpts, err := p.Source.Options(ctx, ref, roles.Time)
	if err != nil {
		return nil, fmt.Errorf("list %s options: %w", roles.Time, err)
	}
	period, err := resolve.LatestPeriod(timeOpts)
	if err != nil {
		return nil, err
	}

	sel := Selection{
		Ref:       ref,
		Roles:     roles,
		Geography: p.Geography,
		Sex:       sex.Code(),
		Period:    period,
	}

	res := &Result{RunID: p.RunID, Ref: ref, Roles: roles}
	var obs ObservationValue
	if hasAggregate {
		res.Method = MethodDirect
		obs, err = p.fetchDirect(ctx, sel, aggregate.Code())
		if err != nil {
			return nil, err
		}
	} else {
		ages, err := resolve.NumericAges(ageOpts)
		if err != nil {
			return nil, err
		}
		log.Info("no all-ages option, summing single years", zap.Int("ages", len(ages)))
		res.Method = MethodAgeSum
		res.AgeCount = len(ages)
		obs, err = p.sumAges(ctx, sel, ages)
		if err != nil {
			return nil, err
		}
	}

	label := obs.PeriodLabel
	if label == "" {
		label = period.Label
	}
	if label == "" {
		label = period.Code()
	}

	res.Record = models.PopulationRecord{
		Geography:    p.Geography,
		Population:   obs.Value,
		Period:       period.Code(),
		PeriodLabel:  label,
		DatasetID:    ds.ID,
		DatasetTitle: ds.Title,
		UpdatedAt:    p.Now().UTC(),
	}
	return res, nil
}
