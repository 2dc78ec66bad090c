package resolve

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"onspop/pkg/models"
)

const (
	DefaultSearchQuery  = "population estimates"
	DefaultSearchLimit  = 200
	DefaultDatasetLimit = 500
)

// CanonicalTitle is the stricter title pattern for the local-authority
// population estimates dataset.
var CanonicalTitle = regexp.MustCompile(`(?i)\bpopulation estimates?\b.*\b(local authorit|uk|england)`)

// TitleMatcher decides whether a catalog title is the dataset we want.
type TitleMatcher interface {
	MatchTitle(title string) bool
}

// ContainsMatcher matches titles that contain every word, ignoring case.
type ContainsMatcher struct {
	Words []string
}

func (m ContainsMatcher) MatchTitle(title string) bool {
	t := strings.ToLower(title)
	for _, w := range m.Words {
		if !strings.Contains(t, strings.ToLower(w)) {
			return false
		}
	}
	return true
}

// RegexMatcher matches titles against Pattern.
type RegexMatcher struct {
	Pattern *regexp.Regexp
}

func (m RegexMatcher) MatchTitle(title string) bool {
	return m.Pattern.MatchString(title)
}

// DefaultTitleMatcher accepts any title mentioning "population" and "estimate".
func DefaultTitleMatcher() TitleMatcher {
	return ContainsMatcher{Words: []string{"population", "estimate"}}
}

// StrictTitleMatcher accepts only titles matching CanonicalTitle.
func StrictTitleMatcher() TitleMatcher {
	return RegexMatcher{Pattern: CanonicalTitle}
}

// DatasetResolver finds the dataset via search, then via the full listing.
type DatasetResolver struct {
	Catalog      Catalog
	Matcher      TitleMatcher
	Query        string
	SearchLimit  int
	DatasetLimit int
}

func NewDatasetResolver(cat Catalog, matcher TitleMatcher) *DatasetResolver {
	if matcher == nil {
		matcher = DefaultTitleMatcher()
	}
	return &DatasetResolver{
		Catalog:      cat,
		Matcher:      matcher,
		Query:        DefaultSearchQuery,
		SearchLimit:  DefaultSearchLimit,
		DatasetLimit: DefaultDatasetLimit,
	}
}

// Resolve returns the first matching dataset from search results, falling
// back to the first match in the catalog listing.
func (r *DatasetResolver) Resolve(ctx context.Context) (models.Dataset, error) {
	search, err := r.Catalog.Search(ctx, r.Query, r.SearchLimit)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("search datasets: %w", err)
	}
	for _, item := range search.Items {
		ds := models.Dataset{ID: searchItemID(item), Title: item.Description.Title}
		if ds.ID != "" && r.Matcher.MatchTitle(ds.Title) {
			return ds, nil
		}
	}

	all, err := r.Catalog.Datasets(ctx, r.DatasetLimit)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("list datasets: %w", err)
	}
	for _, item := range all.Items {
		title := item.Title
		if title == "" {
			title = item.Description
		}
		if item.ID != "" && r.Matcher.MatchTitle(title) {
			return models.Dataset{ID: item.ID, Title: title}, nil
		}
	}

	return models.Dataset{}, fmt.Errorf("%w: no dataset title matched %q in search or listing", ErrResolution, r.Query)
}

// searchItemID prefers description.dataset_id and falls back to the last
// segment of the item URI.
func searchItemID(item models.SearchItem) string {
	if id := strings.TrimSpace(item.Description.DatasetID); id != "" {
		return id
	}
	uri := strings.TrimRight(item.URI, "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
