// Package resolve turns the ONS catalog into concrete choices: dataset,
// edition, version, dimension ids and option ids. Each step only moves
// forward; nothing chosen here is revisited later in a run.
package resolve

import (
	"context"

	"onspop/internal/ons"
	"onspop/pkg/models"
)

// Catalog is the read side of the ONS API the resolvers need.
// *ons.Client satisfies it.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) (*models.SearchResponse, error)
	Datasets(ctx context.Context, limit int) (*models.DatasetList, error)
	Editions(ctx context.Context, datasetID string) (*models.EditionList, error)
	Versions(ctx context.Context, datasetID, edition string) (*models.VersionList, error)
	Version(ctx context.Context, ref ons.VersionRef) (*models.Version, error)
	Options(ctx context.Context, ref ons.VersionRef, dimension string) ([]models.Option, error)
}

var _ Catalog = (*ons.Client)(nil)
