package resolve

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"onspop/internal/ons"
	"onspop/pkg/models"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LatestEdition returns the edition with the greatest last_updated.
// Unparsable timestamps count as the epoch; ties keep the first listed.
func LatestEdition(editions []models.Edition) (models.Edition, error) {
	if len(editions) == 0 {
		return models.Edition{}, fmt.Errorf("%w: no editions", ErrResolution)
	}
	best := 0
	bestTS := editionTimestamp(editions[0].LastUpdated)
	for i := 1; i < len(editions); i++ {
		if ts := editionTimestamp(editions[i].LastUpdated); ts > bestTS {
			best, bestTS = i, ts
		}
	}
	return editions[best], nil
}

// LatestVersion returns the version with the greatest numeric value.
// Non-numeric versions count as 0; ties keep the first listed.
func LatestVersion(versions []models.Version) (models.Version, error) {
	if len(versions) == 0 {
		return models.Version{}, fmt.Errorf("%w: no versions", ErrResolution)
	}
	best := 0
	bestN := versionOrdinal(versions[0].Version.Text)
	for i := 1; i < len(versions); i++ {
		if n := versionOrdinal(versions[i].Version.Text); n > bestN {
			best, bestN = i, n
		}
	}
	return versions[best], nil
}

func editionTimestamp(s string) int64 {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

func versionOrdinal(s string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// ResolveVersion picks the latest edition of datasetID and the latest
// version within it.
func ResolveVersion(ctx context.Context, cat Catalog, datasetID string) (ons.VersionRef, error) {
	eds, err := cat.Editions(ctx, datasetID)
	if err != nil {
		return ons.VersionRef{}, fmt.Errorf("list editions: %w", err)
	}
	edition, err := LatestEdition(eds.Items)
	if err != nil {
		return ons.VersionRef{}, fmt.Errorf("dataset %s: %w", datasetID, err)
	}

	vers, err := cat.Versions(ctx, datasetID, edition.Edition)
	if err != nil {
		return ons.VersionRef{}, fmt.Errorf("list versions: %w", err)
	}
	version, err := LatestVersion(vers.Items)
	if err != nil {
		return ons.VersionRef{}, fmt.Errorf("dataset %s edition %s: %w", datasetID, edition.Edition, err)
	}

	return ons.VersionRef{
		DatasetID: datasetID,
		Edition:   edition.Edition,
		Version:   version.Version.Text,
	}, nil
}
