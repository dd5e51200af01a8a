package pipeline

import (
	"log/slog"
	"time"

	"github.com/Sidetalker/rental-registry/internal/adapter/sqlite"
	"github.com/Sidetalker/rental-registry/internal/domain"
	"github.com/Sidetalker/rental-registry/internal/observability"
	"github.com/Sidetalker/rental-registry/internal/renewal"
)

// Attribute keys injected into a feature's raw attributes when a municipal
// roster row matches its schedule number. The expiration key is shaped so
// the renewal estimator picks it up as a permit signal.
const (
	licenseIDKey         = "MunicipalLicenseID"
	licenseStatusKey     = "MunicipalLicenseStatus"
	licenseExpirationKey = "MunicipalLicenseExpirationDate"
	licenseSourceKey     = "MunicipalLicenseSource"
)

// Transformer normalizes raw registry features into stored listings,
// merging municipal roster rows and annotating each listing with a renewal
// estimate.
type Transformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *Transformer {
	return &Transformer{logger: logger, metrics: metrics}
}

// TransformBatch maps every feature to a listing, skipping features that
// yield no usable identifier.
func (t *Transformer) TransformBatch(features []domain.RawFeature, rosters []domain.RosterRecord) []sqlite.StoredListing {
	rosterIndex := indexRosters(rosters)

	listings := make([]sqlite.StoredListing, 0, len(features))
	for _, feature := range features {
		enriched := enrichFeature(feature, rosterIndex)

		rec := domain.MapFeature(enriched)
		if rec.ID == "" {
			t.logger.Warn("feature has no usable identifier, skipping",
				"subdivision", rec.Subdivision)
			t.metrics.TransformErrors.Inc()
			continue
		}

		listing := sqlite.StoredListing{Record: rec}
		res := renewal.Categorise(map[string]any(enriched.Attributes), time.Time{})
		listing.Renewal = res
		listings = append(listings, listing)
	}
	return listings
}

// indexRosters keys roster rows by normalized schedule number. When several
// municipalities report the same parcel the first row wins; sources are
// queried in a stable order so the winner is deterministic.
func indexRosters(rosters []domain.RosterRecord) map[string]domain.RosterRecord {
	index := make(map[string]domain.RosterRecord, len(rosters))
	for _, roster := range rosters {
		if roster.ScheduleNumber == "" {
			continue
		}
		if _, seen := index[roster.ScheduleNumber]; seen {
			continue
		}
		index[roster.ScheduleNumber] = roster
	}
	return index
}

// enrichFeature copies the feature and overlays municipal license fields
// from a matching roster row. The original attribute map is never mutated;
// later sync cycles see the source data untouched.
func enrichFeature(feature domain.RawFeature, index map[string]domain.RosterRecord) domain.RawFeature {
	schedule := domain.NormalizeScheduleNumber(feature.Attributes["PropertyScheduleText"])
	roster, ok := index[schedule]
	if !ok {
		return feature
	}

	attrs := make(domain.Attributes, len(feature.Attributes)+4)
	for k, v := range feature.Attributes {
		attrs[k] = v
	}
	attrs[licenseIDKey] = roster.LicenseID
	attrs[licenseStatusKey] = roster.NormalizedStatus
	attrs[licenseSourceKey] = roster.Municipality
	if roster.ExpirationDate != nil {
		attrs[licenseExpirationKey] = roster.ExpirationDate.UTC().Format("2006-01-02")
	}

	return domain.RawFeature{Attributes: attrs, Geometry: feature.Geometry}
}
