package arcgis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Sidetalker/rental-registry/internal/domain"
)

// RegistrySource fetches the county STR registry layer. It implements
// pipeline.FeatureSource.
type RegistrySource struct {
	client *Client
	query  Query
	split  bool
	logger *slog.Logger
}

// NewRegistrySource wires a client to a configured registry query. With
// split enabled, fetches are partitioned per subdivision to work around
// server row caps that silently truncate large result sets.
func NewRegistrySource(client *Client, query Query, split bool, logger *slog.Logger) *RegistrySource {
	return &RegistrySource{client: client, query: query, split: split, logger: logger}
}

// FetchFeatures retrieves the full registry snapshot.
func (s *RegistrySource) FetchFeatures(ctx context.Context) ([]domain.RawFeature, error) {
	if !s.split {
		return s.client.QueryFeatures(ctx, s.query)
	}
	return s.fetchBySubdivision(ctx)
}

// fetchBySubdivision first collects the distinct subdivision names matching
// the base query, then queries each subdivision separately and merges the
// results, deduplicating by feature key. Blank subdivisions get their own
// IS NULL partition.
func (s *RegistrySource) fetchBySubdivision(ctx context.Context) ([]domain.RawFeature, error) {
	filters, err := s.collectSubdivisionFilters(ctx)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return s.client.QueryFeatures(ctx, s.query)
	}

	var merged []domain.RawFeature
	seen := make(map[featureKey]struct{})
	for _, filter := range filters {
		sub := s.query
		sub.Where = CombineWhere(s.query.Where, filter.clause)
		sub.MaxRecords = 0
		features, err := s.client.QueryFeatures(ctx, sub)
		if err != nil {
			return nil, fmt.Errorf("query subdivision %q: %w", filter.label, err)
		}
		for _, feature := range features {
			key := keyOf(feature)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, feature)
		}
	}

	if s.query.MaxRecords > 0 && len(merged) > s.query.MaxRecords {
		merged = merged[:s.query.MaxRecords]
	}
	s.logger.Debug("subdivision-partitioned fetch complete",
		"partitions", len(filters), "features", len(merged))
	return merged, nil
}

type subdivisionFilter struct {
	label  string
	clause string
}

func (s *RegistrySource) collectSubdivisionFilters(ctx context.Context) ([]subdivisionFilter, error) {
	q := s.query
	q.OutFields = "SubdivisionName"
	q.ReturnGeometry = false
	q.MaxRecords = 0
	features, err := s.client.QueryFeatures(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("collect subdivisions: %w", err)
	}

	seen := make(map[string]struct{})
	var filters []subdivisionFilter
	for _, feature := range features {
		name := strings.TrimSpace(coerceAttrString(feature.Attributes, "SubdivisionName"))
		key := strings.ToUpper(name)
		if name == "" {
			key = "__BLANK__"
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if name == "" {
			filters = append(filters, subdivisionFilter{
				label:  "Unspecified",
				clause: "(SubdivisionName IS NULL OR SubdivisionName = '')",
			})
			continue
		}
		filters = append(filters, subdivisionFilter{
			label:  name,
			clause: fmt.Sprintf("SubdivisionName = '%s'", EscapeSQLLiteral(name)),
		})
	}

	sort.Slice(filters, func(i, j int) bool {
		return strings.ToLower(filters[i].label) < strings.ToLower(filters[j].label)
	})
	return filters, nil
}

// featureKey identifies a feature across partitions: schedule number,
// registration ID, and object ID together.
type featureKey struct {
	schedule     string
	registration string
	objectID     string
}

func keyOf(feature domain.RawFeature) featureKey {
	return featureKey{
		schedule:     coerceAttrString(feature.Attributes, "PropertyScheduleText"),
		registration: coerceAttrString(feature.Attributes, "HC_RegistrationsOriginalCleaned"),
		objectID:     coerceAttrString(feature.Attributes, "OBJECTID"),
	}
}

func coerceAttrString(attrs domain.Attributes, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
