package arcgis

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Sidetalker/rental-registry/internal/domain"
	"github.com/Sidetalker/rental-registry/internal/observability"
)

// RosterFetcher downloads and normalizes municipal STR license rosters from
// their configured layers. It implements pipeline.RosterSource.
type RosterFetcher struct {
	client  *Client
	sources []domain.RosterSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRosterFetcher wires a client to the configured roster sources.
func NewRosterFetcher(client *Client, sources []domain.RosterSource, logger *slog.Logger, metrics *observability.Metrics) *RosterFetcher {
	return &RosterFetcher{client: client, sources: sources, logger: logger, metrics: metrics}
}

// FetchRosters queries every configured municipality and returns the
// normalized license records. A failing municipality is logged and skipped
// so one town's outage doesn't block the county sync.
func (f *RosterFetcher) FetchRosters(ctx context.Context) ([]domain.RosterRecord, error) {
	var records []domain.RosterRecord
	for _, source := range f.sources {
		if source.LayerURL == "" {
			f.logger.Warn("municipal roster missing layer URL, skipping",
				"municipality", source.Municipality)
			continue
		}

		features, err := f.client.QueryFeatures(ctx, Query{
			LayerURL:  source.LayerURL,
			Where:     source.Where,
			OutFields: outFieldsOf(source),
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("municipal roster fetch failed",
				"municipality", source.Municipality, "error", err)
			f.metrics.RosterFailures.WithLabelValues(source.Municipality).Inc()
			continue
		}

		fetched := 0
		for _, feature := range features {
			record, ok := domain.ExtractRosterRecord(source, feature.Attributes)
			if !ok {
				continue
			}
			records = append(records, record)
			fetched++
		}
		f.metrics.RosterRecords.WithLabelValues(source.Municipality).Add(float64(fetched))
		f.logger.Info("fetched municipal roster",
			"municipality", source.Municipality, "records", fetched)
	}
	return records, nil
}

func outFieldsOf(source domain.RosterSource) string {
	if len(source.OutFields) == 0 {
		return "*"
	}
	return strings.Join(source.OutFields, ",")
}
