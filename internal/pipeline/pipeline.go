// Package pipeline orchestrates the periodic fetch-normalize-store cycle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Sidetalker/rental-registry/internal/adapter/sqlite"
	"github.com/Sidetalker/rental-registry/internal/domain"
	"github.com/Sidetalker/rental-registry/internal/observability"
)

// FeatureSource fetches the full raw feature set from the registry layer.
type FeatureSource interface {
	FetchFeatures(ctx context.Context) ([]domain.RawFeature, error)
}

// RosterSource fetches municipal license roster rows. Optional.
type RosterSource interface {
	FetchRosters(ctx context.Context) ([]domain.RosterRecord, error)
}

// ListingStore replaces the stored listing collection after each sync.
type ListingStore interface {
	ReplaceAll(ctx context.Context, listings []sqlite.StoredListing) error
}

// Publisher pushes the synced batch to a downstream sink. Optional.
type Publisher interface {
	PublishBatch(ctx context.Context, listings []sqlite.StoredListing) error
}

// Pipeline runs the sync loop: fetch features and rosters, normalize,
// replace the store, and optionally publish.
type Pipeline struct {
	source    FeatureSource
	rosters   RosterSource
	store     ListingStore
	publisher Publisher

	transformer *Transformer
	logger      *slog.Logger
	metrics     *observability.Metrics
	interval    time.Duration
	ready       atomic.Bool
}

// New creates a Pipeline. rosters and publisher may be nil.
func New(source FeatureSource, rosters RosterSource, store ListingStore, publisher Publisher,
	logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Pipeline {
	return &Pipeline{
		source:      source,
		rosters:     rosters,
		store:       store,
		publisher:   publisher,
		transformer: NewTransformer(logger, metrics),
		logger:      logger,
		metrics:     metrics,
		interval:    interval,
	}
}

// CheckReadiness returns nil once at least one sync cycle has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no sync cycle has completed yet")
	}
	return nil
}

// Run syncs immediately, then on every interval tick until the context is
// cancelled. A failed sync is retried with exponential backoff before the
// loop returns to the regular schedule.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval)

	// Exponential backoff: start at 5s, double each retry, cap at 5m.
	// Registry outages tend to last minutes, not milliseconds.
	backoff := 5 * time.Second
	maxBackoff := 5 * time.Minute

	for {
		if err := p.SyncOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("sync failed", "error", err, "retry_in", backoff)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 5 * time.Second

		if !sleepWithContext(ctx, p.interval) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// SyncOnce runs a single fetch-normalize-store cycle.
func (p *Pipeline) SyncOnce(ctx context.Context) error {
	start := time.Now()
	p.metrics.SyncRunning.Set(1)
	defer p.metrics.SyncRunning.Set(0)

	features, err := p.source.FetchFeatures(ctx)
	if err != nil {
		return fmt.Errorf("fetch features: %w", err)
	}
	p.metrics.FeaturesFetched.Add(float64(len(features)))
	p.metrics.FetchSize.Observe(float64(len(features)))

	var rosters []domain.RosterRecord
	if p.rosters != nil {
		rosters, err = p.rosters.FetchRosters(ctx)
		if err != nil {
			return fmt.Errorf("fetch rosters: %w", err)
		}
	}

	listings := p.transformer.TransformBatch(features, rosters)
	if err := p.store.ReplaceAll(ctx, listings); err != nil {
		return fmt.Errorf("store listings: %w", err)
	}
	p.metrics.ListingsStored.Add(float64(len(listings)))
	p.metrics.ListingCount.Set(float64(len(listings)))
	p.recordRenewalCategories(listings)

	if p.publisher != nil {
		if err := p.publisher.PublishBatch(ctx, listings); err != nil {
			return fmt.Errorf("publish listings: %w", err)
		}
	}

	p.metrics.SyncDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastSyncUnixtime.SetToCurrentTime()
	p.ready.Store(true)
	p.logger.Info("sync complete",
		"features", len(features),
		"rosters", len(rosters),
		"listings", len(listings),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func (p *Pipeline) recordRenewalCategories(listings []sqlite.StoredListing) {
	counts := make(map[string]int)
	for _, listing := range listings {
		counts[string(listing.Renewal.Category)]++
	}
	p.metrics.RenewalCategories.Reset()
	for category, n := range counts {
		p.metrics.RenewalCategories.WithLabelValues(category).Set(float64(n))
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
