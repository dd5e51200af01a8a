package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sidetalker/rental-registry/internal/adapter/arcgis"
	httpadapter "github.com/Sidetalker/rental-registry/internal/adapter/http"
	kafkaadapter "github.com/Sidetalker/rental-registry/internal/adapter/kafka"
	"github.com/Sidetalker/rental-registry/internal/adapter/sqlite"
	"github.com/Sidetalker/rental-registry/internal/config"
	"github.com/Sidetalker/rental-registry/internal/observability"
	"github.com/Sidetalker/rental-registry/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := arcgis.NewClient(cfg.Referer, cfg.ArcGISTimeout, cfg.PageSize, logger)

	query := arcgis.Query{
		LayerURL:       cfg.LayerURL,
		Where:          cfg.Where,
		OutFields:      cfg.OutFields,
		ReturnGeometry: true,
		MaxRecords:     cfg.MaxRecords,
	}
	if cfg.SearchRadiusM > 0 {
		envelope, err := arcgis.SearchEnvelope(cfg.SearchLat, cfg.SearchLng, cfg.SearchRadiusM)
		if err != nil {
			logger.Error("invalid search envelope", "error", err)
			os.Exit(1)
		}
		query.Envelope = envelope
		logger.Info("spatial filter enabled",
			"lat", cfg.SearchLat, "lng", cfg.SearchLng, "radius_m", cfg.SearchRadiusM)
	}
	source := arcgis.NewRegistrySource(client, query, cfg.SplitBySubdivision, logger)

	// Municipal rosters are feature-flagged via ROSTERS_ENABLED.
	var rosters pipeline.RosterSource
	if cfg.RostersEnabled {
		rosterSources, err := cfg.RosterSources()
		if err != nil {
			logger.Error("failed to load roster sources", "error", err)
			os.Exit(1)
		}
		rosters = arcgis.NewRosterFetcher(client, rosterSources, logger, metrics)
		logger.Info("municipal rosters enabled", "sources", len(rosterSources))
	} else {
		logger.Info("municipal rosters disabled")
	}

	store, err := sqlite.Open(cfg.SqlitePath)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.SqlitePath)
		os.Exit(1)
	}

	// Kafka publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher pipeline.Publisher
	var kafkaPub *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(source, rosters, store, publisher, logger, metrics, cfg.SyncInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start sync pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
