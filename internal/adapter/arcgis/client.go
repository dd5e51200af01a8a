// Package arcgis queries ArcGIS FeatureServer layers over their REST query
// endpoint, paging through results with resultOffset/resultRecordCount.
package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sidetalker/rental-registry/internal/domain"
)

// Client is a minimal ArcGIS FeatureServer query client.
type Client struct {
	httpClient *http.Client
	referer    string
	pageSize   int
	logger     *slog.Logger
}

// Query describes one layer query.
type Query struct {
	LayerURL       string
	Where          string
	OutFields      string
	ReturnGeometry bool
	Envelope       *Envelope // optional spatial filter
	MaxRecords     int       // 0 = unlimited
}

// NewClient creates a FeatureServer client. The referer header is sent on
// every request; county-hosted layers reject cross-domain requests without
// a matching one.
func NewClient(referer string, timeout time.Duration, pageSize int, logger *slog.Logger) *Client {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		referer:    referer,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// page is the decoded body of one query response. ArcGIS reports errors in
// a 200 body, so the error object must be checked explicitly.
type page struct {
	Features              []domain.RawFeature `json:"features"`
	ExceededTransferLimit bool                `json:"exceededTransferLimit"`
	Error                 *apiError           `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("arcgis error %d: %s", e.Code, e.Message)
}

// QueryFeatures pages through the layer until the server stops returning
// full pages, honoring the query's MaxRecords cap.
func (c *Client) QueryFeatures(ctx context.Context, q Query) ([]domain.RawFeature, error) {
	pageSize := c.pageSize
	if q.MaxRecords > 0 && q.MaxRecords < pageSize {
		pageSize = q.MaxRecords
	}

	var collected []domain.RawFeature
	offset := 0
	for {
		p, err := c.queryPage(ctx, q, offset, pageSize)
		if err != nil {
			return nil, err
		}
		collected = append(collected, p.Features...)

		if q.MaxRecords > 0 && len(collected) >= q.MaxRecords {
			return collected[:q.MaxRecords], nil
		}
		if len(p.Features) < pageSize {
			return collected, nil
		}
		offset += pageSize
	}
}

func (c *Client) queryPage(ctx context.Context, q Query, offset, count int) (*page, error) {
	where := q.Where
	if where == "" {
		where = "1=1"
	}
	outFields := q.OutFields
	if outFields == "" {
		outFields = "*"
	}

	params := url.Values{
		"f":                 {"json"},
		"where":             {where},
		"outFields":         {outFields},
		"returnGeometry":    {strconv.FormatBool(q.ReturnGeometry)},
		"outSR":             {"4326"},
		"resultOffset":      {strconv.Itoa(offset)},
		"resultRecordCount": {strconv.Itoa(count)},
	}
	if q.Envelope != nil {
		envelope, err := json.Marshal(q.Envelope)
		if err != nil {
			return nil, fmt.Errorf("encode envelope: %w", err)
		}
		params.Set("geometry", string(envelope))
		params.Set("geometryType", "esriGeometryEnvelope")
		params.Set("inSR", "4326")
		params.Set("spatialRel", "esriSpatialRelIntersects")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.LayerURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query layer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("arcgis API error: status %d: %s", resp.StatusCode, body)
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if p.Error != nil {
		return nil, p.Error
	}
	return &p, nil
}
