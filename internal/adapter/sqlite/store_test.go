package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sidetalker/rental-registry/internal/domain"
	"github.com/Sidetalker/rental-registry/internal/renewal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "listings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleListing(id string) StoredListing {
	lat, lng := 39.4783, -106.0463
	processed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return StoredListing{
		Record: domain.ListingRecord{
			ID:              id,
			Complex:         "River Mountain Lodge",
			Unit:            "204",
			OwnerName:       "John Smith",
			OwnerNames:      []string{"John Smith"},
			Owners:          []domain.OwnerPart{{First: "John", Last: "Smith"}},
			MailingAddress:  "123 MAIN ST, Breckenridge, CO 80424",
			MailingLine1:    "123 MAIN ST",
			MailingCity:     "Breckenridge",
			MailingState:    "CO",
			Zip5:            "80424",
			Zip9:            "80424-1234",
			Subdivision:     "RIVER MOUNTAIN LODGE CONDO",
			ScheduleNumber:  id,
			PhysicalAddress: "100 SKI HILL RD UNIT 204",
			DetailURL:       "https://gis.summitcountyco.gov/map/DetailData.aspx?Schno=" + id,
			IsBusinessOwner: false,
			Latitude:        &lat,
			Longitude:       &lng,
			Raw:             domain.Attributes{"PropertyScheduleText": id},
			ProcessedAt:     processed,
		},
		Renewal: renewal.Resolution{
			Estimate: &renewal.Estimate{
				Date:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
				Method: renewal.MethodDirectPermit,
			},
			Category: renewal.CategoryFuture,
			MonthKey: "2025-03",
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	in := sampleListing("6505123")
	require.NoError(t, store.ReplaceAll(ctx, []StoredListing{in}))

	out, err := store.Listings(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, in.Record.ID, got.Record.ID)
	assert.Equal(t, in.Record.Complex, got.Record.Complex)
	assert.Equal(t, in.Record.OwnerNames, got.Record.OwnerNames)
	assert.Equal(t, in.Record.Owners, got.Record.Owners)
	require.NotNil(t, got.Record.Latitude)
	assert.Equal(t, *in.Record.Latitude, *got.Record.Latitude)
	assert.Equal(t, in.Record.ProcessedAt.Unix(), got.Record.ProcessedAt.Unix())

	require.NotNil(t, got.Renewal.Estimate)
	assert.True(t, got.Renewal.Estimate.Date.Equal(in.Renewal.Estimate.Date))
	assert.Equal(t, renewal.MethodDirectPermit, got.Renewal.Estimate.Method)
	assert.Equal(t, renewal.CategoryFuture, got.Renewal.Category)
	assert.Equal(t, "2025-03", got.Renewal.MonthKey)

	assert.Equal(t, "6505123", got.Record.Raw["PropertyScheduleText"])
}

func TestStoreReplaceSwapsCollection(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, []StoredListing{
		sampleListing("A1"), sampleListing("A2"), sampleListing("A3"),
	}))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, store.ReplaceAll(ctx, []StoredListing{sampleListing("B1")}))
	out, err := store.Listings(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "B1", out[0].Record.ID)
}

func TestStoreMissingRenewal(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	listing := sampleListing("X1")
	listing.Renewal = renewal.Resolution{Category: renewal.CategoryMissing}
	require.NoError(t, store.ReplaceAll(ctx, []StoredListing{listing}))

	out, err := store.Listings(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Renewal.Estimate)
	assert.Equal(t, renewal.CategoryMissing, out[0].Renewal.Category)
}

func TestStoreListingsOrdered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := sampleListing("1")
	a.Record.Complex = "Beta"
	b := sampleListing("2")
	b.Record.Complex = "alpha"
	require.NoError(t, store.ReplaceAll(ctx, []StoredListing{a, b}))

	out, err := store.Listings(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "alpha", out[0].Record.Complex, "complex order is case-insensitive")
}

func TestStoreCategoryCounts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := sampleListing("1")
	b := sampleListing("2")
	c := sampleListing("3")
	c.Renewal = renewal.Resolution{Category: renewal.CategoryMissing}
	require.NoError(t, store.ReplaceAll(ctx, []StoredListing{a, b, c}))

	counts, err := store.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[string(renewal.CategoryFuture)])
	assert.Equal(t, 1, counts[string(renewal.CategoryMissing)])
}

func TestStoreEmptyReplace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, nil))
	out, err := store.Listings(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}
