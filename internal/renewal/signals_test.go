package renewal

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectSignalsClassification(t *testing.T) {
	record := map[string]any{
		"PermitExpirationDate": "2025-06-01",
		"SaleDate":             "2022-03-15",
		"AssessmentYear":       float64(2023),
		"LastUpdated":          "2024-01-10",
		"SomethingElseDate":    "2021-07-04",
	}

	signals := CollectSignals(record)
	require.Len(t, signals, 5)

	byPath := make(map[string]Signal)
	for _, s := range signals {
		byPath[s.Path] = s
	}
	assert.Equal(t, SignalPermit, byPath["PermitExpirationDate"].Type)
	assert.Equal(t, SignalTransfer, byPath["SaleDate"].Type)
	assert.Equal(t, SignalAssessment, byPath["AssessmentYear"].Type)
	assert.Equal(t, SignalUpdate, byPath["LastUpdated"].Type)
	assert.Equal(t, SignalGeneric, byPath["SomethingElseDate"].Type)
}

func TestCollectSignalsOrderedByDate(t *testing.T) {
	record := map[string]any{
		"bDate": "2024-01-01",
		"aDate": "2022-01-01",
		"cDate": "2023-01-01",
	}

	signals := CollectSignals(record)
	require.Len(t, signals, 3)
	for i := 1; i < len(signals); i++ {
		assert.False(t, signals[i].Date.Before(signals[i-1].Date))
	}
	assert.Equal(t, "aDate", signals[0].Path)
	assert.Equal(t, "cDate", signals[1].Path)
	assert.Equal(t, "bDate", signals[2].Path)
}

func TestCollectSignalsPermitBeatsSaleInPath(t *testing.T) {
	// A path matching both permit and transfer keywords classifies as
	// permit: the classification patterns are ordered.
	record := map[string]any{"PermitSaleDate": "2024-05-01"}

	signals := CollectSignals(record)
	require.Len(t, signals, 1)
	assert.Equal(t, SignalPermit, signals[0].Type)
}

func TestCollectSignalsDepthBound(t *testing.T) {
	record := map[string]any{
		"topDate": "2020-01-01",
		"nested": map[string]any{
			"saleDate": "2021-01-01", // depth 2: collected
			"deeper": map[string]any{
				"permitDate": "2022-01-01", // depth 3: collected
				"more": map[string]any{
					"taxDate": "2023-01-01", // depth 4: collected
					"most": map[string]any{
						"renewalDate": "2024-01-01", // depth 5: skipped
					},
				},
			},
		},
	}

	signals := CollectSignals(record)
	paths := make([]string, 0, len(signals))
	for _, s := range signals {
		paths = append(paths, s.Path)
	}
	assert.Contains(t, paths, "topDate")
	assert.Contains(t, paths, "nested.saleDate")
	assert.Contains(t, paths, "nested.deeper.permitDate")
	assert.Contains(t, paths, "nested.deeper.more.taxDate")
	assert.NotContains(t, paths, "nested.deeper.more.most.renewalDate")
}

func TestCollectSignalsArrayBound(t *testing.T) {
	history := make([]any, 40)
	for i := range history {
		history[i] = fmt.Sprintf("20%02d-01-01", i%30+10)
	}
	record := map[string]any{"saleHistory": history}

	signals := CollectSignals(record)
	assert.LessOrEqual(t, len(signals), 25)
	for _, s := range signals {
		assert.Equal(t, SignalTransfer, s.Type)
	}
}

func TestCollectSignalsArrayIndexesAreDistinctPaths(t *testing.T) {
	record := map[string]any{
		"saleDates": []any{"2022-01-01", "2022-01-01"},
	}

	signals := CollectSignals(record)
	require.Len(t, signals, 2)
	assert.Equal(t, "saleDates.0", signals[0].Path)
	assert.Equal(t, "saleDates.1", signals[1].Path)
}

func TestCollectSignalsValueShapeHeuristics(t *testing.T) {
	record := map[string]any{
		"remarks":  "6/15/2024",      // slash date in value
		"vintage":  "1987",           // bare year string
		"comment":  "nothing to see", // no date shape
		"quantity": float64(3),       // unremarkable key, non-string
	}

	signals := CollectSignals(record)
	paths := make(map[string]bool)
	for _, s := range signals {
		paths[s.Path] = true
	}
	assert.True(t, paths["remarks"])
	assert.True(t, paths["vintage"])
	assert.False(t, paths["comment"])
	assert.False(t, paths["quantity"])
}

func TestCollectSignalsEmptyRecord(t *testing.T) {
	assert.Nil(t, CollectSignals(nil))
	assert.Nil(t, CollectSignals(map[string]any{}))
}

func TestCollectSignalsDeterministic(t *testing.T) {
	record := map[string]any{
		"aDate": "2023-05-01",
		"bDate": "2023-05-01",
		"cDate": "2023-05-01",
	}
	first := CollectSignals(record)
	for range 10 {
		again := CollectSignals(record)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("signal order changed between runs (-first +again):\n%s", diff)
		}
	}
}
