package xlsx

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testReport() domain.Report {
	mean := 14.5
	return domain.Report{
		Rows:              9,
		MostSampledCruise: "Crucero 2017",
		PeakSamplingHour:  20,
		DepthAverages: []domain.DepthAverage{
			{Variable: "temperature__deg_c_", Cruise: "Crucero 2017", Bucket: domain.DepthBucket{Lower: 0, Upper: 10}, Mean: &mean, Samples: 2},
			{Variable: "temperature__deg_c_", Cruise: "Crucero 2017", Bucket: domain.DepthBucket{Lower: 10, Upper: 20}},
		},
		GeneratedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
	}
}

func TestWriter_LoadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "cruise.xlsx")
	require.NoError(t, NewWriter(path, slog.Default()).LoadReport(context.Background(), testReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, AveragesSheet}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"rows", "9"},
		{"most_sampled_cruise", "Crucero 2017"},
		{"peak_sampling_hour", "20"},
		{"empty_depth_bins", "1"},
		{"generated_at", "2024-04-26T15:10:00.000"},
	}, summary)

	rows, err := f.GetRows(AveragesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"variable", "cruise", "depth_from", "depth_to", "mean", "samples"}, rows[0])
	assert.Equal(t, []string{"temperature__deg_c_", "Crucero 2017", "0", "10", "14.5", "2"}, rows[1])
	assert.Equal(t, "", rows[2][4])
	assert.Equal(t, "0", rows[2][5])
}

func TestWriter_LoadReport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewWriter(filepath.Join(t.TempDir(), "x.xlsx"), slog.Default()).LoadReport(ctx, testReport())
	assert.ErrorIs(t, err, context.Canceled)
}
