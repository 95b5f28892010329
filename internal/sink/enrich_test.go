package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnricherBuildsLineage(t *testing.T) {
	t.Parallel()

	art := writeArtifact(t, "mystery.bin", []byte("data"))
	art.Metadata.Timestamp = "2026-08-01T00:00:00Z"

	require.NoError(t, MetadataEnricher{}.Process(context.Background(), art))
	require.NotNil(t, art.Enhanced)

	assert.Equal(t, "user_upload", art.Enhanced.Lineage.Source)
	assert.Equal(t, "2026-08-01T00:00:00Z", art.Enhanced.Lineage.UploadTimestamp)
	assert.Empty(t, art.Enhanced.Lineage.DownstreamJobs)
	assert.Nil(t, art.Enhanced.DatasetInfo)
	assert.Nil(t, art.Enhanced.ModelInfo)
}

func TestEnricherCountsJSONLRecords(t *testing.T) {
	t.Parallel()

	art := writeArtifact(t, "train.jsonl", []byte("{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n"))

	require.NoError(t, MetadataEnricher{}.Process(context.Background(), art))
	require.NotNil(t, art.Enhanced.DatasetInfo)

	assert.Equal(t, ".jsonl", art.Enhanced.DatasetInfo.Format)
	require.NotNil(t, art.Enhanced.DatasetInfo.EstimatedRecords)
	assert.Equal(t, 3, *art.Enhanced.DatasetInfo.EstimatedRecords)
	assert.True(t, art.Enhanced.DatasetInfo.PreviewAvailable)
}

func TestEnricherCountsJSONLWithoutTrailingNewline(t *testing.T) {
	t.Parallel()

	art := writeArtifact(t, "train.jsonl", []byte("{\"a\":1}\n{\"a\":2}"))

	require.NoError(t, MetadataEnricher{}.Process(context.Background(), art))
	require.NotNil(t, art.Enhanced.DatasetInfo.EstimatedRecords)
	assert.Equal(t, 2, *art.Enhanced.DatasetInfo.EstimatedRecords)
}

func TestEnricherCSVSubtractsHeader(t *testing.T) {
	t.Parallel()

	art := writeArtifact(t, "data.csv", []byte("a,b\n1,2\n3,4\n"))

	require.NoError(t, MetadataEnricher{}.Process(context.Background(), art))
	require.NotNil(t, art.Enhanced.DatasetInfo.EstimatedRecords)
	assert.Equal(t, 2, *art.Enhanced.DatasetInfo.EstimatedRecords)
}

func TestEnricherEmptyCSV(t *testing.T) {
	t.Parallel()

	art := writeArtifact(t, "data.csv", nil)

	require.NoError(t, MetadataEnricher{}.Process(context.Background(), art))
	require.NotNil(t, art.Enhanced.DatasetInfo.EstimatedRecords)
	assert.Zero(t, *art.Enhanced.DatasetInfo.EstimatedRecords)
}

func TestEnricherNoEstimateForOtherFormats(t *testing.T) {
	t.Parallel()

	art := writeArtifact(t, "data.parquet", []byte("PAR1"))

	require.NoError(t, MetadataEnricher{}.Process(context.Background(), art))
	require.NotNil(t, art.Enhanced.DatasetInfo)
	assert.Nil(t, art.Enhanced.DatasetInfo.EstimatedRecords)
}

func TestEnricherModelInfo(t *testing.T) {
	t.Parallel()

	art := writeArtifact(t, "model.safetensors", []byte{0x00})

	require.NoError(t, MetadataEnricher{}.Process(context.Background(), art))
	require.NotNil(t, art.Enhanced.ModelInfo)
	assert.Equal(t, ".safetensors", art.Enhanced.ModelInfo.Format)
	assert.Equal(t, "safetensors", art.Enhanced.ModelInfo.Framework)
	assert.Nil(t, art.Enhanced.DatasetInfo)
}

func TestScannerRecordsSkippedReport(t *testing.T) {
	t.Parallel()

	art := writeArtifact(t, "data.csv", []byte("a\n"))

	require.NoError(t, SecurityScanner{}.Process(context.Background(), art))
	require.NotNil(t, art.Scan)
	assert.Equal(t, "skipped", art.Scan.VirusScan.Status)
	assert.Equal(t, "skipped", art.Scan.PIIDetection.Status)
	assert.NotEmpty(t, art.Scan.Timestamp)
}
