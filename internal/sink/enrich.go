package sink

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-upload-engine/internal/model"
	"go-upload-engine/internal/util"
)

// MetadataEnricher builds the catalog-facing record: base metadata plus
// lineage, and a dataset or model info block depending on file type.
// Non-vetoing; a record-count failure just leaves the estimate absent.
type MetadataEnricher struct{}

func (MetadataEnricher) Name() string { return "metadata-enrichment" }

func (MetadataEnricher) Process(_ context.Context, art *Artifact) error {
	enhanced := &model.EnhancedMetadata{
		FileMetadata: art.Metadata,
		Lineage: model.Lineage{
			Source:          "user_upload",
			UploadTimestamp: art.Metadata.Timestamp,
			DownstreamJobs:  []string{},
		},
	}

	ext := strings.ToLower(filepath.Ext(art.Metadata.Filename))

	switch art.Metadata.FileType {
	case util.FileTypeDataset:
		enhanced.DatasetInfo = &model.DatasetInfo{
			Format:           ext,
			EstimatedRecords: estimateRecords(art.Path, ext),
			PreviewAvailable: true,
		}
	case util.FileTypeModelArtifact:
		enhanced.ModelInfo = &model.ModelInfo{
			Format:    ext,
			Framework: util.ModelFramework(ext),
		}
	}

	art.Enhanced = enhanced
	return nil
}

// estimateRecords counts records for line-oriented formats: one per line
// for JSONL, lines minus the header for CSV. Other formats have no
// estimate.
func estimateRecords(path string, ext string) *int {
	switch ext {
	case ".jsonl":
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		return &n
	case ".csv":
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		n = max(0, n-1)
		return &n
	default:
		return nil
	}
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	last := byte('\n')
	buf := make([]byte, 32*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	// A trailing partial line still counts as a record.
	if last != '\n' {
		count++
	}

	return count, nil
}
