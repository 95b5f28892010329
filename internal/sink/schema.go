package sink

import (
	"context"

	"go-upload-engine/internal/util"
)

// SchemaValidator reserves the dataset schema check hook. It accepts
// everything; a real implementation would verify required fields
// ("messages", "prompt", label columns) for fine-tuning data.
type SchemaValidator struct{}

func (SchemaValidator) Name() string { return "schema-validation" }

func (SchemaValidator) Process(_ context.Context, art *Artifact) error {
	if art.Metadata.FileType != util.FileTypeDataset {
		return nil
	}

	return nil
}
