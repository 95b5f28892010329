package sink

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"go-upload-engine/internal/event"
	"go-upload-engine/internal/util"
)

// DownstreamNotifier hands completed datasets to the fine-tuning and data
// curation pipelines. Dispatch goes over the in-process event bus, the
// stand-in for a real job queue; each trigger mints a job id. Non-vetoing.
type DownstreamNotifier struct {
	bus event.Bus
}

func NewDownstreamNotifier(bus event.Bus) *DownstreamNotifier {
	return &DownstreamNotifier{bus: bus}
}

func (*DownstreamNotifier) Name() string { return "downstream-notification" }

func (n *DownstreamNotifier) Process(_ context.Context, art *Artifact) error {
	if art.Metadata.FileType != util.FileTypeDataset {
		return nil
	}

	fineTuneJob := n.trigger(event.TypeFineTuneRequested, art)
	curationJob := n.trigger(event.TypeCurationRequested, art)

	// The fine-tuning job is the one surfaced to the client.
	art.DownstreamJobID = fineTuneJob

	if art.Enhanced != nil {
		art.Enhanced.Lineage.DownstreamJobs = append(art.Enhanced.Lineage.DownstreamJobs, fineTuneJob, curationJob)
	}

	return nil
}

func (n *DownstreamNotifier) trigger(t event.Type, art *Artifact) string {
	jobID := uuid.NewString()

	if n.bus != nil {
		n.bus.Publish(event.Event{
			ID:   uuid.NewString(),
			Type: t,
			Payload: map[string]any{
				"job_id":   jobID,
				"filepath": art.Path,
				"metadata": art.Metadata,
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}

	slog.Info("downstream job requested",
		"job_type", t,
		"job_id", jobID,
		"upload_id", art.Metadata.UploadID,
	)

	return jobID
}

// Default assembles the standard pipeline in its contractual order.
func Default(catalog *Catalog, bus event.Bus) *Pipeline {
	return NewPipeline(
		FormatValidator{},
		SchemaValidator{},
		SecurityScanner{},
		MetadataEnricher{},
		NewCatalogRegistrar(catalog),
		NewDownstreamNotifier(bus),
	)
}
