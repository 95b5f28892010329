// Package sink implements the ordered post-completion pipeline applied to a
// reassembled artifact: format and schema validation, security scanning,
// metadata enrichment, catalog registration and downstream notification.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go-upload-engine/internal/model"
	"go-upload-engine/pkg/apierror"
)

// Artifact carries the reassembled file through the pipeline. Sinks may
// attach results (scan report, enhanced metadata, downstream job id) for
// later stages and for the response.
type Artifact struct {
	Path     string
	Metadata model.FileMetadata

	Scan            *model.ScanResults
	Enhanced        *model.EnhancedMetadata
	DownstreamJobID string
}

// Sink is one pipeline stage. Returning a *Veto rejects the artifact and
// short-circuits the pipeline; any other error is logged and the pipeline
// continues.
type Sink interface {
	Name() string
	Process(ctx context.Context, art *Artifact) error
}

// Veto is the rejection verdict of a validating sink.
type Veto struct {
	Sink   string
	Reason string
}

func (v *Veto) Error() string {
	return fmt.Sprintf("%s rejected artifact: %s", v.Sink, v.Reason)
}

// Pipeline runs sinks in order. A veto deletes the reassembled file and
// surfaces as a client error; non-vetoing failures never fail the upload.
type Pipeline struct {
	sinks []Sink
}

func NewPipeline(sinks ...Sink) *Pipeline {
	return &Pipeline{sinks: sinks}
}

func (p *Pipeline) Run(ctx context.Context, art *Artifact) error {
	for _, s := range p.sinks {
		err := s.Process(ctx, art)
		if err == nil {
			continue
		}

		var veto *Veto
		if errors.As(err, &veto) {
			if rmErr := os.Remove(art.Path); rmErr != nil {
				slog.Error("failed to delete vetoed artifact", "path", art.Path, "error", rmErr)
			}
			slog.Warn("artifact vetoed",
				"upload_id", art.Metadata.UploadID,
				"sink", veto.Sink,
				"reason", veto.Reason,
			)
			return apierror.New("VALIDATION_FAILED", veto.Reason, veto.Sink, 400)
		}

		slog.Error("sink failed (non-vetoing)",
			"upload_id", art.Metadata.UploadID,
			"sink", s.Name(),
			"error", err,
		)
	}

	return nil
}
