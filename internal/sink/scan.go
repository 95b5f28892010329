package sink

import (
	"context"
	"time"

	"go-upload-engine/internal/model"
)

// SecurityScanner reserves the virus/PII scanning hook. It records a
// skipped-scan report on the artifact; a real implementation would plug in
// ClamAV and a PII detector here and veto on findings.
type SecurityScanner struct{}

func (SecurityScanner) Name() string { return "security-scan" }

func (SecurityScanner) Process(_ context.Context, art *Artifact) error {
	art.Scan = &model.ScanResults{
		VirusScan: model.ScanStatus{
			Status:  "skipped",
			Message: "virus scanning not implemented",
		},
		PIIDetection: model.ScanStatus{
			Status:  "skipped",
			Message: "PII detection not implemented",
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return nil
}
