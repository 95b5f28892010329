package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-upload-engine/internal/util"
)

const jsonlProbeLines = 10

// FormatValidator checks dataset files for a recognized extension and, for
// JSONL, that the leading records actually parse. Other dataset formats are
// accepted without deeper inspection.
type FormatValidator struct{}

func (FormatValidator) Name() string { return "format-validation" }

func (v FormatValidator) Process(_ context.Context, art *Artifact) error {
	if art.Metadata.FileType != util.FileTypeDataset {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(art.Metadata.Filename))
	if !util.IsDatasetExtension(ext) {
		return &Veto{Sink: v.Name(), Reason: fmt.Sprintf("invalid dataset format: %s", ext)}
	}

	if ext == ".jsonl" {
		if err := v.probeJSONL(art.Path); err != nil {
			return err
		}
	}

	return nil
}

// probeJSONL parses the first ten non-empty lines as independent JSON
// values; the first malformed line is a hard reject with its line number.
func (v FormatValidator) probeJSONL(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &Veto{Sink: v.Name(), Reason: fmt.Sprintf("cannot open dataset: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	checked := 0
	for scanner.Scan() && checked < jsonlProbeLines {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !json.Valid([]byte(line)) {
			return &Veto{Sink: v.Name(), Reason: fmt.Sprintf("invalid JSONL format at line %d", lineNo)}
		}
		checked++
	}

	if err := scanner.Err(); err != nil {
		return &Veto{Sink: v.Name(), Reason: fmt.Sprintf("cannot read dataset: %v", err)}
	}

	return nil
}
