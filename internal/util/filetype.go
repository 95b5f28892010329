package util

import "strings"

const (
	FileTypeDataset       = "dataset"
	FileTypeModelArtifact = "model_artifact"
	FileTypeArchive       = "archive"
	FileTypeUnknown       = "unknown"
)

var datasetExtensions = map[string]struct{}{
	"jsonl": {}, "json": {}, "csv": {}, "parquet": {}, "tsv": {}, "txt": {},
}

var modelExtensions = map[string]struct{}{
	"pt": {}, "pth": {}, "ckpt": {}, "safetensors": {}, "onnx": {}, "pb": {}, "h5": {},
}

var archiveExtensions = map[string]struct{}{
	"zip": {}, "tar": {}, "gz": {}, "bz2": {},
}

var frameworkByExtension = map[string]string{
	".pt":          "pytorch",
	".pth":         "pytorch",
	".ckpt":        "pytorch",
	".safetensors": "safetensors",
	".onnx":        "onnx",
	".pb":          "tensorflow",
	".h5":          "keras",
}

// DetectFileType classifies a filename by its extension (lowercased, after
// the last dot). Files with no extension map to "unknown".
func DetectFileType(filename string) string {
	ext := extensionOf(filename)
	if ext == "" {
		return FileTypeUnknown
	}

	if _, ok := datasetExtensions[ext]; ok {
		return FileTypeDataset
	}
	if _, ok := modelExtensions[ext]; ok {
		return FileTypeModelArtifact
	}
	if _, ok := archiveExtensions[ext]; ok {
		return FileTypeArchive
	}

	return FileTypeUnknown
}

// IsDatasetExtension reports whether a dotted extension (".jsonl") is in the
// recognized dataset set.
func IsDatasetExtension(dottedExt string) bool {
	_, ok := datasetExtensions[strings.TrimPrefix(strings.ToLower(dottedExt), ".")]
	return ok && dottedExt != ""
}

// ModelFramework maps a dotted extension to its ML framework name.
func ModelFramework(dottedExt string) string {
	if fw, ok := frameworkByExtension[strings.ToLower(dottedExt)]; ok {
		return fw
	}
	return FileTypeUnknown
}

func extensionOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}
