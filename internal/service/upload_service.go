package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"go-upload-engine/internal/event"
	"go-upload-engine/internal/model"
	"go-upload-engine/internal/session"
	"go-upload-engine/internal/storage"
	"go-upload-engine/internal/util"
	"go-upload-engine/pkg/apierror"
)

// DefaultChunkSize is the server-chosen chunk size handed to clients at init.
const DefaultChunkSize = 1024 * 1024

// UploadService orchestrates the upload lifecycle over the chunk store and
// the session registry: init, idempotent chunk intake, status, completion.
type UploadService struct {
	store     storage.ChunkStore
	registry  *session.Registry
	chunkSize int64
	bus       event.Bus
}

func NewUploadService(store storage.ChunkStore, registry *session.Registry, chunkSize int64, bus event.Bus) *UploadService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &UploadService{
		store:     store,
		registry:  registry,
		chunkSize: chunkSize,
		bus:       bus,
	}
}

// Init creates a fresh upload session. Empty filenames are accepted; the
// total size must be strictly positive.
func (s *UploadService) Init(_ context.Context, req model.InitUploadRequest) (model.InitUploadResponse, error) {
	if req.TotalSize <= 0 {
		return model.InitUploadResponse{}, apierror.Unprocessable("totalSize must be positive", "")
	}

	uploadID := uuid.NewString()
	sess := session.New(uploadID, req.Filename, req.TotalSize, s.chunkSize, req.Checksum)
	s.registry.Add(sess)

	slog.Info("upload session initiated",
		"upload_id", uploadID,
		"filename", req.Filename,
		"total_size", req.TotalSize,
		"chunk_size", s.chunkSize,
		"total_chunks", sess.TotalChunks,
	)

	s.publish(event.TypeUploadInitialized, map[string]any{
		"upload_id":    uploadID,
		"filename":     req.Filename,
		"total_chunks": sess.TotalChunks,
	})

	return model.InitUploadResponse{UploadID: uploadID, ChunkSize: s.chunkSize}, nil
}

// UploadChunk validates and persists one chunk. Retrying an index whose
// committed chunk already matches the payload length short-circuits without
// rewriting; the comparison is by size, not content.
func (s *UploadService) UploadChunk(_ context.Context, uploadID string, index int, data []byte, totalChunksClaimed int) (model.ChunkUploadResponse, error) {
	sess, ok := s.registry.Get(uploadID)
	if !ok {
		return model.ChunkUploadResponse{}, apierror.BadRequest("upload session not found", uploadID)
	}

	if index < 0 || index >= sess.TotalChunks {
		return model.ChunkUploadResponse{}, apierror.BadRequest(
			fmt.Sprintf("invalid chunk index: %d", index),
			fmt.Sprintf("valid range is 0..%d", sess.TotalChunks-1),
		)
	}

	if totalChunksClaimed != sess.TotalChunks {
		return model.ChunkUploadResponse{}, apierror.BadRequest(
			"total chunks mismatch",
			fmt.Sprintf("expected %d, got %d", sess.TotalChunks, totalChunksClaimed),
		)
	}

	// Idempotency shortcut: an already committed chunk of the same length is
	// acknowledged without touching disk again.
	if size, ok := s.store.ChunkSize(uploadID, index); ok && size == int64(len(data)) {
		count := sess.MarkReceived(index)
		return model.ChunkUploadResponse{
			Success:        true,
			ReceivedChunks: count,
			Message:        "chunk already uploaded (idempotent)",
		}, nil
	}

	if err := s.store.StoreChunk(uploadID, index, data); err != nil {
		slog.Error("chunk store failed", "upload_id", uploadID, "chunk_index", index, "error", err)
		return model.ChunkUploadResponse{}, apierror.New("STORE_FAILED", "failed to store chunk", err.Error(), 400)
	}

	count := sess.MarkReceived(index)
	return model.ChunkUploadResponse{
		Success:        true,
		ReceivedChunks: count,
		Message:        "chunk uploaded successfully",
	}, nil
}

// Status reports which chunks are persisted. When the session is gone from
// the registry but chunks remain on disk, it returns a partial status with
// an unknown chunk total.
func (s *UploadService) Status(_ context.Context, uploadID string) (model.UploadStatus, error) {
	if sess, ok := s.registry.Get(uploadID); ok {
		return model.UploadStatus{
			UploadID:       uploadID,
			TotalChunks:    sess.TotalChunks,
			ReceivedChunks: sess.ReceivedIndices(),
			IsComplete:     sess.IsComplete(),
		}, nil
	}

	if received := s.store.ListChunks(uploadID); len(received) > 0 {
		return model.UploadStatus{
			UploadID:       uploadID,
			ReceivedChunks: received,
			Partial:        true,
		}, nil
	}

	return model.UploadStatus{}, apierror.NotFound("upload session not found", uploadID)
}

// Complete reassembles the chunks into the final artifact, builds its
// metadata, and retires the session. The post-completion sink pipeline is
// the caller's concern, so a successful reassembly is returned even when no
// sinks are configured.
func (s *UploadService) Complete(_ context.Context, uploadID string) (string, model.FileMetadata, error) {
	sess, ok := s.registry.Get(uploadID)
	if !ok {
		return "", model.FileMetadata{}, apierror.BadRequest("upload session not found", uploadID)
	}

	if !sess.IsComplete() {
		missing := sess.MissingChunks()
		return "", model.FileMetadata{}, apierror.BadRequest(
			fmt.Sprintf("upload incomplete: received %d of %d chunks", sess.ReceivedCount(), sess.TotalChunks),
			fmt.Sprintf("missing chunks: %v", missing),
		)
	}

	outputPath, err := s.store.ReassembleFile(uploadID, sess.TotalChunks, sess.Filename, sess.TotalSize)
	if err != nil {
		var missingErr *storage.MissingChunksError
		if errors.As(err, &missingErr) {
			return "", model.FileMetadata{}, apierror.BadRequest("upload incomplete", missingErr.Error())
		}
		slog.Error("reassembly failed", "upload_id", uploadID, "error", err)
		return "", model.FileMetadata{}, apierror.New("REASSEMBLY_FAILED", "failed to reassemble file", err.Error(), 500)
	}

	// The client's checksum field is a hint: its presence asks for a fresh
	// whole-file SHA-256, its value is discarded.
	checksum := ""
	if sess.Checksum != "" {
		checksum, err = s.store.FileChecksum(outputPath)
		if err != nil {
			slog.Error("checksum computation failed", "upload_id", uploadID, "error", err)
			return "", model.FileMetadata{}, apierror.New("CHECKSUM_FAILED", "failed to compute checksum", err.Error(), 500)
		}
	}

	metadata := model.FileMetadata{
		UploadID:  uploadID,
		Filename:  sess.Filename,
		Size:      sess.TotalSize,
		Checksum:  checksum,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		FileType:  util.DetectFileType(sess.Filename),
		Filepath:  outputPath,
	}

	s.registry.Delete(uploadID)
	if err := s.store.CleanupChunks(uploadID); err != nil {
		// The artifact is already committed; a failed staging cleanup is not
		// a completion failure.
		slog.Warn("chunk cleanup failed after completion", "upload_id", uploadID, "error", err)
	}

	slog.Info("upload completed",
		"upload_id", uploadID,
		"filename", sess.Filename,
		"size", sess.TotalSize,
		"file_type", metadata.FileType,
	)

	s.publish(event.TypeUploadCompleted, metadata)

	return outputPath, metadata, nil
}

// Abort discards a session and its staged chunks.
func (s *UploadService) Abort(_ context.Context, uploadID string) error {
	_, ok := s.registry.Get(uploadID)
	if !ok {
		return apierror.NotFound("upload session not found", uploadID)
	}

	s.registry.Delete(uploadID)
	if err := s.store.CleanupChunks(uploadID); err != nil {
		slog.Warn("chunk cleanup failed on abort", "upload_id", uploadID, "error", err)
	}

	slog.Info("upload aborted", "upload_id", uploadID)
	s.publish(event.TypeUploadAborted, map[string]any{"upload_id": uploadID})
	return nil
}

// CleanupExpired drops sessions older than maxAge together with their chunk
// directories, then sweeps orphan chunk directories left by sessions lost
// to a restart.
func (s *UploadService) CleanupExpired(maxAge time.Duration) {
	cutoff := time.Now().UTC().Add(-maxAge)

	expired := s.registry.ExpiredBefore(cutoff)
	for _, id := range expired {
		s.registry.Delete(id)
		if err := s.store.CleanupChunks(id); err != nil {
			slog.Warn("expired session cleanup failed", "upload_id", id, "error", err)
		}
	}

	if len(expired) > 0 {
		slog.Info("cleaned up expired upload sessions", "count", len(expired))
	}

	stale, err := s.store.StaleSessions(maxAge)
	if err != nil {
		slog.Warn("orphan sweep: listing stale sessions failed", "error", err)
		return
	}

	orphansRemoved := 0
	for _, id := range stale {
		if _, tracked := s.registry.Get(id); tracked {
			continue
		}
		if err := s.store.CleanupChunks(id); err == nil {
			orphansRemoved++
		}
	}

	if orphansRemoved > 0 {
		slog.Info("cleaned up orphan chunk directories", "count", orphansRemoved)
	}
}

// StartCleanupTicker runs CleanupExpired on a regular interval until ctx is
// cancelled. Runs once on startup to clear leftovers from a previous run.
func (s *UploadService) StartCleanupTicker(ctx context.Context, interval time.Duration, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.CleanupExpired(maxAge)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired(maxAge)
		}
	}
}

func (s *UploadService) publish(t event.Type, payload any) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
