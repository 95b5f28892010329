package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go-upload-engine/internal/model"
	"go-upload-engine/internal/service"
	"go-upload-engine/internal/sink"
	"go-upload-engine/pkg/apierror"
)

// UploadHandler adapts the HTTP surface onto the upload engine: JSON control
// endpoints plus the multipart chunk intake. After a successful completion
// it runs the post-completion sink pipeline.
type UploadHandler struct {
	service      *service.UploadService
	pipeline     *sink.Pipeline
	maxChunkSize int64
}

func NewUploadHandler(service *service.UploadService, pipeline *sink.Pipeline, maxChunkSize int64) *UploadHandler {
	return &UploadHandler{service: service, pipeline: pipeline, maxChunkSize: maxChunkSize}
}

// Init handles POST /api/upload/init
func (h *UploadHandler) Init(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req model.InitUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Unprocessable("invalid JSON body", err.Error()))
		return
	}

	if req.TotalSize <= 0 {
		writeError(w, apierror.Unprocessable("totalSize must be positive", strconv.FormatInt(req.TotalSize, 10)))
		return
	}

	resp, err := h.service.Init(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// UploadChunk handles POST /api/upload/chunk, a multipart form with the
// fields uploadId, chunkIndex, totalChunks and the chunk file part.
func (h *UploadHandler) UploadChunk(w http.ResponseWriter, r *http.Request) {
	// Cap the body at chunk max + headroom for the multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxChunkSize+1024*1024)
	defer r.Body.Close()

	if err := r.ParseMultipartForm(h.maxChunkSize + 1024*1024); err != nil {
		writeError(w, apierror.Unprocessable("invalid multipart form", err.Error()))
		return
	}

	uploadID := r.FormValue("uploadId")
	if uploadID == "" {
		writeError(w, apierror.Unprocessable("uploadId is required", ""))
		return
	}

	chunkIndexStr := r.FormValue("chunkIndex")
	if chunkIndexStr == "" {
		writeError(w, apierror.Unprocessable("chunkIndex is required", ""))
		return
	}
	chunkIndex, err := strconv.Atoi(chunkIndexStr)
	if err != nil || chunkIndex < 0 {
		writeError(w, apierror.Unprocessable("chunkIndex must be a non-negative integer", chunkIndexStr))
		return
	}

	totalChunksStr := r.FormValue("totalChunks")
	if totalChunksStr == "" {
		writeError(w, apierror.Unprocessable("totalChunks is required", ""))
		return
	}
	totalChunks, err := strconv.Atoi(totalChunksStr)
	if err != nil || totalChunks <= 0 {
		writeError(w, apierror.Unprocessable("totalChunks must be a positive integer", totalChunksStr))
		return
	}

	part, _, err := r.FormFile("chunk")
	if err != nil {
		writeError(w, apierror.Unprocessable("chunk file field is required", err.Error()))
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		writeError(w, apierror.BadRequest("failed to read chunk data", err.Error()))
		return
	}

	resp, err := h.service.UploadChunk(r.Context(), uploadID, chunkIndex, data, totalChunks)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Status handles GET /api/upload/status/{uploadId}
func (h *UploadHandler) Status(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadId")

	st, err := h.service.Status(r.Context(), uploadID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := model.UploadStatusResponse{
		UploadID:       st.UploadID,
		TotalChunks:    st.TotalChunks,
		ReceivedChunks: st.ReceivedChunks,
		IsComplete:     st.IsComplete,
	}

	// With only on-disk evidence, the best available total is one past the
	// highest chunk seen.
	if st.Partial {
		inferred := st.ReceivedChunks[len(st.ReceivedChunks)-1] + 1
		resp.TotalChunks = inferred
		resp.IsComplete = len(st.ReceivedChunks) == inferred
	}

	writeJSON(w, http.StatusOK, resp)
}

// Complete handles POST /api/upload/complete/{uploadId}
func (h *UploadHandler) Complete(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadId")

	path, metadata, err := h.service.Complete(r.Context(), uploadID)
	if err != nil {
		writeError(w, err)
		return
	}

	art := &sink.Artifact{Path: path, Metadata: metadata}
	if err := h.pipeline.Run(r.Context(), art); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.CompleteUploadResponse{
		Success:         true,
		Filepath:        path,
		Metadata:        metadata,
		DownstreamJobID: art.DownstreamJobID,
		Message:         "Upload completed successfully",
	})
}

// Abort handles DELETE /api/upload/{uploadId}
func (h *UploadHandler) Abort(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadId")

	if err := h.service.Abort(r.Context(), uploadID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.AbortUploadResponse{UploadID: uploadID, Status: "aborted"})
}
