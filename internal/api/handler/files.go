package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/utilityhub/utilityhub/internal/api/middleware"
	"github.com/utilityhub/utilityhub/internal/api/response"
	"github.com/utilityhub/utilityhub/internal/blob"
	"github.com/utilityhub/utilityhub/internal/store"
	"github.com/utilityhub/utilityhub/pkg/models"
)

// NewUploadFileHandler returns an http.HandlerFunc for POST /api/v1/files/upload.
// Expects a multipart form with a "file" part; the body is capped at maxBytes.
func NewUploadFileHandler(st store.Store, blobs blob.Store, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
					fmt.Sprintf("Upload exceeds the %d byte limit", maxBytes), nil)
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected multipart form data", nil)
			return
		}

		part, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Missing file part", nil)
			return
		}
		defer part.Close()

		data, err := io.ReadAll(part)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Could not read file part", nil)
			return
		}
		if len(data) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "File is empty", nil)
			return
		}

		sum := sha256.Sum256(data)
		now := time.Now().UTC()

		file := &models.File{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			Filename:    filepath.Base(header.Filename),
			ContentType: uploadContentType(header.Filename, header.Header.Get("Content-Type")),
			SizeBytes:   int64(len(data)),
			SHA256:      hex.EncodeToString(sum[:]),
			Source:      models.FileSourceUpload,
			CreatedAt:   now,
		}
		file.StorageKey = blob.ObjectKey(ownerID, file.ID, file.Filename, now)

		if err := blobs.Put(r.Context(), file.StorageKey, data, file.ContentType, map[string]string{
			"sha256": file.SHA256,
		}); err != nil {
			slog.Error("uploading object", "error", err)
			response.Error(w, http.StatusBadGateway, "STORAGE_UNAVAILABLE", "Could not store the file", nil)
			return
		}

		if err := st.CreateFile(r.Context(), file); err != nil {
			slog.Error("recording file", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not record the file", nil)
			return
		}

		recordEvent(r, st, ownerID, models.EventUpload, file.ID, map[string]any{
			"filename":   file.Filename,
			"size_bytes": file.SizeBytes,
		})

		response.Created(w, file)
	}
}

// NewGetFileHandler returns an http.HandlerFunc for GET /api/v1/files/{fileID}.
func NewGetFileHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "fileID must be a UUID", nil)
			return
		}

		file, err := st.GetFile(r.Context(), fileID, ownerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "File not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not load the file", nil)
			return
		}

		response.JSON(w, file)
	}
}

// NewDownloadFileHandler returns an http.HandlerFunc for
// GET /api/v1/files/{fileID}/download. Streams the stored bytes with an
// attachment disposition.
func NewDownloadFileHandler(st store.Store, blobs blob.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "fileID must be a UUID", nil)
			return
		}

		file, err := st.GetFile(r.Context(), fileID, ownerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "File not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not load the file", nil)
			return
		}

		body, err := blobs.Get(r.Context(), file.StorageKey)
		if err != nil {
			slog.Error("fetching object", "storage_key", file.StorageKey, "error", err)
			response.Error(w, http.StatusBadGateway, "STORAGE_UNAVAILABLE", "Could not fetch the file", nil)
			return
		}
		data, err := blob.ToBytes(body)
		if err != nil {
			slog.Error("reading object", "storage_key", file.StorageKey, "error", err)
			response.Error(w, http.StatusBadGateway, "STORAGE_UNAVAILABLE", "Could not read the file", nil)
			return
		}

		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": file.Filename,
		}))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

// uploadContentType prefers the declared part content type and falls back to
// the filename extension.
func uploadContentType(filename, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// recordEvent writes a usage event for an already-succeeded operation.
// Failures are logged, never surfaced.
func recordEvent(r *http.Request, st store.Store, ownerID uuid.UUID, eventType string, resourceID uuid.UUID, metadata map[string]any) {
	event := &models.UsageEvent{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		EventType:  eventType,
		ResourceID: &resourceID,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if keyID, ok := mw.GetAPIKeyID(r); ok {
		event.APIKeyID = &keyID
	}
	if err := st.CreateUsageEvent(r.Context(), event); err != nil {
		slog.Error("recording usage event", "event_type", eventType, "error", err)
	}
}
