package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/k0723/mini3/internal/authz"
)

// PresignUpload hands the client a time-limited PUT URL so images go to S3
// directly, never through this service.
func (h *DiaryHandler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	fileType := r.URL.Query().Get("file_type")
	if fileType == "" {
		http.Error(w, "file_type required", http.StatusBadRequest)
		return
	}

	url, key, err := h.presigner.PresignUpload(r.Context(), fileType)
	if err != nil {
		h.logger.Error("presign upload failed", zap.Error(err))
		http.Error(w, "could not generate upload URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"url": url, "key": key})
}

func (h *DiaryHandler) PresignDownload(w http.ResponseWriter, r *http.Request) {
	fileKey := r.URL.Query().Get("file_key")
	if fileKey == "" {
		http.Error(w, "file_key required", http.StatusBadRequest)
		return
	}

	url, err := h.presigner.PresignDownload(r.Context(), fileKey)
	if err != nil {
		h.logger.Error("presign download failed", zap.Error(err))
		http.Error(w, "could not generate download URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"download_url": url})
}

// DownloadByID resolves a diary's stored image key to a presigned GET URL,
// applying the same visibility rule as reading the entry itself.
func (h *DiaryHandler) DownloadByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid diary id", http.StatusBadRequest)
		return
	}

	var row struct {
		UserID   int     `db:"user_id"`
		IsPublic bool    `db:"is_public"`
		Image    *string `db:"image"`
	}
	if err := h.db.Get(&row, `SELECT user_id, is_public, image FROM diaries WHERE id=$1`, id); err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "diary not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	caller := resolveCaller(h.db, r)
	if !authz.CanView(caller, row.UserID, row.IsPublic) {
		http.Error(w, "you do not have access to this image", http.StatusForbidden)
		return
	}
	if row.Image == nil || *row.Image == "" {
		http.Error(w, "no image attached to this diary", http.StatusNotFound)
		return
	}

	url, err := h.presigner.PresignDownload(r.Context(), *row.Image)
	if err != nil {
		h.logger.Error("presign download failed", zap.Error(err))
		http.Error(w, "could not generate download URL", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"download_url": url, "file_key": *row.Image})
}
