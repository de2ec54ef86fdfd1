package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"inkwell/internal/uploads"
)

// UploadHandler stores a single multipart document and answers JSON.
type UploadHandler struct {
	Files *uploads.Store
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// One extra MB of headroom for the multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, h.Files.MaxSize()+1<<20)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "expected multipart field \"file\"", http.StatusBadRequest)
		return
	}
	defer file.Close()

	stored, err := h.Files.Save(hdr.Filename, file)
	if errors.Is(err, uploads.ErrNoFile) ||
		errors.Is(err, uploads.ErrBadExtension) ||
		errors.Is(err, uploads.ErrTooLarge) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("upload.save", "filename", hdr.Filename, "err", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":           true,
		"original_filename": hdr.Filename,
		"stored_filename":   stored.Name,
		"content_type":      hdr.Header.Get("Content-Type"),
		"size":              stored.Size,
		"upload_time":       time.Now().UTC().Format(time.RFC3339),
	})
}
