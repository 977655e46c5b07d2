package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/offnotes/offnotes/internal/attachment"
	"github.com/offnotes/offnotes/internal/auth"
	"github.com/offnotes/offnotes/internal/model"
	"github.com/offnotes/offnotes/internal/store"
	"github.com/offnotes/offnotes/internal/websocket"
)

// maxUploadBytes caps multipart uploads at 32 MiB.
const maxUploadBytes = 32 << 20

type AttachmentHandler struct {
	manager   *attachment.Manager
	noteStore *store.NoteStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewAttachmentHandler(m *attachment.Manager, ns *store.NoteStore, hub *websocket.Hub, logger *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{manager: m, noteStore: ns, hub: hub, logger: logger}
}

func (h *AttachmentHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

// Upload accepts a multipart form with a "file" part and an optional
// "noteId" field. Without a noteId the upload becomes a standalone file.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer file.Close()

	var noteID *int64
	if v := r.FormValue("noteId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid noteId"})
			return
		}
		note, err := h.noteStore.GetByID(id, userID)
		if err != nil {
			h.logger.Error("resolve note", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Upload failed"})
			return
		}
		if note == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Note not found"})
			return
		}
		noteID = &id
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	a, err := h.manager.Upload(r.Context(), file, header.Size, header.Filename, mimeType, noteID, userID)
	if err != nil {
		h.logger.Error("upload attachment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Upload failed"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("attachment", "created", a.ID))

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       a.ID,
		"url":      a.FileURL,
		"filename": a.Filename,
		"size":     a.FileSize,
		"type":     a.MimeType,
	})
}

type deleteFileRequest struct {
	FileID int64 `json:"fileId"`
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req deleteFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.FileID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file ID provided"})
		return
	}

	if err := h.manager.Delete(r.Context(), req.FileID, userID); err != nil {
		if errors.Is(err, attachment.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
			return
		}
		h.logger.Error("delete attachment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Delete failed"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("attachment", "deleted", req.FileID))

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListByNote returns the attachments bound to a note, newest first.
func (h *AttachmentHandler) ListByNote(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	noteID, err := strconv.ParseInt(r.PathValue("noteId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid note id"})
		return
	}

	attachments, err := h.manager.ListByNote(noteID, userID)
	if err != nil {
		h.logger.Error("list attachments", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch attachments"})
		return
	}
	if attachments == nil {
		attachments = []model.Attachment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"attachments": attachments})
}

// ListFiles returns all of the caller's files, newest first, including
// standalone uploads not bound to any note.
func (h *AttachmentHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	files, err := h.manager.List(userID)
	if err != nil {
		h.logger.Error("list files", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch files"})
		return
	}
	if files == nil {
		files = []model.Attachment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}
