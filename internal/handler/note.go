package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/offnotes/offnotes/internal/attachment"
	"github.com/offnotes/offnotes/internal/auth"
	"github.com/offnotes/offnotes/internal/model"
	"github.com/offnotes/offnotes/internal/store"
	"github.com/offnotes/offnotes/internal/websocket"
)

const defaultNoteTitle = "Untitled"

type NoteHandler struct {
	noteStore   *store.NoteStore
	folderStore *store.FolderStore
	attachments *attachment.Manager
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewNoteHandler(ns *store.NoteStore, fs *store.FolderStore, am *attachment.Manager, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{noteStore: ns, folderStore: fs, attachments: am, hub: hub, logger: logger}
}

func (h *NoteHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type noteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	FolderID *int64 `json:"folder_id"`
}

// resolveFolder checks that a requested folder belongs to the caller.
// A nil folderID (root) always resolves.
func (h *NoteHandler) resolveFolder(w http.ResponseWriter, folderID *int64, userID int64) bool {
	if folderID == nil {
		return true
	}
	folder, err := h.folderStore.GetByID(*folderID, userID)
	if err != nil {
		h.logger.Error("resolve folder", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to resolve folder"})
		return false
	}
	if folder == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Folder not found"})
		return false
	}
	return true
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = defaultNoteTitle
	}

	if !h.resolveFolder(w, req.FolderID, userID) {
		return
	}

	note, err := h.noteStore.Create(req.Title, req.Content, req.FolderID, userID)
	if err != nil {
		h.logger.Error("create note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create note"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("note", "created", note.ID))

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	note, err := h.noteStore.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch note"})
		return
	}
	if note == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Note not found"})
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// List returns the caller's notes, most recently updated first. An optional
// folder query parameter narrows the listing: a folder id for that folder's
// notes, or "root" for notes outside any folder.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var notes []model.Note
	var err error
	switch filter := r.URL.Query().Get("folder"); filter {
	case "":
		notes, err = h.noteStore.List(userID)
	case "root":
		notes, err = h.noteStore.ListByFolder(userID, nil)
	default:
		var folderID int64
		folderID, err = strconv.ParseInt(filter, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid folder filter"})
			return
		}
		notes, err = h.noteStore.ListByFolder(userID, &folderID)
	}
	if err != nil {
		h.logger.Error("list notes", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch notes"})
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// Update is a full-field overwrite; clients resend every field they want
// preserved.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = defaultNoteTitle
	}

	if !h.resolveFolder(w, req.FolderID, userID) {
		return
	}

	note, err := h.noteStore.Update(id, req.Title, req.Content, req.FolderID, userID)
	if err != nil {
		h.logger.Error("update note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update note"})
		return
	}
	if note == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Note not found"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("note", "updated", id))

	writeJSON(w, http.StatusOK, note)
}

// Delete removes the note's attachments (blob and row each) before the note
// row itself, so a failed cleanup leaves the note and its attachment list
// intact for a retry.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.noteStore.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete note"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Note not found"})
		return
	}

	if h.attachments != nil {
		if err := h.attachments.DeleteForNote(r.Context(), id, userID); err != nil {
			h.logger.Error("delete note attachments", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete note attachments"})
			return
		}
	}

	if err := h.noteStore.Delete(id, userID); err != nil {
		h.logger.Error("delete note", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete note"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("note", "deleted", id))

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
