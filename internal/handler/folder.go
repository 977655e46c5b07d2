package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/offnotes/offnotes/internal/auth"
	"github.com/offnotes/offnotes/internal/model"
	"github.com/offnotes/offnotes/internal/store"
	"github.com/offnotes/offnotes/internal/websocket"
)

type FolderHandler struct {
	folderStore *store.FolderStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewFolderHandler(fs *store.FolderStore, hub *websocket.Hub, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folderStore: fs, hub: hub, logger: logger}
}

func (h *FolderHandler) broadcast(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(userID, msg)
	}
}

type folderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Folder name is required"})
		return
	}

	if req.ParentID != nil {
		parent, err := h.folderStore.GetByID(*req.ParentID, userID)
		if err != nil {
			h.logger.Error("resolve parent folder", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create folder"})
			return
		}
		if parent == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Parent folder not found"})
			return
		}
	}

	folder, err := h.folderStore.Create(req.Name, req.ParentID, userID)
	if err != nil {
		h.logger.Error("create folder", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create folder"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("folder", "created", folder.ID))

	writeJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	folders, err := h.folderStore.List(userID)
	if err != nil {
		h.logger.Error("list folders", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch folders"})
		return
	}
	if folders == nil {
		folders = []model.Folder{}
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Folder name is required"})
		return
	}

	folder, err := h.folderStore.Rename(id, req.Name, userID)
	if err != nil {
		h.logger.Error("rename folder", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update folder"})
		return
	}
	if folder == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Folder not found"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("folder", "updated", id))

	writeJSON(w, http.StatusOK, folder)
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.folderStore.GetByID(id, userID)
	if err != nil {
		h.logger.Error("get folder", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete folder"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Folder not found"})
		return
	}

	if err := h.folderStore.Delete(id, userID); err != nil {
		h.logger.Error("delete folder", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete folder"})
		return
	}

	h.broadcast(userID, websocket.NewMessage("folder", "deleted", id))

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
