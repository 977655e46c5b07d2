package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/offnotes/offnotes/internal/auth"
	"github.com/offnotes/offnotes/internal/model"
	"github.com/offnotes/offnotes/internal/store"
)

type SearchHandler struct {
	noteStore *store.NoteStore
	logger    *slog.Logger
}

func NewSearchHandler(ns *store.NoteStore, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{noteStore: ns, logger: logger}
}

// Search matches the query against note titles and content,
// case-insensitively, newest-updated first. An empty query returns the
// caller's most recent notes instead, for the empty search dialog state.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var notes []model.Note
	var err error
	if query == "" {
		notes, err = h.noteStore.Recent(userID)
	} else {
		notes, err = h.noteStore.Search(userID, query)
	}
	if err != nil {
		h.logger.Error("search notes", "error", err, "query", query)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Search failed"})
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}

	writeJSON(w, http.StatusOK, notes)
}
