// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/streamwatch/internal/sync"
)

// CategoriesResponse is the /api/v1/categories payload.
type CategoriesResponse struct {
	Count      int               `json:"count"`
	Categories map[string]string `json:"categories"`
}

// Status returns the state and last tick of every loop.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	loops := make([]sync.LoopStatus, 0, len(h.deps.Loops))
	for _, l := range h.deps.Loops {
		loops = append(loops, l.Status())
	}
	respondData(w, http.StatusOK, loops, started)
}

// Categories returns the memoized category names.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	categories := map[string]string{}
	if h.deps.Categories != nil {
		categories = h.deps.Categories.Categories()
	}
	respondData(w, http.StatusOK, CategoriesResponse{
		Count:      len(categories),
		Categories: categories,
	}, started)
}

// ArchiveSummary returns per class statistics of the archive.
func (h *Handler) ArchiveSummary(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if h.deps.Archive == nil {
		respondError(w, http.StatusNotFound, CodeArchiveDisabled, "The archive sink is not enabled", nil)
		return
	}

	summaries, err := h.deps.Archive.Summaries(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeArchiveError, "Failed to read the archive", err)
		return
	}
	respondData(w, http.StatusOK, summaries, started)
}
