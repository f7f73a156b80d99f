package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/engine"
)

// Quota handles GET /api/documents/{id}/quota.
//
//	@Summary		Get the link budget for a document
//	@Tags			linking
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	models.Quota
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/quota [get]
func (h *Handler) Quota(w http.ResponseWriter, r *http.Request) {
	id := documentID(r)
	quota, err := h.engine.Quota(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("quota failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, quota)
}

// Candidates handles GET /api/documents/{id}/candidates.
//
//	@Summary		Get scored link candidates for a document
//	@Tags			linking
//	@Produce		json
//	@Param			id		path		string	true	"Document id"
//	@Param			limit	query		int		false	"Max candidates"
//	@Success		200		{object}	engine.CandidateSet
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/candidates [get]
func (h *Handler) Candidates(w http.ResponseWriter, r *http.Request) {
	id := documentID(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	set, err := h.engine.Candidates(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("candidates failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// ApplyInsertions handles POST /api/documents/{id}/insertions.
//
//	@Summary		Validate and apply link insertions to a document
//	@Tags			linking
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Document id"
//	@Param			body	body		InsertionsRequest	true	"Insertions to apply"
//	@Success		200		{object}	engine.ApplyResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/insertions [post]
func (h *Handler) ApplyInsertions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := documentID(r)

	var req InsertionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Insertions) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("insertions are required"))
		return
	}

	result, err := h.engine.ApplyInsertions(r.Context(), id, req.Insertions, engine.NewRunCache())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("apply insertions failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if len(result.Applied) > 0 {
		h.publishLinkEvent("applied", id, len(result.Applied))
	}
	writeJSON(w, http.StatusOK, result)
}

// RemoveInternalLinks handles DELETE /api/documents/{id}/internal-links.
//
//	@Summary		Strip all internal links from a document, keeping anchor text
//	@Tags			linking
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	map[string]int
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/internal-links [delete]
func (h *Handler) RemoveInternalLinks(w http.ResponseWriter, r *http.Request) {
	id := documentID(r)
	removed, err := h.engine.RemoveInternalLinks(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("remove internal links failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if removed > 0 {
		h.publishLinkEvent("removed", id, removed)
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// RebuildLedger handles POST /api/documents/{id}/ledger/rebuild.
//
//	@Summary		Re-derive the link ledger from document content
//	@Tags			linking
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	map[string]int
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/ledger/rebuild [post]
func (h *Handler) RebuildLedger(w http.ResponseWriter, r *http.Request) {
	id := documentID(r)
	records, err := h.engine.RebuildLedger(r.Context(), id, engine.NewRunCache())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("rebuild ledger failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	h.publishLinkEvent("rebuilt", id, records)
	writeJSON(w, http.StatusOK, map[string]int{"records": records})
}

// NeedingLinks handles GET /api/needing-links.
//
//	@Summary		List published documents below their link quota
//	@Tags			linking
//	@Produce		json
//	@Param			limit	query		int	false	"Max documents"
//	@Success		200		{object}	NeedingLinksResponse
//	@Security		BearerAuth
//	@Router			/needing-links [get]
func (h *Handler) NeedingLinks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	needs, total, err := h.engine.DocumentsNeedingLinks(r.Context(), limit)
	if err != nil {
		slog.Error("needing links failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if needs == nil {
		needs = []engine.DocumentNeed{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": needs,
		"total":     total,
	})
}

// ValidateURLs handles POST /api/validate-urls.
//
//	@Summary		Validate a batch of internal and external URLs
//	@Tags			linking
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ValidateURLsRequest	true	"URLs to validate"
//	@Success		200		{object}	ValidateURLsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/validate-urls [post]
func (h *Handler) ValidateURLs(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ValidateURLsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.URLs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("urls are required"))
		return
	}

	results := h.checker.Check(r.Context(), req.URLs)
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}
