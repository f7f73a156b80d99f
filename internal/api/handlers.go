package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/catalog"
	"github.com/starford/gebo/internal/engine"
	"github.com/starford/gebo/internal/linkcheck"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/sse"
)

// Handler holds API route handlers.
type Handler struct {
	store   catalog.Store
	engine  *engine.Engine
	checker *linkcheck.Checker
	broker  *sse.Broker
}

// NewHandler creates a new Handler. The broker may be nil, in which case
// no events are published.
func NewHandler(store catalog.Store, eng *engine.Engine, checker *linkcheck.Checker, broker *sse.Broker) *Handler {
	return &Handler{store: store, engine: eng, checker: checker, broker: broker}
}

func (h *Handler) publishLinkEvent(kind, documentID string, count int) {
	if h.broker != nil {
		h.broker.PublishLinkEvent(kind, documentID, count)
	}
}

func documentID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents with optional pagination and status filter
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			status	query		string	false	"Filter by status"	Enums(draft, published)
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	status := q.Get("status")

	items, total, err := h.store.ListDocuments(r.Context(), limit, offset, status)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": items,
		"total":     total,
	})
}

// GetDocument handles GET /api/documents/{id}.
//
//	@Summary		Get a single document by id
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	models.Document
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := documentID(r)
	doc, err := h.store.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", `"`+doc.Checksum+`"`)
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a new document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	models.Document
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Slug == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug and title are required"))
		return
	}
	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}

	doc := &models.Document{
		Slug:         req.Slug,
		Title:        req.Title,
		Excerpt:      req.Excerpt,
		CategorySlug: req.CategorySlug,
		Status:       status,
		ReadingTime:  req.ReadingTime,
		Content:      req.Content,
	}
	if err := h.store.CreateDocument(r.Context(), doc); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("document already exists"))
		} else {
			slog.Error("create document failed", slog.String("slug", req.Slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	// Content may arrive with links already present; derive the ledger now.
	if n, err := h.engine.RebuildLedger(r.Context(), doc.ID, engine.NewRunCache()); err != nil {
		slog.Warn("ledger rebuild after create failed",
			slog.String("id", doc.ID), slog.String("error", err.Error()))
	} else if n > 0 {
		h.publishLinkEvent("rebuilt", doc.ID, n)
	}

	created, err := h.store.GetDocument(r.Context(), doc.ID)
	if err != nil {
		slog.Error("get created document failed", slog.String("id", doc.ID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateContent handles PUT /api/documents/{id}/content.
//
//	@Summary		Replace document content with optimistic concurrency
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"Document id"
//	@Param			If-Match	header		string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateContentRequest	true	"New content"
//	@Success		200			{object}	models.Document
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/content [put]
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := documentID(r)

	var req UpdateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	doc, err := h.store.GetDocument(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)
	if ifMatch != "" && ifMatch != doc.Checksum {
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		return
	}

	if err := h.store.UpdateContent(r.Context(), id, req.Content); err != nil {
		slog.Error("update content failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	n, err := h.engine.RebuildLedger(r.Context(), id, engine.NewRunCache())
	if err != nil {
		slog.Warn("ledger rebuild after update failed",
			slog.String("id", id), slog.String("error", err.Error()))
	} else {
		h.publishLinkEvent("rebuilt", id, n)
	}

	updated, err := h.store.GetDocument(r.Context(), id)
	if err != nil {
		slog.Error("get updated document failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
