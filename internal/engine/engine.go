// Package engine implements the link insertion pipeline: quota
// calculation, candidate generation and scoring, insertion validation,
// idempotent application, and ledger rebuild.
package engine

import (
	"github.com/starford/gebo/internal/catalog"
	"github.com/starford/gebo/internal/oracle"
	"github.com/starford/gebo/internal/urls"
)

// Limits bounds the candidate pipeline.
type Limits struct {
	// SuggestionLimit is the default candidate fan-out when the caller
	// does not specify one.
	SuggestionLimit int
	// MaxCandidates caps the batch handed to the scoring oracle.
	MaxCandidates int
	// RelevanceFloor is the minimum oracle score a candidate must reach.
	RelevanceFloor int
	// ContextWindow is the character window for sentence context extraction.
	ContextWindow int
}

// DefaultLimits returns the standard pipeline bounds.
func DefaultLimits() Limits {
	return Limits{
		SuggestionLimit: 8,
		MaxCandidates:   15,
		RelevanceFloor:  7,
		ContextWindow:   150,
	}
}

// Engine wires the catalog store, the scoring oracle, and the URL builder
// into the link insertion pipeline. The oracle may be nil, in which case
// every semantic step uses its deterministic fallback.
type Engine struct {
	store  catalog.Store
	oracle oracle.Oracle
	urls   *urls.Builder
	limits Limits
}

// New creates an Engine.
func New(store catalog.Store, orc oracle.Oracle, builder *urls.Builder, limits Limits) *Engine {
	if limits.SuggestionLimit <= 0 {
		limits.SuggestionLimit = 8
	}
	if limits.MaxCandidates <= 0 || limits.MaxCandidates > 15 {
		limits.MaxCandidates = 15
	}
	if limits.RelevanceFloor <= 0 {
		limits.RelevanceFloor = 7
	}
	if limits.ContextWindow <= 0 {
		limits.ContextWindow = 150
	}
	return &Engine{store: store, oracle: orc, urls: builder, limits: limits}
}

// URLBuilder exposes the engine's URL builder for surfaces that need to
// construct public URLs directly.
func (e *Engine) URLBuilder() *urls.Builder {
	return e.urls
}
