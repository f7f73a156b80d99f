// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Gebo linking tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/gebo/internal/catalog"
	"github.com/starford/gebo/internal/engine"
	"github.com/starford/gebo/internal/linkcheck"
	"github.com/starford/gebo/internal/models"
)

// Server wraps the MCP server with Gebo tools.
type Server struct {
	mcp     *server.MCPServer
	store   catalog.Store
	engine  *engine.Engine
	checker *linkcheck.Checker
}

// New creates a new MCP server with all Gebo tools registered.
func New(store catalog.Store, eng *engine.Engine, checker *linkcheck.Checker) *Server {
	s := &Server{store: store, engine: eng, checker: checker}

	s.mcp = server.NewMCPServer(
		"Gebo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_documents_needing_links",
		mcp.WithDescription("List published documents that have fewer internal links than recommended, most in need first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of documents to return (default 10)")),
	), s.getDocumentsNeedingLinks)

	s.mcp.AddTool(mcp.NewTool("get_document_for_linking",
		mcp.WithDescription("Read a document's full block content and metadata, by id or slug."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Document id or slug")),
	), s.getDocumentForLinking)

	s.mcp.AddTool(mcp.NewTool("get_link_quota",
		mcp.WithDescription("Get the link budget for a document: current internal links, recommended count, and deficit."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
	), s.getLinkQuota)

	s.mcp.AddTool(mcp.NewTool("get_link_candidates",
		mcp.WithDescription("Get scored link candidates for a document with anchor patterns describing each target. "+
			"Use the patterns to choose anchor text, then apply via apply_link_insertions."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of candidates (default 8)")),
	), s.getLinkCandidates)

	s.mcp.AddTool(mcp.NewTool("apply_link_insertions",
		mcp.WithDescription("Validate and apply a batch of link insertions to a document. "+
			"Insertions MUST follow the canonical format. Read the contract first via "+
			"the get_insertion_contract tool or the gebo://insertion-format resource."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("insertions", mcp.Required(), mcp.Description("JSON array of insertion objects")),
	), s.applyLinkInsertions)

	s.mcp.AddTool(mcp.NewTool("get_insertion_contract",
		mcp.WithDescription("Returns the canonical link insertion format contract. "+
			"Call this before applying insertions to ensure correct structure."),
	), s.getInsertionContract)

	s.mcp.AddTool(mcp.NewTool("validate_urls",
		mcp.WithDescription("Validate a batch of URLs. Internal paths are checked against the catalog, external URLs with live requests."),
		mcp.WithString("urls", mcp.Required(), mcp.Description("JSON array of URLs, or one URL per line")),
	), s.validateURLs)

	s.mcp.AddTool(mcp.NewTool("remove_internal_links",
		mcp.WithDescription("Strip every internal link from a document, keeping the anchor text, and clear the internal ledger entries."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
	), s.removeInternalLinks)

	s.mcp.AddTool(mcp.NewTool("rebuild_link_ledger",
		mcp.WithDescription("Re-derive the full link ledger from a document's current content."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id")),
	), s.rebuildLinkLedger)

	// Resource: insertion format contract.
	s.mcp.AddResource(
		mcp.NewResource("gebo://insertion-format", "Link Insertion Contract",
			mcp.WithResourceDescription("Canonical insertion payload format that apply_link_insertions expects."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readInsertionFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getDocumentsNeedingLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 10
	if v, err := req.RequireFloat("limit"); err == nil {
		limit = int(v)
	}
	needs, total, err := s.engine.DocumentsNeedingLinks(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"documents": needs,
		"total":     total,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocumentForLinking(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.store.GetDocument(ctx, ref)
	if err != nil {
		doc, err = s.store.GetBySlug(ctx, ref)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref)), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getLinkQuota(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	quota, err := s.engine.Quota(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(quota, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getLinkCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := 0
	if v, err := req.RequireFloat("limit"); err == nil {
		limit = int(v)
	}
	set, err := s.engine.Candidates(ctx, id, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(set, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) applyLinkInsertions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("insertions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var insertions []models.LinkInsertion
	if err := json.Unmarshal([]byte(raw), &insertions); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid insertions JSON: %v", err)), nil
	}
	if len(insertions) == 0 {
		return mcp.NewToolResultError("insertions array is empty"), nil
	}

	result, err := s.engine.ApplyInsertions(ctx, id, insertions, engine.NewRunCache())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getInsertionContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(InsertionFormatContract), nil
}

func (s *Server) readInsertionFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "gebo://insertion-format",
			MIMEType: "text/markdown",
			Text:     InsertionFormatContract,
		},
	}, nil
}

func (s *Server) validateURLs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("urls")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		for _, line := range strings.Split(raw, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				urls = append(urls, line)
			}
		}
	}
	if len(urls) == 0 {
		return mcp.NewToolResultError("no urls given"), nil
	}

	results := s.checker.Check(ctx, urls)
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) removeInternalLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := s.engine.RemoveInternalLinks(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed %d internal links", removed)), nil
}

func (s *Server) rebuildLinkLedger(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.engine.RebuildLedger(ctx, id, engine.NewRunCache())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("ledger rebuilt: %d records", records)), nil
}
