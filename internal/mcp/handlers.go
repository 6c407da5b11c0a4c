package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/termcaps/internal/capinfo"
	"github.com/hpungsan/termcaps/internal/cmd"
	"github.com/hpungsan/termcaps/internal/config"
	"github.com/hpungsan/termcaps/internal/db"
	"github.com/hpungsan/termcaps/internal/errors"
	"github.com/hpungsan/termcaps/internal/verify"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	capdb *capinfo.Database
	store *sql.DB
	cfg   *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(capdb *capinfo.Database, store *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{capdb: capdb, store: store, cfg: cfg}
}

// LookupRequest represents the arguments for terminal_lookup.
type LookupRequest struct {
	Identifier string `json:"identifier,omitempty"`
}

// ResolveRequest represents the arguments for terminal_resolve.
type ResolveRequest struct {
	Identifier string   `json:"identifier,omitempty"`
	Commands   []string `json:"commands"`
}

// ListRequest represents the arguments for terminal_list.
type ListRequest struct {
	Term string `json:"term,omitempty"`
}

// VerifyRequest represents the arguments for dataset_verify.
type VerifyRequest struct {
	Path string `json:"path"`
}

// LookupResult is the terminal_lookup response.
type LookupResult struct {
	Identifier string          `json:"identifier"`
	Match      capinfo.Match   `json:"match"`
	Profile    capinfo.Profile `json:"profile"`
}

// ResolveResult is the terminal_resolve response. Sequence is the output
// with control bytes escaped; Bytes is its length unescaped.
type ResolveResult struct {
	Identifier string `json:"identifier"`
	Terminal   string `json:"terminal"`
	Sequence   string `json:"sequence"`
	Bytes      int    `json:"bytes"`
}

// ListResult is the terminal_list response.
type ListResult struct {
	Groups []capinfo.TermGroup `json:"groups"`
}

// SnapshotListResult is the snapshot_list response.
type SnapshotListResult struct {
	Builds []db.Build `json:"builds"`
}

// HandleLookup handles the terminal_lookup tool call.
func (h *Handlers) HandleLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LookupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	id, err := h.identifier(input.Identifier)
	if err != nil {
		return errorResult(err), nil
	}

	p, match := h.capdb.Lookup(id)
	return successResult(LookupResult{Identifier: id, Match: match, Profile: p})
}

// HandleResolve handles the terminal_resolve tool call.
func (h *Handlers) HandleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ResolveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.Commands) == 0 {
		return errorResult(errors.NewInvalidRequest("commands is required")), nil
	}
	id, err := h.identifier(input.Identifier)
	if err != nil {
		return errorResult(err), nil
	}

	cmds, err := cmd.ParseAll(input.Commands)
	if err != nil {
		return errorResult(err), nil
	}
	p := h.capdb.Resolve(id)
	out, err := cmd.ResolveAll(p, cmds...)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ResolveResult{
		Identifier: id,
		Terminal:   p.Name.Compact,
		Sequence:   cmd.Escape(out),
		Bytes:      len(out),
	})
}

// HandleList handles the terminal_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	term := strings.TrimSpace(input.Term)
	if term != "" {
		g, ok := h.capdb.Group(term)
		if !ok {
			return errorResult(errors.NewNotFound(term)), nil
		}
		return successResult(ListResult{Groups: []capinfo.TermGroup{g}})
	}

	result := ListResult{Groups: []capinfo.TermGroup{}}
	for _, t := range h.capdb.Terms() {
		g, _ := h.capdb.Group(t)
		result.Groups = append(result.Groups, g)
	}
	return successResult(result)
}

// HandleVerify handles the dataset_verify tool call. An invalid dataset is
// a successful call whose report has ok=false.
func (h *Handlers) HandleVerify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[VerifyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return errorResult(errors.NewInvalidRequest("path is required")), nil
	}

	return successResult(verify.File(input.Path))
}

// HandleSnapshotList handles the snapshot_list tool call.
func (h *Handlers) HandleSnapshotList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.store == nil {
		return errorResult(errors.NewInvalidRequest("no snapshot store configured")), nil
	}
	builds, err := db.ListBuilds(h.store)
	if err != nil {
		return errorResult(err), nil
	}
	if builds == nil {
		builds = []db.Build{}
	}
	return successResult(SnapshotListResult{Builds: builds})
}

// identifier falls back to the configured terminal when the request names none.
func (h *Handlers) identifier(requested string) (string, error) {
	id := strings.TrimSpace(requested)
	if id == "" {
		id = h.cfg.Terminal
	}
	if id == "" {
		return "", errors.NewInvalidRequest("identifier is required")
	}
	return id, nil
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var capErr *errors.CapError
	if stderrors.As(err, &capErr) {
		errorObj := map[string]any{
			"code":    capErr.Code,
			"message": capErr.Message,
		}
		// Internal errors may carry file paths or SQL text
		if capErr.Code != errors.ErrInternal && capErr.Details != nil {
			errorObj["details"] = capErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
