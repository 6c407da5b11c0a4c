package mcp

import (
	"database/sql"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/termcaps/internal/capinfo"
	"github.com/hpungsan/termcaps/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"terminal_lookup": {
		def:     lookupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLookup },
	},
	"terminal_resolve": {
		def:     resolveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleResolve },
	},
	"terminal_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"dataset_verify": {
		def:     verifyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleVerify },
	},
	"snapshot_list": {
		def:     snapshotListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnapshotList },
	},
}

var lookupToolDef = mcp.NewTool("terminal_lookup",
	mcp.WithDescription("Look up the capability profile of a terminal by compact name or $TERM value. "+
		"Unknown identifiers get a conservative profile."),
	mcp.WithString("identifier",
		mcp.Description("Compact name (e.g. kitty) or $TERM value (e.g. xterm-256color). Defaults to the configured terminal."),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var resolveToolDef = mcp.NewTool("terminal_resolve",
	mcp.WithDescription("Resolve terminal commands into the escape sequence a terminal understands. "+
		"Fails with UNSUPPORTED naming the missing capability when the terminal cannot perform a command."),
	mcp.WithString("identifier",
		mcp.Description("Compact name or $TERM value. Defaults to the configured terminal."),
	),
	mcp.WithArray("commands",
		mcp.Required(),
		mcp.Description(`Commands in text form, e.g. "set-bold", "set-color fg #ff8800", "move-cursor up 3".`),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var listToolDef = mcp.NewTool("terminal_list",
	mcp.WithDescription("List $TERM values with the terminals that set them and the capabilities they all share."),
	mcp.WithString("term",
		mcp.Description("Only report this $TERM value."),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var verifyToolDef = mcp.NewTool("dataset_verify",
	mcp.WithDescription("Check a YAML capability dataset and report every problem found."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path of the dataset file."),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var snapshotListToolDef = mcp.NewTool("snapshot_list",
	mcp.WithDescription("List compiled dataset builds in the snapshot store, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
)

// AllToolNames returns all registered tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns any tool names not in the registry.
func ValidateDisabledTools(names []string) []string {
	var unknown []string
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server answering from capdb. store may be nil,
// in which case snapshot_list is not registered. Tools listed in
// cfg.DisabledTools are excluded from registration.
func NewServer(capdb *capinfo.Database, store *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"termcaps",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(capdb, store, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}
	if store == nil {
		disabled["snapshot_list"] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(capdb *capinfo.Database, store *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(capdb, store, cfg, version)
	return server.ServeStdio(s)
}
