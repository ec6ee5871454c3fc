package mcp

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/config"
	"github.com/hpungsan/intake/internal/persona"
	"github.com/hpungsan/intake/internal/session"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"order", "lead", "wellness", "tutor", "adventure", "session", "journal"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

func adventureAction(fn func(m *session.Manager, id string) (session.Reply, error)) func(*Handlers) server.ToolHandlerFunc {
	return func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdventure(fn) }
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"order_update": {
		def:     orderUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate("order") },
	},
	"order_prompt": {
		def:     orderPromptToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePrompt("order") },
	},
	"order_finalize": {
		def:     orderFinalizeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFinalize("order", false) },
	},
	"lead_capture": {
		def:     leadCaptureToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate("lead") },
	},
	"lead_faq": {
		def:     leadFAQToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFAQ },
	},
	"lead_topics": {
		def:     leadTopicsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList("faq") },
	},
	"lead_summary": {
		def:     leadSummaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFinalize("lead", true) },
	},
	"wellness_update": {
		def:     wellnessUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate("wellness") },
	},
	"wellness_finalize": {
		def:     wellnessFinalizeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFinalize("wellness", false) },
	},
	"wellness_feedback": {
		def:     wellnessFeedbackToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleObjectiveFeedback },
	},
	"wellness_context": {
		def:     wellnessContextToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleContext },
	},
	"tutor_mode": {
		def:     tutorModeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMode },
	},
	"tutor_concepts": {
		def:     tutorConceptsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList("concepts") },
	},
	"tutor_feedback": {
		def:     tutorFeedbackToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTutorFeedback },
	},
	"tutor_progress": {
		def:     tutorProgressToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProgress },
	},
	"adventure_roll": {
		def:     adventureRollToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRoll },
	},
	"adventure_sheet": {
		def:     adventureSheetToolDef,
		handler: adventureAction((*session.Manager).Sheet),
	},
	"adventure_inventory": {
		def:     adventureInventoryToolDef,
		handler: adventureAction((*session.Manager).Inventory),
	},
	"adventure_take": {
		def:     adventureTakeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleItem((*session.Manager).Take) },
	},
	"adventure_drop": {
		def:     adventureDropToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleItem((*session.Manager).Drop) },
	},
	"adventure_event": {
		def:     adventureEventToolDef,
		handler: adventureAction((*session.Manager).Event),
	},
	"adventure_save": {
		def:     adventureSaveToolDef,
		handler: adventureAction((*session.Manager).SaveGame),
	},
	"adventure_load": {
		def:     adventureLoadToolDef,
		handler: adventureAction((*session.Manager).LoadGame),
	},
	"session_end": {
		def:     sessionEndToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEnd },
	},
	"journal_list": {
		def:     journalListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleJournalList },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "order_update" → "order").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// promptEntry is an MCP prompt carrying a persona's system instructions.
type promptEntry struct {
	typ  string
	def  mcp.Prompt
	text string
}

// prompts builds one prompt per persona plus the tutor and the adventure.
func prompts(reg *persona.Registry) []promptEntry {
	var out []promptEntry
	for _, name := range reg.Names() {
		p, _ := reg.Lookup(name)
		out = append(out, promptEntry{
			typ:  p.Name,
			def:  mcp.NewPrompt(p.Name, mcp.WithPromptDescription(p.Title)),
			text: p.Instructions,
		})
	}
	out = append(out,
		promptEntry{
			typ:  "tutor",
			def:  mcp.NewPrompt("tutor", mcp.WithPromptDescription("Active recall coach")),
			text: persona.TutorInstructions + "\n\n" + reg.Concepts.Describe(),
		},
		promptEntry{
			typ:  "adventure",
			def:  mcp.NewPrompt("adventure", mcp.WithPromptDescription("Horror text adventure game master")),
			text: persona.AdventureInstructions,
		},
	)
	return out
}

func promptHandler(e promptEntry) server.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(e.def.Description, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(e.text)),
		}), nil
	}
}

// NewServer creates a new MCP server with the intake tools and persona
// prompts registered. Tools listed in cfg.DisabledTools or belonging to
// cfg.DisabledTypes are excluded from registration; a disabled type also
// drops its prompt.
func NewServer(mgr *session.Manager, cfg *config.Config, version string, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"intake",
		version,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(false),
	)

	h := NewHandlers(mgr, logger)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	disabledTypes := make(map[string]bool, len(cfg.DisabledTypes))
	for _, t := range cfg.DisabledTypes {
		disabledTypes[t] = true
	}
	for _, p := range prompts(mgr.Registry()) {
		if disabledTypes[p.typ] {
			continue
		}
		s.AddPrompt(p.def, promptHandler(p))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(mgr *session.Manager, cfg *config.Config, version string, logger *zap.Logger) error {
	s := NewServer(mgr, cfg, version, logger)
	return server.ServeStdio(s)
}
