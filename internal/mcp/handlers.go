package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/journal"
	"github.com/hpungsan/intake/internal/record"
	"github.com/hpungsan/intake/internal/session"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	mgr    *session.Manager
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(mgr *session.Manager, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{mgr: mgr, logger: logger.With(zap.String("component", "mcp"))}
}

// Request types for each tool

// SessionRequest carries only the conversation id.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// FAQRequest represents the arguments for lead_faq.
type FAQRequest struct {
	SessionID string `json:"session_id"`
	Topic     string `json:"topic"`
}

// ObjectiveFeedbackRequest represents the arguments for wellness_feedback.
type ObjectiveFeedbackRequest struct {
	SessionID string `json:"session_id"`
	Objective string `json:"objective"`
	Completed bool   `json:"completed"`
}

// ModeRequest represents the arguments for tutor_mode.
type ModeRequest struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	ConceptID string `json:"concept_id,omitempty"`
}

// TutorFeedbackRequest represents the arguments for tutor_feedback.
type TutorFeedbackRequest struct {
	SessionID string `json:"session_id"`
	ConceptID string `json:"concept_id,omitempty"`
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback,omitempty"`
}

// RollRequest represents the arguments for adventure_roll.
type RollRequest struct {
	SessionID string `json:"session_id"`
	Sides     int    `json:"sides,omitempty"`
}

// ItemRequest represents the arguments for adventure_take and adventure_drop.
type ItemRequest struct {
	SessionID string `json:"session_id"`
	Item      string `json:"item"`
}

// JournalListRequest represents the arguments for journal_list.
type JournalListRequest struct {
	Persona string `json:"persona,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// JournalListOutput is the journal_list result.
type JournalListOutput struct {
	Entries []journal.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// patchFromArgs turns every argument except session_id into an assignment.
// Strings set scalar fields, arrays add list items, nulls are skipped.
func patchFromArgs(args map[string]any) record.Patch {
	keys := make([]string, 0, len(args))
	for k := range args {
		if k != "session_id" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	patch := make(record.Patch, 0, len(keys))
	for _, k := range keys {
		switch v := args[k].(type) {
		case nil:
		case string:
			patch = append(patch, record.Set(k, v))
		case []any:
			items := make([]string, 0, len(v))
			for _, it := range v {
				if it != nil {
					items = append(items, fmt.Sprint(it))
				}
			}
			patch = append(patch, record.Add(k, items...))
		case []string:
			patch = append(patch, record.Add(k, v...))
		default:
			patch = append(patch, record.Set(k, fmt.Sprint(v)))
		}
	}
	return patch
}

func (h *Handlers) reply(r session.Reply, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(r)
}

// HandleUpdate returns the update handler for a persona.
func (h *Handlers) HandleUpdate(persona string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := decode[SessionRequest](req)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
		patch := patchFromArgs(req.GetArguments())
		return h.reply(h.mgr.Dispatch(ctx, input.SessionID, session.Update{Persona: persona, Patch: patch}))
	}
}

// HandlePrompt returns the next-question handler for a persona.
func (h *Handlers) HandlePrompt(persona string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := decode[SessionRequest](req)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
		return h.reply(h.mgr.Dispatch(ctx, input.SessionID, session.Prompt{Persona: persona}))
	}
}

// HandleFinalize returns the finalize handler for a persona.
func (h *Handlers) HandleFinalize(persona string, force bool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := decode[SessionRequest](req)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
		return h.reply(h.mgr.Dispatch(ctx, input.SessionID, session.Finalize{Persona: persona, Force: force}))
	}
}

// HandleList returns the reference-data handler for kind.
func (h *Handlers) HandleList(kind string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := decode[SessionRequest](req)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
		return h.reply(h.mgr.Dispatch(ctx, input.SessionID, session.List{Kind: kind}))
	}
}

// HandleFAQ handles the lead_faq tool call.
func (h *Handlers) HandleFAQ(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FAQRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.reply(h.mgr.Dispatch(ctx, input.SessionID, session.Ask{Topic: input.Topic}))
}

// HandleObjectiveFeedback handles the wellness_feedback tool call.
func (h *Handlers) HandleObjectiveFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ObjectiveFeedbackRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.reply(h.mgr.Dispatch(ctx, input.SessionID, session.Feedback{
		Target:  "wellness",
		ID:      input.Objective,
		Correct: input.Completed,
	}))
}

// HandleContext handles the wellness_context tool call.
func (h *Handlers) HandleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[SessionRequest](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.reply(h.mgr.Recall(ctx, "wellness"))
}

// HandleMode handles the tutor_mode tool call.
func (h *Handlers) HandleMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ModeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.reply(h.mgr.Dispatch(ctx, input.SessionID, session.SetMode{Mode: input.Mode, ConceptID: input.ConceptID}))
}

// HandleTutorFeedback handles the tutor_feedback tool call.
func (h *Handlers) HandleTutorFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TutorFeedbackRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.reply(h.mgr.Dispatch(ctx, input.SessionID, session.Feedback{
		Target:  "tutor",
		ID:      input.ConceptID,
		Correct: input.IsCorrect,
		Note:    input.Feedback,
	}))
}

// HandleProgress handles the tutor_progress tool call.
func (h *Handlers) HandleProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	p, err := h.mgr.Progress(input.SessionID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(p)
}

// HandleRoll handles the adventure_roll tool call.
func (h *Handlers) HandleRoll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RollRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.reply(h.mgr.Roll(input.SessionID, input.Sides))
}

// HandleAdventure returns a handler for the argument-free adventure actions.
func (h *Handlers) HandleAdventure(action func(m *session.Manager, sessionID string) (session.Reply, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := decode[SessionRequest](req)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
		return h.reply(action(h.mgr, input.SessionID))
	}
}

// HandleItem returns a handler for the item actions.
func (h *Handlers) HandleItem(action func(m *session.Manager, sessionID, item string) (session.Reply, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := decode[ItemRequest](req)
		if err != nil {
			return errorResult(errors.NewInvalidRequest(err.Error())), nil
		}
		return h.reply(action(h.mgr, input.SessionID, input.Item))
	}
}

// HandleEnd handles the session_end tool call.
func (h *Handlers) HandleEnd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.SessionID == "" {
		return errorResult(errors.NewInvalidRequest("session_id is required")), nil
	}
	return successResult(map[string]any{"session_id": input.SessionID, "ended": h.mgr.End(input.SessionID)})
}

// HandleJournalList handles the journal_list tool call.
func (h *Handlers) HandleJournalList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[JournalListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Limit < 0 {
		return errorResult(errors.NewInvalidRequest("limit must not be negative")), nil
	}

	entries, err := h.mgr.Journal().List(ctx, strings.TrimSpace(input.Persona), input.Limit)
	if err != nil {
		h.logger.Warn("journal list failed", zap.String("persona", input.Persona), zap.Error(err))
		return errorResult(err), nil
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return successResult(JournalListOutput{Entries: entries, Count: len(entries)})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var iErr *errors.IntakeError
	if stderrors.As(err, &iErr) {
		msg := iErr.Message
		// keep wrapper context such as "finalize: "
		if prefix := strings.TrimSuffix(err.Error(), iErr.Error()); prefix != err.Error() {
			msg = prefix + msg
		}
		if iErr.Code == errors.ErrInternal || iErr.Code == errors.ErrPersistence {
			msg = "an internal error occurred"
		}
		errorObj := map[string]any{
			"code":    iErr.Code,
			"message": msg,
			"status":  iErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if iErr.Code != errors.ErrInternal && iErr.Code != errors.ErrPersistence && iErr.Details != nil {
			errorObj["details"] = iErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
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
