package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/journal"
	"github.com/hpungsan/intake/internal/persona"
	"github.com/hpungsan/intake/internal/record"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	journal  journal.Journal
	registry *persona.Registry
	sessions SessionCounter
	renderer *Renderer
	version  string
}

// HandleRecords handles GET /records. The optional persona query parameter
// filters to one persona.
func (h *Handlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	h.records(w, r, r.URL.Query().Get("persona"), wantsJSON(r) || r.URL.Query().Get("format") == "json")
}

// HandlePersonaRecords handles GET /records/{persona}. A ".json" suffix
// selects the JSON representation.
func (h *Handlers) HandlePersonaRecords(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("persona")
	asJSON := wantsJSON(r) || r.URL.Query().Get("format") == "json"
	if trimmed, ok := strings.CutSuffix(name, ".json"); ok {
		name, asJSON = trimmed, true
	}
	if name == "" {
		h.renderer.renderError(w, r, errors.NewNotFound("persona", name))
		return
	}
	h.records(w, r, name, asJSON)
}

func (h *Handlers) records(w http.ResponseWriter, r *http.Request, name string, asJSON bool) {
	if name != "" {
		if _, ok := h.registry.Lookup(name); !ok {
			h.renderer.renderError(w, r, errors.NewNotFound("persona", name))
			return
		}
	}

	limit, err := parseLimit(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	entries, err := h.journal.List(r.Context(), name, limit)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if asJSON {
		if entries == nil {
			entries = []journal.Entry{}
		}
		renderJSON(w, http.StatusOK, map[string]any{
			"persona": name,
			"count":   len(entries),
			"entries": entries,
		})
		return
	}

	rows := make([]RecordRow, 0, len(entries))
	// Newest first for display.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		var schema *record.Schema
		if p, ok := h.registry.Lookup(e.Persona); ok {
			schema = p.Schema
		}
		rows = append(rows, toRow(e, schema))
	}

	h.renderer.renderPage(w, r, "records", RecordsPageData{
		PageData: PageData{
			Title:   personaTitle(name),
			Version: h.version,
			Nav:     "records",
		},
		Rows:     rows,
		Personas: h.registry.Names(),
		Persona:  name,
		Limit:    limit,
	})
}

// HandleConcepts handles GET /concepts: the tutor catalog with summaries
// rendered as markdown.
func (h *Handlers) HandleConcepts(w http.ResponseWriter, r *http.Request) {
	concepts := h.registry.Concepts.List()

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, map[string]any{"concepts": concepts})
		return
	}

	views := make([]ConceptView, 0, len(concepts))
	for _, c := range concepts {
		views = append(views, ConceptView{Concept: c, SummaryHTML: renderMarkdown(c.Summary)})
	}

	h.renderer.renderPage(w, r, "concepts", ConceptsPageData{
		PageData: PageData{
			Title:   "Concepts",
			Version: h.version,
			Nav:     "concepts",
		},
		Concepts: views,
		Modes:    persona.Modes,
	})
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"version": h.version,
	}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Count()
	}
	renderJSON(w, http.StatusOK, body)
}

// parseLimit reads the limit query parameter. Missing means defaultLimit;
// values above maxLimit are capped.
func parseLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return defaultLimit, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.NewInvalidRequest("limit must be a non-negative integer")
	}
	if v == 0 || v > maxLimit {
		return maxLimit, nil
	}
	return v, nil
}
