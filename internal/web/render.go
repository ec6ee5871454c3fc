package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/journal"
	"github.com/hpungsan/intake/internal/persona"
	"github.com/hpungsan/intake/internal/record"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "records", "concepts"
}

// RecordRow is one journal entry flattened for display.
type RecordRow struct {
	ID        string
	Persona   string
	Session   string
	Timestamp time.Time
	Fields    []FieldCell
}

// FieldCell is one field of a RecordRow, in schema order.
type FieldCell struct {
	Name  string
	Value string
}

// RecordsPageData is the template data for the records page.
type RecordsPageData struct {
	PageData
	Rows     []RecordRow
	Personas []string
	Persona  string
	Limit    int
}

// ConceptView is a tutor concept with its summary rendered from markdown.
type ConceptView struct {
	persona.Concept
	SummaryHTML template.HTML
}

// ConceptsPageData is the template data for the concepts page.
type ConceptsPageData struct {
	PageData
	Concepts []ConceptView
	Modes    []persona.Mode
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *zap.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcMap := template.FuncMap{
		"formatTime": formatTime,
		"title":      personaTitle,
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"records":  "records.html",
		"concepts": "concepts.html",
		"error":    "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		logger:    logger,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
// For HTMX requests, only the "content" block is rendered to avoid duplicating the layout.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", zap.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if req != nil && req.Header.Get("HX-Request") == "true" {
		block = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Error("template execution failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var iErr *errors.IntakeError
	if !stderrors.As(err, &iErr) {
		iErr = errors.NewInternal(err)
	}

	status := iErr.Status
	message := iErr.Message
	if iErr.Code == errors.ErrInternal || iErr.Code == errors.ErrPersistence {
		r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
		message = "an internal error occurred"
	}

	// HTMX request: return HTML fragment
	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	// JSON request
	if wantsJSON(req) {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(iErr.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    message,
	})
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark. goldmark
// drops raw HTML by default, so the result is safe to embed.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// toRow orders an entry's fields by the persona schema; fields the schema
// does not know follow in name order.
func toRow(e journal.Entry, schema *record.Schema) RecordRow {
	row := RecordRow{ID: e.ID, Persona: e.Persona, Session: e.Session, Timestamp: e.Timestamp}
	seen := make(map[string]bool, len(e.Fields))
	if schema != nil {
		for _, name := range schema.Names() {
			if v, ok := e.Fields[name]; ok {
				row.Fields = append(row.Fields, FieldCell{Name: name, Value: v.String()})
				seen[name] = true
			}
		}
	}
	var rest []string
	for name := range e.Fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		row.Fields = append(row.Fields, FieldCell{Name: name, Value: e.Fields[name].String()})
	}
	return row
}

// formatTime formats a timestamp as "2006-01-02 15:04" UTC.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func personaTitle(name string) string {
	switch name {
	case "order":
		return "Orders"
	case "lead":
		return "Leads"
	case "wellness":
		return "Check-ins"
	case "":
		return "All records"
	}
	return name
}
