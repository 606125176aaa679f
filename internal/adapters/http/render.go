package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"parker/internal/adapters/http/middleware"
)

//go:embed templates/*.html content/*.md
var assets embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderer holds one parsed template set per page, each joined with the layout.
type renderer struct {
	pages map[string]*template.Template
}

// requestFuncs are replaced per request before execution.
func requestFuncs(r *http.Request) template.FuncMap {
	id, loggedIn := middleware.GetIdentity(r.Context())
	return template.FuncMap{
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":    func() string { return csrf.Token(r) },
		"isLoggedIn":   func() bool { return loggedIn },
		"currentEmail": func() string { return id.Email },
		"currentName":  func() string { return id.Name },
		"isAdmin":      func() bool { return loggedIn && id.IsAdmin() },
		"currentPath":  func() string { return r.URL.Path },
	}
}

var staticFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"stageDone": func(current, stage int) bool {
		return current > stage
	},
	"stageActive": func(current, stage int) bool {
		return current >= stage
	},
}

// newRenderer parses every page template against the layout.
// POST: each page is executable by name without touching the filesystem
func newRenderer() (*renderer, error) {
	names, err := fs.Glob(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}
	base := template.New("layout.html").Funcs(staticFuncs).Funcs(requestFuncs(&http.Request{}))
	base, err = base.ParseFS(assets, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	rd := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		page := strings.TrimPrefix(name, "templates/")
		if page == "layout.html" {
			continue
		}
		tpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", page, err)
		}
		if tpl, err = tpl.ParseFS(assets, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		rd.pages[page] = tpl
	}
	return rd, nil
}

// render executes page into a buffer so a template error never leaves a half-written body.
func (rd *renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	tpl, ok := rd.pages[page]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %q", page))
		return
	}
	tpl, err := tpl.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl.Funcs(requestFuncs(r))

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", page, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderMarkdown converts an embedded markdown document to HTML.
func renderMarkdown(path string) (template.HTML, error) {
	src, err := assets.ReadFile(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode_failed", "error", err)
	}
}

// isJSONRequest reports whether the client prefers a JSON response.
func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
