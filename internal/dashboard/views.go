package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rpattn/bookstore/internal/auth"
	"github.com/rpattn/bookstore/internal/domain"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pages = []string{"index", "welcome", "privacy", "logout", "error"}

// views holds one parsed template set per page, each sharing the layout.
type views map[string]*template.Template

func loadViews() (views, error) {
	out := make(views, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templateFiles, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}

type pageData struct {
	Title     string
	User      auth.User
	RequestID string
	Updates   domain.LatestUpdates
	MinRange  int
	MaxRange  int
}

func (v views) render(w http.ResponseWriter, status int, page string, data pageData) error {
	t, ok := v[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, page+".html", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
