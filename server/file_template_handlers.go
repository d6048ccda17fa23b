package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	templateFormPost         = "form_post.html"
	templateCallbackFragment = "callback_fragment.html"
	templateError            = "error.html"
)

var pages = mustParsePages(templateFormPost, templateCallbackFragment, templateError)

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Parse(string(content))
}

func mustParsePages(names ...string) map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			panic("Failed to parse template " + name + ": " + err.Error())
		}
		parsed[name] = tmpl
	}
	return parsed
}

// renderPage writes one of the embedded pages. Pages are never cached by the browser.
func renderPage(w http.ResponseWriter, name string, status int, data any) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := pages[name].Execute(w, data); err != nil {
		log.Err(err).Str("template", name).Msg("failed to render page")
	}
}
