package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/Masterminds/sprig/v3"
)

//go:embed tpl/*.tmpl tpl/**/*.tmpl
var tplFS embed.FS

// Renderer executes the embedded pages inside the base layout. Templates are
// parsed once; a Renderer is safe for concurrent use.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"staticURL": func(p string) string { return "/static/" + strings.TrimPrefix(p, "/") },
		"siteName":  func() string { return DefaultTitle },
	}
	base := template.New("root").Funcs(sprig.HtmlFuncMap()).Funcs(funcs)
	if _, err := base.ParseFS(tplFS, "tpl/base.tmpl", "tpl/partials/*.tmpl"); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	paths, err := fs.Glob(tplFS, "tpl/pages/*.tmpl")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(paths))}
	for _, p := range paths {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(tplFS, p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[strings.TrimSuffix(path.Base(p), ".tmpl")] = t
	}
	return r, nil
}

// Render writes the named page wrapped in the base layout. data is normally a Page[T].
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// RenderFragment renders already-built markup as the page content.
func (r *Renderer) RenderFragment(w io.Writer, title string, user *User, fragment template.HTML) error {
	return r.Render(w, "fragment", Page[template.HTML]{Title: title, User: user, Content: fragment})
}
