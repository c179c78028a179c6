package web

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates returns the embedded template set.
func Templates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer executes named templates parsed from a filesystem.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses every *.html file at the root of fsys. Templates are
// addressed by file name.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	const op = "web.templates"
	if fsys == nil {
		fsys = Templates()
	}
	t, err := template.New("").ParseFS(fsys, "*.html")
	if err != nil {
		return nil, WrapKind(op, ErrTemplates, err)
	}
	return &Renderer{tmpl: t}, nil
}

// Execute renders the template called name into w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	const op = "web.render"
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return WrapKind(op, ErrRender, err)
	}
	return nil
}
