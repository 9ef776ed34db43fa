// Package templates holds the server-rendered pages and a Gin HTML renderer for them.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/blogicum/blogicum/utils"
)

//go:embed layouts/*.html pages/*.html
var embedded embed.FS

// Renderer renders every page inside the shared layout.
// Each page gets its own template set so pages can redefine the same blocks.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// New parses the embedded templates, or the ones under dir when it is not empty.
// Dates are shown in loc; nil means the local zone.
func New(dir string, loc *time.Location) (*Renderer, error) {
	var fsys fs.FS = embedded
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	layouts, err := fs.Glob(fsys, "layouts/*.html")
	if err != nil {
		return nil, err
	}
	pages, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, err
	}
	base, err := template.New("").Funcs(Funcs(loc)).ParseFS(fsys, layouts...)
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t, err := template.Must(base.Clone()).ParseFS(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[path.Base(p)] = t
	}
	return r, nil
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic("templates: unknown page " + name)
	}
	return render.HTML{Template: t, Name: "base", Data: data}
}

// Has reports whether a page exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Funcs are the helpers available to every page. Times are converted to loc.
func Funcs(loc *time.Location) template.FuncMap {
	if loc == nil {
		loc = time.Local
	}
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format("2 January 2006, 15:04")
		},
		"datetimeLocal": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format("2006-01-02T15:04")
		},
		// body sanitizes post text as HTML and keeps line breaks.
		"body": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(utils.Sanitize(s), "\n", "<br>"))
		},
		// linebreaks escapes plain text and keeps line breaks.
		"linebreaks": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
		},
		"truncatewords": func(s string, n int) string {
			words := strings.Fields(s)
			if len(words) <= n {
				return strings.Join(words, " ")
			}
			return strings.Join(words[:n], " ") + " …"
		},
		"plain": utils.StripTags,
		"media": func(rel string) string {
			return "/media/" + strings.TrimPrefix(rel, "/")
		},
		"deref": func(p *uint) uint {
			if p == nil {
				return 0
			}
			return *p
		},
		"year": func() int { return time.Now().Year() },
	}
}
