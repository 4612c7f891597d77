// Package views renders the dashboard pages and the fragments patched into
// them over SSE. Templates are embedded and exposed as templ components so
// handlers render them the same way whether they write a page or an SSE
// patch.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/ssot/internal/ui/resources"
)

//go:embed templates/*.html
var files embed.FS

// CDN build of the Datastar client.
const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

var funcMap = template.FuncMap{
	"static":   resources.StaticPath,
	"datastar": func() string { return datastarScript },
}

var (
	fragments = template.Must(template.New("fragments").Funcs(funcMap).ParseFS(files, "templates/partials.html"))
	pages     = map[string]*template.Template{
		"landing": page("landing.html"),
		"table":   page("table.html"),
		"history": page("history.html"),
	}
)

func page(file string) *template.Template {
	t := template.Must(fragments.Clone())
	return template.Must(t.ParseFS(files, "templates/layout.html", "templates/"+file))
}

func render(t *template.Template, name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, name, data)
	})
}

// LandingPage is the full landing page.
func LandingPage(d LandingPageData) templ.Component {
	return render(pages["landing"], "base", d)
}

// Landing is the picker panel, patched into #landing.
func Landing(d LandingData) templ.Component {
	return render(fragments, "landing", d)
}

// TablePage is the full page of one tab.
func TablePage(d TablePageData) templ.Component {
	return render(pages["table"], "base", d)
}

// TableContent is the body of a tab, patched into #table-content.
func TableContent(d TableData) templ.Component {
	return render(fragments, "table-content", d)
}

// Dropdown is the picker of one dimension.
func Dropdown(d DropdownData) templ.Component {
	return render(fragments, "dropdown", d)
}

// EditDialog is the open edit dialog, patched into #edit-dialog.
func EditDialog(d DialogData) templ.Component {
	return render(fragments, "dialog", d)
}

// NoDialog is the empty #edit-dialog placeholder.
func NoDialog() templ.Component {
	return render(fragments, "no-dialog", nil)
}

// HistoryPage is the edit journal page.
func HistoryPage(d HistoryPageData) templ.Component {
	return render(pages["history"], "base", d)
}
