// Package templates embeds the HTML pages of the admin UI.
//
// Every page file renders the shared "header" and "footer" partials from
// layout.tmpl; errors go through the "inline_error" partial, which prints
// only when the presentation router chose inline mode.
package templates

import (
	"embed"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed *.tmpl
var files embed.FS

// Funcs returns the helpers available to every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		// cases.Caser keeps state, so one is built per call.
		"title": func(s string) string {
			return cases.Title(language.English).String(strings.ToLower(s))
		},
		"money": func(v float64) string {
			return message.NewPrinter(language.English).Sprintf("%.2f", v)
		},
		"deref": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},
		"add": func(a, b int) int { return a + b },
	}
}

// Load parses all embedded templates. Page templates are addressed by file
// name, e.g. "item_types.tmpl".
func Load() (*template.Template, error) {
	return template.New("pages").Funcs(Funcs()).ParseFS(files, "*.tmpl")
}

// MustLoad is Load that panics on a parse error.
func MustLoad() *template.Template {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}
