// Package view renders the storefront's HTML pages from embedded templates.
// Every page is rebuilt in full on each request; there is no client-side
// state and no incremental rendering.
package view

import (
	"embed"
	"html/template"
	"io"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Views holds the parsed page templates.
type Views struct {
	t *template.Template
}

// New parses the embedded templates.
func New() (*Views, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"money": Money,
	}).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return &Views{t: t}, nil
}

// Money formats a decimal amount as a dollar string with two places.
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Render executes the named page template into w. By the time execution
// fails part of the page may already be written, so callers log the error
// instead of attempting an error page.
func (v *Views) Render(w io.Writer, page string, data any) error {
	return v.t.ExecuteTemplate(w, page, data)
}
