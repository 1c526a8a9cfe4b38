package presenter

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("presenter").ParseFS(templateFS, "templates/*.html"))

// Page is the full document served on first load
type Page struct {
	View       View
	WSPath     string
	ScriptPath string
}

// RenderHTML writes the app fragment of v
func RenderHTML(w io.Writer, v View) error {
	return templates.ExecuteTemplate(w, "app", v)
}

// RenderHTMLString is RenderHTML into a string
func RenderHTMLString(v View) (string, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderPage writes the whole document with p.View as the initial fragment
func RenderPage(w io.Writer, p Page) error {
	return templates.ExecuteTemplate(w, "page", p)
}
