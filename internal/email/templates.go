package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var layout = template.Must(template.New("layout.html").ParseFS(templateFS, "templates/layout.html"))

type layoutData struct {
	Subject    string
	Paragraphs []string
	FromName   string
}

// RenderHTML wraps a plain text body in the HTML mail layout. Blank lines
// separate paragraphs; the text is escaped.
func RenderHTML(subject, body, fromName string) (string, error) {
	var paragraphs []string
	for _, p := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var buf bytes.Buffer
	if err := layout.ExecuteTemplate(&buf, "email", layoutData{Subject: subject, Paragraphs: paragraphs, FromName: fromName}); err != nil {
		return "", fmt.Errorf("execute email layout: %w", err)
	}
	return buf.String(), nil
}
