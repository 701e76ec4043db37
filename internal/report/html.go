package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Arial, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; font-size: 0.9rem; }
th { background: #e6e6e6; }
pre { background: #f6f6f6; padding: 8px; overflow-x: auto; }
.status { font-weight: bold; color: {{if .OK}}#1a7f37{{else}}#cf222e{{end}}; }
</style>
</head>
<body>
<p class="status">{{if .OK}}PASSED{{else}}FAILED{{end}}</p>
{{.Body}}
</body>
</html>
`))

type htmlWriter struct{}

func (htmlWriter) Format() string    { return "html" }
func (htmlWriter) Extension() string { return "html" }

func (htmlWriter) Render(s Summary) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(s)), &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	var out bytes.Buffer
	err := pageTemplate.Execute(&out, struct {
		Title string
		OK    bool
		Body  template.HTML
	}{
		Title: s.Title,
		OK:    s.OK(),
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report page: %w", err)
	}
	return out.Bytes(), nil
}
