package export

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/gorewood/promptlog/internal/analyzer"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
code { background: #f4f4f4; padding: 0 0.2rem; }
</style>
</head>
<body>
%s</body>
</html>
`

// HTML renders the markdown report (or only its metrics) as a standalone page.
func HTML(r *analyzer.Report, metricsOnly bool) ([]byte, error) {
	source := Markdown(r)
	if metricsOnly {
		source = MetricsMarkdown(r)
	}
	var body bytes.Buffer
	if err := md.Convert([]byte(source), &body); err != nil {
		return nil, fmt.Errorf("rendering report HTML: %w", err)
	}
	return fmt.Appendf(nil, pageTemplate, html.EscapeString("Prompt Log Analysis"), body.String()), nil
}
