package printing

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/gcci/certgen/internal/domain/certificate"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const documentTitle = "certificate of origin (non-preferential)"

const certificateHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{title .Title}}</title>
<style>
@page { size: {{.Width}}pt {{.Height}}pt; margin: 0; }
html, body { margin: 0; padding: 0; }
.page { position: relative; width: {{.Width}}pt; height: {{.Height}}pt; overflow: hidden;
  font-family: Helvetica, Arial, sans-serif; color: #000; }
.bg { position: absolute; left: 0; top: 0; width: 100%; height: 100%; }
.blk { position: absolute; white-space: pre; line-height: {{.LineHeight}}pt; }
.b { font-weight: bold; }
</style>
</head>
<body>
<div class="page">
{{- if .Background}}
<img class="bg" src="{{.Background}}" alt="">
{{- end}}
{{- range .Blocks}}
<div class="blk{{if .Bold}} b{{end}}" style="left: {{.Left}}pt; top: {{.Top}}pt; font-size: {{.Size}}pt">
{{- range lines .Text}}<div>{{.}}</div>{{end -}}
</div>
{{- end}}
</div>
</body>
</html>
`

// TemplateEngine composes the certificate page
type TemplateEngine struct {
	tmpl *template.Template
}

type pageData struct {
	Title      string
	Width      float64
	Height     float64
	LineHeight float64
	Background template.URL
	Blocks     []Block
}

// NewTemplateEngine parses the certificate template
func NewTemplateEngine() (*TemplateEngine, error) {
	funcMap := template.FuncMap{
		"lines": splitLines,
		"title": titleCase,
	}
	tmpl, err := template.New("certificate").Funcs(funcMap).Parse(certificateHTML)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "parse certificate template", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

// Compose renders the HTML page for d on top of bg.
func (e *TemplateEngine) Compose(d certificate.Data, bg *Background) (string, error) {
	blocks := CertificateBlocks(d)
	data := pageData{
		Title:      documentTitle,
		Width:      PageWidth,
		Height:     PageHeight,
		LineHeight: lineHeight,
	}
	if bg != nil {
		data.Background = bg.DataURL
		if bg.Missing {
			blocks = append(blocks, missingBackgroundBlock(bg.Name))
		}
	}
	data.Blocks = blocks

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "execute certificate template", err)
	}
	return buf.String(), nil
}

// titleCase builds a Caser per call; Casers are not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// splitLines splits on any newline convention and drops a trailing empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
