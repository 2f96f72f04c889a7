package chart

import (
	"bytes"
	"html/template"
	"sort"
	"strings"
)

const artifactTemplate = `
{{- define "artifact" -}}
{{- if eq .Kind "panel" -}}
<div class="panel" id="{{.ID}}" style="{{style .Style}}"><h3>{{.Title}}</h3>{{range .Children}}{{template "artifact" .}}{{end}}</div>
{{- else if eq .Kind "graph" -}}
<div class="graph" id="{{.ID}}">{{svg .Figure.SVG}}{{with .Figure.Note}}<p class="note">{{.}}</p>{{end}}</div>
{{- else if eq .Kind "table" -}}
<table class="data-table" id="{{.ID}}"><thead><tr>{{range .Table.Columns}}<th>{{.}}</th>{{end}}</tr></thead><tbody>{{range .Table.Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody></table>
{{- else if eq .Kind "dropdown" -}}
{{- $value := .Dropdown.Value -}}
<select class="dropdown" id="{{.Dropdown.ID}}" data-tab="{{.ID}}" data-graph="{{.Dropdown.GraphID}}">{{range .Dropdown.Options}}<option value="{{.}}"{{if eq . $value}} selected{{end}}>{{.}}</option>{{end}}</select>
<div class="dropdown-graph" data-dropdown="{{.Dropdown.ID}}">{{with .Dropdown.Graph}}{{template "artifact" .}}{{end}}</div>
{{- else if eq .Kind "row" -}}
<div class="grid-row"{{with .Style}} style="{{style .}}"{{end}}>{{range .Children}}{{template "artifact" .}}{{end}}</div>
{{- else if eq .Kind "grid" -}}
<div class="row" id="{{.ID}}">{{range .Children}}{{template "artifact" .}}{{end}}</div>
{{- end -}}
{{- end -}}
{{- template "artifact" . -}}`

var htmlTemplate = template.Must(template.New("root").Funcs(template.FuncMap{
	"style": styleAttr,
	// SVG comes from the chart renderer, not from user input.
	"svg": func(s string) template.HTML { return template.HTML(s) },
}).Parse(artifactTemplate))

// HTML renders an artifact tree as an HTML fragment.
func HTML(a *Artifact) (template.HTML, error) {
	if a == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, a); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// styleAttr formats a style map as a CSS declaration list with sorted keys.
func styleAttr(style map[string]string) template.CSS {
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(style[k])
		b.WriteString("; ")
	}
	return template.CSS(strings.TrimSpace(b.String()))
}
