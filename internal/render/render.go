// Package render turns a validated CV record into HTML and PDF documents.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"sync"

	"github.com/spigell/cvbuilder/internal/cv"
)

// Template is the key of an output style.
type Template string

const (
	Modern   Template = "modern"
	Classic  Template = "classic"
	Creative Template = "creative"
)

var ErrUnknownTemplate = errors.New("unknown template")

// TemplateInfo describes one output style.
type TemplateInfo struct {
	Key  Template
	Name string
	file string
}

var catalog = []TemplateInfo{
	{Key: Modern, Name: "Modern Minimalist", file: "modern.html"},
	{Key: Classic, Name: "Classic Professional", file: "classic.html"},
	{Key: Creative, Name: "Creative Tech", file: "creative.html"},
}

//go:embed templates/*.html
var templateFS embed.FS

const sharedTemplates = "templates/sections.html"

var funcs = template.FuncMap{
	"join": strings.Join,
}

var parsed = sync.OnceValues(func() (map[Template]*template.Template, error) {
	out := make(map[Template]*template.Template, len(catalog))
	for _, info := range catalog {
		tmpl, err := template.New(info.file).Funcs(funcs).ParseFS(templateFS, "templates/"+info.file, sharedTemplates)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", info.Key, err)
		}
		out[info.Key] = tmpl
	}
	return out, nil
})

// Templates returns the available output styles in menu order.
func Templates() []TemplateInfo {
	out := make([]TemplateInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a template by key.
func Lookup(key string) (TemplateInfo, bool) {
	for _, info := range catalog {
		if string(info.Key) == key {
			return info, true
		}
	}
	return TemplateInfo{}, false
}

// RenderHTML executes the template for the record.
func RenderHTML(rec *cv.Record, key Template) (string, error) {
	info, ok := Lookup(string(key))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, key)
	}
	if rec == nil {
		rec = &cv.Record{}
	}

	templates, err := parsed()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := templates[info.Key].ExecuteTemplate(&buf, info.file, rec); err != nil {
		return "", fmt.Errorf("execute template %s: %w", info.Key, err)
	}
	return buf.String(), nil
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// FileName returns the attachment name for a rendered CV.
func FileName(rec *cv.Record) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(rec.FullName(), "_"), "_")
	if name == "" {
		name = "cv"
	}
	return "CVBuilder_" + name + ".pdf"
}
