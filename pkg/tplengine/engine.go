package tplengine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateEngine renders named text templates with sprig functions.
// Missing keys are errors so a typo in a template never renders silently.
type TemplateEngine struct {
	mu           sync.RWMutex
	templates    map[string]*template.Template
	globalValues map[string]any
}

func NewEngine() *TemplateEngine {
	return &TemplateEngine{
		templates:    make(map[string]*template.Template),
		globalValues: make(map[string]any),
	}
}

func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["jsValue"] = jsValue
	return funcs
}

func newTemplate(name string) *template.Template {
	return template.New(name).Option("missingkey=error").Funcs(funcMap())
}

func (e *TemplateEngine) AddTemplate(name, templateStr string) error {
	tmpl, err := newTemplate(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	e.mu.Lock()
	e.templates[name] = tmpl
	e.mu.Unlock()
	return nil
}

// AddFS registers every file matching pattern under its base name without extension.
func (e *TemplateEngine) AddFS(fsys fs.FS, pattern string) error {
	files, err := fs.Glob(fsys, pattern)
	if err != nil {
		return fmt.Errorf("invalid template pattern %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no templates match %s", pattern)
	}
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", file, err)
		}
		if err := e.AddTemplate(templateName(file), string(data)); err != nil {
			return err
		}
	}
	return nil
}

func templateName(file string) string {
	base := path.Base(file)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

func (e *TemplateEngine) HasTemplate(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.templates[name]
	return ok
}

func (e *TemplateEngine) Render(name string, data map[string]any) (string, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}
	return e.execute(tmpl, data)
}

func (e *TemplateEngine) RenderString(templateStr string, data map[string]any) (string, error) {
	if !strings.Contains(templateStr, "{{") {
		return templateStr, nil
	}
	tmpl, err := newTemplate("inline").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	return e.execute(tmpl, data)
}

func (e *TemplateEngine) execute(tmpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, e.withGlobals(data)); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func (e *TemplateEngine) AddGlobalValue(name string, value any) {
	e.mu.Lock()
	e.globalValues[name] = value
	e.mu.Unlock()
}

func (e *TemplateEngine) withGlobals(data map[string]any) map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]any, len(data)+len(e.globalValues))
	maps.Copy(out, e.globalValues)
	maps.Copy(out, data)
	return out
}

// jsValue renders v as a JavaScript literal. encoding/json escapes U+2028,
// U+2029 and HTML characters, so the output is safe inside script source.
func jsValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("jsValue: %w", err)
	}
	return string(b), nil
}
