// Package prompt renders the system and user prompts sent to the LLM
// providers. Templates are compiled once and rendered deterministically from a
// field list, language and product context, so identical inputs always
// produce identical prompt text.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// Data is the variable set available to prompt templates
type Data struct {
	LanguageName   string
	Fields         []string
	MaxFeatures    int
	MaxKeywords    int
	ProductContext string
}

// Engine is a thread-safe template engine with precompiled prompt templates
type Engine struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	mu        sync.RWMutex
}

// NewEngine creates an engine with the built-in provider templates compiled
func NewEngine() (*Engine, error) {
	e := &Engine{
		templates: make(map[string]*template.Template),
	}
	e.funcMap = template.FuncMap{
		"join": strings.Join,
	}

	for name, text := range builtinTemplates {
		if err := e.Compile(name, text); err != nil {
			return nil, fmt.Errorf("compile template %q: %w", name, err)
		}
	}
	return e, nil
}

// Compile parses and caches a template under the given name
func (e *Engine) Compile(name, text string) error {
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(text)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.templates[name] = tmpl
	e.mu.Unlock()
	return nil
}

// Render executes a compiled template with the given data
func (e *Engine) Render(name string, data Data) (string, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}
	return buf.String(), nil
}

// LanguageName maps an ISO 639-1 code to the language name used in prompts.
// Unknown codes pass through unchanged.
func LanguageName(code string) string {
	names := map[string]string{
		"ru": "Russian",
		"en": "English",
		"zh": "Chinese",
		"es": "Spanish",
		"de": "German",
		"fr": "French",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return code
}
