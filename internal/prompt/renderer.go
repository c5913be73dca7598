// Package prompt holds the compiled-in prompt templates and renders them by
// name. Templates are pure substitution: no conditionals or loops. Any
// conditional phrasing (difficulty labels and the like) is resolved by the
// caller before rendering.
package prompt

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// entry pairs a parsed template with the placeholders it requires. Required
// variables are declared explicitly so a missing one is reported by name
// instead of surfacing a template execution error.
type entry struct {
	tmpl *template.Template
	vars []string
}

var registry = map[string]entry{}

func register(name, text string, vars ...string) {
	registry[name] = entry{
		tmpl: template.Must(template.New(name).Parse(text)),
		vars: vars,
	}
}

// Names returns the registered template names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateNotFoundError reports a render against an unregistered name.
// The message enumerates the valid names: the registry is compiled in, so
// hitting this is a programming error at the call site.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("unknown prompt template %q (registered: %s)",
		e.Name, strings.Join(Names(), ", "))
}

// MissingVariableError reports a template placeholder absent from the
// supplied variables.
type MissingVariableError struct {
	Template string
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt template %q: missing variable %q", e.Template, e.Variable)
}

// Render substitutes vars into the named template.
func Render(name string, vars map[string]any) (string, error) {
	e, ok := registry[name]
	if !ok {
		return "", &TemplateNotFoundError{Name: name}
	}
	for _, v := range e.vars {
		if _, present := vars[v]; !present {
			return "", &MissingVariableError{Template: name, Variable: v}
		}
	}
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}
	return buf.String(), nil
}
