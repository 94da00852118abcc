// Package template renders participant placeholders in script text.
package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/eomgitae/care-console/internal/models"
)

// Context holds all variables available to script text.
type Context struct {
	Agent    models.Agent
	Customer models.Customer

	// Vars holds script-defined variables.
	Vars map[string]string
}

// Render resolves template expressions in the given string.
// Uses Go's text/template syntax: {{.Customer.Name}}, {{.Vars.product}}.
// Returns the input unchanged if it contains no template delimiters.
func Render(tmpl string, ctx *Context) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("template: parse: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("template: render: %w", err)
	}

	return buf.String(), nil
}
