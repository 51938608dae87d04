package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/pkg/logger"
)

//go:embed prompts/*.tmpl
var builtin embed.FS

// Prompt template names
const (
	PostSystem    = "post_system.tmpl"
	PostUser      = "post_user.tmpl"
	CommentSystem = "comment_system.tmpl"
	CommentUser   = "comment_user.tmpl"
)

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager holds parsed prompt templates
type Manager struct {
	templates *template.Template
}

// GetDefaultFuncMap returns common template helper functions
func GetDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"join":  strings.Join,
		"quote": func(s string) string { return `"` + s + `"` },
		"add":   func(a, b int) int { return a + b },
	}
}

// NewManager parses the built-in prompt templates
func NewManager() (*Manager, error) {
	sub, err := fs.Sub(builtin, "prompts")
	if err != nil {
		return nil, err
	}
	return NewManagerFS(sub)
}

// NewManagerFS parses every *.tmpl at the root of fsys
func NewManagerFS(fsys fs.FS) (*Manager, error) {
	tmpl, err := template.New("root").Funcs(GetDefaultFuncMap()).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	logger.Debug("prompt templates loaded", zap.Int("count", len(tmpl.Templates())-1))

	return &Manager{templates: tmpl}, nil
}

// NewManagerWithValidation creates manager and validates required templates exist
func NewManagerWithValidation(requiredTemplates []string) (*Manager, error) {
	manager, err := NewManager()
	if err != nil {
		return nil, err
	}

	for _, name := range requiredTemplates {
		if !manager.TemplateExists(name) {
			return nil, fmt.Errorf("required template not found: %s", name)
		}
	}

	return manager, nil
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data any) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// TemplateExists checks if template exists
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}
