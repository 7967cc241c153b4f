package services

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"
)

// TemplateService renders the HTML mail templates. Parsed templates are
// cached after first use; the cache is safe for concurrent senders.
type TemplateService struct {
	templateDir string
	cache       map[string]*template.Template
	mu          sync.RWMutex
}

func NewTemplateService(templateDir string) *TemplateService {
	if templateDir == "" {
		templateDir = "./shared/mail_templates"
	}
	return &TemplateService{
		templateDir: templateDir,
		cache:       make(map[string]*template.Template),
	}
}

// Render executes the named template with data.
func (ts *TemplateService) Render(templateID string, data map[string]interface{}) (string, error) {
	ts.mu.RLock()
	tmpl, exists := ts.cache[templateID]
	ts.mu.RUnlock()

	if !exists {
		templatePath := filepath.Join(ts.templateDir, templateID+".html")
		if _, err := os.Stat(templatePath); os.IsNotExist(err) {
			return "", fmt.Errorf("template file not found: %s", templatePath)
		}

		var err error
		tmpl, err = template.ParseFiles(templatePath)
		if err != nil {
			return "", fmt.Errorf("failed to parse template %s: %v", templateID, err)
		}

		ts.mu.Lock()
		ts.cache[templateID] = tmpl
		ts.mu.Unlock()
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %v", templateID, err)
	}
	return rendered.String(), nil
}
