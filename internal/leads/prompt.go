package leads

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultSystemPrompt asks the model to answer with JSON only.
const DefaultSystemPrompt = "You are a lead extraction expert. Always respond with valid JSON only."

//go:embed prompts/extraction.txt
var defaultTemplate string

// Prompt is the extraction instruction set; the email content is appended to Template.
type Prompt struct {
	Template string
	System   string
}

// DefaultPrompt returns the embedded rule-set and system instruction.
func DefaultPrompt() Prompt {
	return Prompt{Template: defaultTemplate, System: DefaultSystemPrompt}
}

// LoadPrompt reads the rule-set from path, falling back to the embedded
// template when path is empty. An empty system falls back to DefaultSystemPrompt.
func LoadPrompt(path, system string) (Prompt, error) {
	p := DefaultPrompt()
	if strings.TrimSpace(system) != "" {
		p.System = system
	}
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Prompt{}, fmt.Errorf("leads: read prompt template: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return Prompt{}, errors.New("leads: prompt template is empty")
	}
	p.Template = string(b)
	return p, nil
}

// Build concatenates the rule-set and the already-trimmed email content.
func (p Prompt) Build(content string) string {
	tmpl := p.Template
	if tmpl != "" && !strings.HasSuffix(tmpl, "\n") {
		tmpl += "\n"
	}
	return tmpl + content
}
