package prompt

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
)

// Prompt names understood by the renderer.
const (
	OllamaTranslate = "ollama_translate"
	ChatSystem      = "chat_system"
)

type Renderer struct {
	Settings ports.SettingsReader
}

func New(settings ports.SettingsReader) *Renderer { return &Renderer{Settings: settings} }

// Render executes the template stored under "prompt.<name>" in settings, falling back to the builtin.
func (r *Renderer) Render(ctx context.Context, name string, data ports.PromptData) (string, error) {
	body := builtinTemplate(name)
	if r.Settings != nil {
		if v, err := r.Settings.Get(ctx, domain.SettingPromptPrefix+name); err == nil && v != "" {
			body = v
		}
	}
	if body == "" {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	tpl, err := template.New(name).Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse prompt %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return buf.String(), nil
}

func builtinTemplate(name string) string {
	switch name {
	case OllamaTranslate:
		return "You are an expert translator. Translate the following text from {{.SrcLang}} to {{.TgtLang}}.\n" +
			"Do not add any commentary, preamble, or explanation. Only provide the raw translated text.\n\n" +
			"Original Text:\n---\n{{.Text}}\n---\n\nTranslated Text:\n"
	case ChatSystem:
		return "You are a professional translator. Translate the following text from {{.SrcLang}} to {{.TgtLang}}. " +
			"Do not add any extra commentary, notes, or explanations. Only provide the translated text."
	}
	return ""
}
