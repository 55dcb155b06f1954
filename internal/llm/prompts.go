package llm

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/malik-dev28/OTA-AI/internal/types"
)

//go:embed prompts/default.yaml
var defaultPrompts embed.FS

type Style struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// PromptSpec is one prompt as written in the YAML file. Template may use
// {prompt}, {today} and {year}.
type PromptSpec struct {
	System   string `yaml:"system"`
	Template string `yaml:"template"`
	Style    Style  `yaml:"style"`
}

type Prompts struct {
	Chat    PromptSpec `yaml:"chat"`
	Extract PromptSpec `yaml:"extract"`
}

// LoadPrompts reads the prompt file at path, or the built-in prompts when
// path is empty.
func LoadPrompts(path string) (*Prompts, error) {
	var (
		b   []byte
		err error
	)
	if path == "" {
		b, err = defaultPrompts.ReadFile("prompts/default.yaml")
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var p Prompts
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if strings.TrimSpace(p.Chat.System) == "" {
		return nil, fmt.Errorf("prompts: chat.system is empty")
	}
	if !strings.Contains(p.Extract.Template, "{prompt}") {
		return nil, fmt.Errorf("prompts: extract.template must contain {prompt}")
	}
	return &p, nil
}

func (s PromptSpec) render(prompt string, today time.Time) string {
	r := strings.NewReplacer(
		"{prompt}", prompt,
		"{today}", today.Format(types.DateLayout),
		"{year}", today.Format("2006"),
	)
	return r.Replace(s.Template)
}

func (s PromptSpec) request(system, prompt string) Request {
	t := s.Style.Temperature
	if t < 0 {
		t = 0
	}
	maxTok := s.Style.MaxTokens
	if maxTok <= 0 {
		maxTok = 500
	}
	return Request{System: system, Prompt: prompt, Temperature: t, MaxTokens: maxTok}
}
