package interview

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptPair is a system instruction with its user message template
type PromptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Prompts holds every template sent to the generation service
type Prompts struct {
	Evaluate struct {
		PromptPair      `yaml:",inline"`
		TagsInstruction string `yaml:"tags_instruction"`
	} `yaml:"evaluate"`
	NextQuestion struct {
		PromptPair    `yaml:",inline"`
		HistoryHeader string `yaml:"history_header"`
	} `yaml:"next_question"`
	Seed struct {
		Technical PromptPair `yaml:"technical"`
		HR        PromptPair `yaml:"hr"`
		Resume    PromptPair `yaml:"resume"`
	} `yaml:"seed"`
	Audio    PromptPair `yaml:"audio"`
	Behavior PromptPair `yaml:"behavior"`
}

// DefaultPrompts returns the built-in templates
func DefaultPrompts() *Prompts {
	p, err := ParsePrompts(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts are invalid: %v", err))
	}
	return p
}

// LoadPrompts reads templates from a YAML file, or the built-in set when path is empty
func LoadPrompts(path string) (*Prompts, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPrompts(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts %s: %w", path, err)
	}
	return ParsePrompts(data)
}

// ParsePrompts decodes and validates a prompt set
func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Prompts) validate() error {
	pairs := map[string]PromptPair{
		"evaluate":       p.Evaluate.PromptPair,
		"next_question":  p.NextQuestion.PromptPair,
		"seed.technical": p.Seed.Technical,
		"seed.hr":        p.Seed.HR,
		"seed.resume":    p.Seed.Resume,
		"audio":          p.Audio,
		"behavior":       p.Behavior,
	}
	for name, pair := range pairs {
		if strings.TrimSpace(pair.User) == "" {
			return fmt.Errorf("prompt %s: user template is required", name)
		}
	}
	if !strings.Contains(p.Evaluate.User, "{{ANSWER}}") {
		return fmt.Errorf("prompt evaluate: user template must reference {{ANSWER}}")
	}
	return nil
}

// Vars are placeholder values substituted into a template
type Vars map[string]string

// Render replaces every {{KEY}} in tmpl. Unknown placeholders are left as is.
func Render(tmpl string, vars Vars) string {
	if len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(tmpl))
}
