package llm

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptTemplate struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type promptPack map[string]promptTemplate

func loadPrompts() (promptPack, error) {
	var pack promptPack
	if err := yaml.Unmarshal(promptsYAML, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse embedded prompts: %w", err)
	}
	return pack, nil
}

// render substitutes {{key}} placeholders in both halves of the named prompt.
func (p promptPack) render(name string, vars map[string]string) (system, user string, err error) {
	tpl, ok := p[name]
	if !ok {
		return "", "", fmt.Errorf("unknown prompt %q", name)
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(tpl.System), r.Replace(tpl.User), nil
}
