package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona describes the assistant's voice, parsed from a markdown file
// with YAML frontmatter. The markdown body is injected into the system
// prompt verbatim.
type Persona struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tone        string   `yaml:"tone,omitempty"`
	Traits      []string `yaml:"traits,omitempty"`

	// Content is the markdown body below the frontmatter.
	Content string `yaml:"-"`
}

// LoadFile loads and parses a persona markdown file.
func LoadFile(path string) (*Persona, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading persona file %s: %w", path, err)
	}
	return Parse(string(content))
}

// Parse parses persona content with optional YAML frontmatter.
func Parse(content string) (*Persona, error) {
	frontmatter, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("error parsing frontmatter: %w", err)
	}

	p := &Persona{Content: strings.TrimSpace(body)}

	if frontmatter != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), p); err != nil {
			return nil, fmt.Errorf("error parsing YAML frontmatter: %w", err)
		}
	}

	if p.Name == "" {
		return nil, fmt.Errorf("persona name is required in frontmatter")
	}

	return p, nil
}

// splitFrontmatter separates YAML frontmatter from markdown content.
// Content without a leading "---" line is all body.
func splitFrontmatter(content string) (frontmatter, body string, err error) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return "", content, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return "", "", fmt.Errorf("unterminated frontmatter block")
	}

	frontmatter = strings.Join(lines[1:end], "\n")
	body = strings.Join(lines[end+1:], "\n")
	return frontmatter, body, nil
}
