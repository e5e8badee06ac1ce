// Package prompts renders the system prompts sent to the language model.
// Defaults are embedded; any of them can be replaced from a YAML file.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.txt
var defaultsFS embed.FS

// Name identifies one prompt template.
type Name string

const (
	Moderator Name = "moderator"
	Tutor     Name = "tutor"
	Examiner  Name = "examiner"
	Planner   Name = "planner"
	Simplify  Name = "simplify"
)

var names = []Name{Moderator, Tutor, Examiner, Planner, Simplify}

const maxInputRunes = 10000

var inputTagRegex = regexp.MustCompile(`(?i)</?\s*(topic|step|system-instructions)\b[^>]*>`)

// ModeratorData is the data for the Moderator template.
type ModeratorData struct {
	Topic string
}

// ExamData is the data for the Examiner template.
type ExamData struct {
	Topic     string
	Questions int
}

// PlanData is the data for the Planner template.
type PlanData struct {
	MaxSteps int
}

// SimplifyData is the data for the Simplify template.
type SimplifyData struct {
	Topic string
	Step  string
}

// Set is a parsed collection of prompt templates.
type Set struct {
	templates map[Name]*template.Template
}

// Load parses the embedded defaults and applies overrides from the YAML file
// at path, if path is not empty. The file maps template names to text:
//
//	tutor: |
//	  You are a patient physics tutor...
func Load(path string) (*Set, error) {
	sources := make(map[Name]string, len(names))
	for _, n := range names {
		b, err := defaultsFS.ReadFile("templates/" + string(n) + ".txt")
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", n, err)
		}
		sources[n] = string(b)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt overrides: %w", err)
		}
		var overrides map[string]string
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("parse prompt overrides %s: %w", path, err)
		}
		for k, v := range overrides {
			n := Name(k)
			if _, ok := sources[n]; !ok {
				return nil, fmt.Errorf("unknown prompt %q in %s", k, path)
			}
			sources[n] = v
		}
	}

	s := &Set{templates: make(map[Name]*template.Template, len(sources))}
	for n, src := range sources {
		t, err := template.New(string(n)).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse prompt template %s: %w", n, err)
		}
		s.templates[n] = t
	}
	return s, nil
}

// Render executes the named template with data.
func (s *Set) Render(name Name, data any) (string, error) {
	t, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Sanitize prepares user text for embedding inside a prompt: tags that
// delimit prompt sections are removed and overly long input is truncated.
func Sanitize(s string) string {
	s = inputTagRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxInputRunes {
		s = string([]rune(s)[:maxInputRunes]) + "\n\n[truncated]"
	}
	return s
}
