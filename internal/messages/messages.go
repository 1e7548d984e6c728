// internal/messages/messages.go
//
// Post templates.
// Defaults are embedded (assets/messages.yaml); a YAML file with the same keys
// can override any of them. Missing keys keep their default.

package messages

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/usobak/mastodon-image-quiz-bot/assets"
)

type document struct {
	NewClue          string `yaml:"new_clue"`
	LastClue         string `yaml:"last_clue"`
	SolutionFound    string `yaml:"solution_found"`
	SolutionNotFound string `yaml:"solution_not_found"`
}

// Templates renders every message the bot publishes.
type Templates struct {
	newClue          *template.Template
	lastClue         *template.Template
	solutionFound    *template.Template
	solutionNotFound *template.Template
}

type clueData struct{ Index, Total int }
type solutionData struct{ Title string }

// Default returns the embedded templates.
func Default() (*Templates, error) { return Load("") }

// Load returns the embedded templates overridden by the file at path.
// An empty path returns the defaults.
func Load(path string) (*Templates, error) {
	raw, err := assets.Messages()
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse embedded messages: %w", err)
	}
	if path != "" {
		custom, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read messages %s: %w", path, err)
		}
		if err := yaml.Unmarshal(custom, &doc); err != nil {
			return nil, fmt.Errorf("parse messages %s: %w", path, err)
		}
	}
	return compile(doc)
}

func compile(doc document) (*Templates, error) {
	var t Templates
	for _, f := range []struct {
		name string
		src  string
		dst  **template.Template
	}{
		{"new_clue", doc.NewClue, &t.newClue},
		{"last_clue", doc.LastClue, &t.lastClue},
		{"solution_found", doc.SolutionFound, &t.solutionFound},
		{"solution_not_found", doc.SolutionNotFound, &t.solutionNotFound},
	} {
		tmpl, err := template.New(f.name).Option("missingkey=error").Parse(f.src)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", f.name, err)
		}
		*f.dst = tmpl
	}
	return &t, nil
}

// Clue renders the clue post; the last clue (index == total) gets its own text.
func (t *Templates) Clue(index, total int) (string, error) {
	tmpl := t.newClue
	if index == total {
		tmpl = t.lastClue
	}
	return render(tmpl, clueData{Index: index, Total: total})
}

// SolutionFound renders the post announcing a correct answer.
func (t *Templates) SolutionFound(title string) (string, error) {
	return render(t.solutionFound, solutionData{Title: title})
}

// SolutionNotFound renders the post revealing an unsolved round.
func (t *Templates) SolutionNotFound(title string) (string, error) {
	return render(t.solutionNotFound, solutionData{Title: title})
}

func render(tmpl *template.Template, data any) (string, error) {
	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}
