// internal/quiz/dataset.go
//
// Loads quiz questions from a directory of JSON definitions.
//
// Definition format (one file per game):
//
//	{
//	  "title": "Metroid Prime",
//	  "filepaths": ["metroid_prime_1.png", "metroid_prime_2.png"],
//	  "valid_responses": ["metroid prime", "mp"]
//	}
//
// Image paths are relative to the definition file. Every field is required and
// any unreadable or malformed file fails the whole load.

package quiz

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

type definition struct {
	Title          *string  `json:"title"`
	Filepaths      []string `json:"filepaths"`
	ValidResponses []string `json:"valid_responses"`
}

// LoadQuestions reads every *.json file in dir.
func LoadQuestions(dir string) ([]Question, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(files)
	log.Debug().Int("files", len(files)).Str("dataset", dir).Msg("loading dataset")

	questions := make([]Question, 0, len(files))
	for _, f := range files {
		q, err := LoadDefinition(f)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	log.Info().Int("questions", len(questions)).Msg("dataset loaded")
	return questions, nil
}

// LoadDefinition parses a single definition file.
func LoadDefinition(path string) (Question, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Question{}, fmt.Errorf("%w: read %s: %v", ErrInvalidDefinition, path, err)
	}
	var d definition
	if err := json.Unmarshal(raw, &d); err != nil {
		return Question{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidDefinition, path, err)
	}
	switch {
	case d.Title == nil:
		return Question{}, fmt.Errorf("%w: missing \"title\" in %s", ErrInvalidDefinition, path)
	case d.Filepaths == nil:
		return Question{}, fmt.Errorf("%w: missing \"filepaths\" in %s", ErrInvalidDefinition, path)
	case d.ValidResponses == nil:
		return Question{}, fmt.Errorf("%w: missing \"valid_responses\" in %s", ErrInvalidDefinition, path)
	case len(d.Filepaths) == 0:
		return Question{}, fmt.Errorf("%w: empty \"filepaths\" in %s", ErrInvalidDefinition, path)
	}

	base := filepath.Dir(path)
	images := make([]string, len(d.Filepaths))
	for i, fp := range d.Filepaths {
		images[i] = filepath.Join(base, fp)
	}

	q := NewQuestion(*d.Title, images, d.ValidResponses)
	q.Source = path
	return q, nil
}

// CheckImages decodes every screenshot of every question.
func CheckImages(questions []Question) error {
	for _, q := range questions {
		for _, p := range q.Images {
			if _, err := decodeFile(p); err != nil {
				return fmt.Errorf("%w: %s (%s): %v", ErrInvalidDefinition, q.Title, q.Source, err)
			}
			log.Debug().Str("image", p).Msg("image ok")
		}
	}
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
