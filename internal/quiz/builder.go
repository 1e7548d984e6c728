// internal/quiz/builder.go
//
// Builds a Round from a Choice: decode the screenshot, split it into tiles,
// render the reveal frames and write them as PNG files.

package quiz

import (
	"fmt"
	"image"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/usobak/mastodon-image-quiz-bot/internal/reveal"
)

// Builder renders clue files into OutputDir.
type Builder struct {
	OutputDir  string
	Rows, Cols int
	Rand       *rand.Rand
}

// Build generates the clue sequence for choice. On error no file is left behind.
func (b *Builder) Build(choice Choice) (*Round, error) {
	img, err := decodeFile(choice.Image)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", choice.Image, err)
	}
	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", b.OutputDir, err)
	}

	bounds := img.Bounds()
	tiles := reveal.Partition(bounds.Dy(), bounds.Dx(), b.Rows, b.Cols)
	frames := reveal.Generate(img, tiles, b.Rand)

	key := uuid.New().String()
	paths := make([]string, 0, len(frames))
	for i, frame := range frames {
		p := filepath.Join(b.OutputDir, fmt.Sprintf("%s.%d.png", key, i+1))
		if err := writePNG(p, frame); err != nil {
			_ = NewRound(choice, paths).Dispose()
			return nil, err
		}
		paths = append(paths, p)
	}

	log.Info().
		Str("title", choice.Question.Title).
		Str("image", choice.Image).
		Int("clues", len(paths)).
		Msg("clues generated")
	return NewRound(choice, paths), nil
}

func writePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
