// internal/quiz/round.go
//
// A single quiz round: the clue files generated for one screenshot and the
// cursor over them.
//
// Clue order:
//   - clues[0..L-1]: partially hidden frames, most hidden first.
//   - then the original screenshot (the terminal clue).
//   - then nothing, forever.

package quiz

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
)

// Round owns the generated clue files of one question.
type Round struct {
	choice   Choice
	clues    []string
	next     int
	disposed bool
}

// NewRound wraps already generated clue files.
func NewRound(choice Choice, clues []string) *Round {
	return &Round{choice: choice, clues: clues}
}

// NextClue returns the next image to publish, or false once the terminal image
// has been handed out.
func (r *Round) NextClue() (string, bool) {
	switch {
	case r.next > len(r.clues):
		return "", false
	case r.next == len(r.clues):
		r.next++
		return r.TerminalImage(), true
	default:
		clue := r.clues[r.next]
		r.next++
		return clue, true
	}
}

// Published is the number of clues handed out so far (1-based index of the last one).
func (r *Round) Published() int {
	if r.next > r.Total() {
		return r.Total()
	}
	return r.next
}

// Total is the number of clues of the round, the terminal image included.
func (r *Round) Total() int { return len(r.clues) + 1 }

// IsCorrect reports whether text contains one of the accepted answers.
func (r *Round) IsCorrect(text string) bool { return r.choice.Question.Check(text) }

// Solution returns the game title.
func (r *Round) Solution() string { return r.choice.Question.Title }

// TerminalImage is the original, fully revealed screenshot.
func (r *Round) TerminalImage() string { return r.choice.Image }

// Choice returns the question and screenshot of the round.
func (r *Round) Choice() Choice { return r.choice }

// Clues returns the generated clue files.
func (r *Round) Clues() []string { return r.clues }

// Dispose deletes the generated clue files. The terminal image is never removed.
// Calling it more than once is a no-op.
func (r *Round) Dispose() error {
	if r.disposed {
		return nil
	}
	r.disposed = true

	log.Info().Int("clues", len(r.clues)).Msg("deleting clue images")
	var errs []error
	for _, p := range r.clues {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		log.Debug().Str("path", p).Msg("deleted clue")
	}
	return errors.Join(errs...)
}
