// Package selector picks the question for the next round.
package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog/log"

	"github.com/usobak/mastodon-image-quiz-bot/internal/quiz"
)

var (
	// ErrNoCandidates means the dataset is empty. It must not be retried.
	ErrNoCandidates = errors.New("selector: unable to find any question")

	// ErrSelectionExhausted means every draw hit the history, which only happens
	// when screenshots are shared between questions.
	ErrSelectionExhausted = errors.New("selector: no question outside the history")
)

// drawsPerCandidate bounds the re-draw loop.
const drawsPerCandidate = 100

// History is the part of the round history the selector needs.
type History interface {
	Contains(ref string) bool
}

// Selector draws questions uniformly at random.
type Selector struct {
	History     History
	HistorySize int
	Rand        *rand.Rand
}

// Pick returns a random question and its screenshot.
//
// Repeat avoidance only kicks in when the pool is strictly larger than the
// history: with a smaller pool every draw is a plain uniform draw and repeats
// are allowed.
func (s *Selector) Pick(candidates []quiz.Question) (quiz.Choice, error) {
	if len(candidates) == 0 {
		return quiz.Choice{}, ErrNoCandidates
	}

	choice := s.draw(candidates)
	if len(candidates) <= s.HistorySize {
		log.Debug().Str("image", choice.Image).Msg("selected question (no repeat avoidance)")
		return choice, nil
	}

	for n := 1; s.History.Contains(choice.Image); n++ {
		if n >= drawsPerCandidate*len(candidates) {
			return quiz.Choice{}, fmt.Errorf("%w after %d draws", ErrSelectionExhausted, n)
		}
		log.Debug().Str("image", choice.Image).Msg("repeated question")
		choice = s.draw(candidates)
	}
	log.Debug().Str("image", choice.Image).Msg("selected question")
	return choice, nil
}

func (s *Selector) draw(candidates []quiz.Question) quiz.Choice {
	return candidates[s.Rand.IntN(len(candidates))].ChooseImage(s.Rand)
}
