// internal/quiz/types.go
//
// Core type definitions for the image quiz.
// Defines:
//   - Question: one dataset entry (title, screenshots, accepted answers).
//   - Choice: a question plus the screenshot picked for a round.

package quiz

import (
	"errors"
	"math/rand/v2"
	"strings"
)

// ErrInvalidDefinition marks a dataset file that cannot be used. It is fatal.
var ErrInvalidDefinition = errors.New("quiz: invalid question definition")

// Question is immutable once loaded.
type Question struct {
	Title   string   // Full title, published with the solution.
	Images  []string // Candidate screenshot paths.
	Answers []string // Accepted answers, normalized.
	Source  string   // Definition file the question came from.
}

// Choice is the question selected for a round and the screenshot it will use.
type Choice struct {
	Question Question
	Image    string
}

// NewQuestion normalizes answers. A nil or empty answer list is allowed: no
// reply will ever match it.
func NewQuestion(title string, images, answers []string) Question {
	q := Question{Title: title, Images: images}
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		a = Normalize(a)
		// a blank answer is a substring of every reply
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		q.Answers = append(q.Answers, a)
	}
	return q
}

// Check reports whether text contains any accepted answer.
func (q Question) Check(text string) bool {
	text = Normalize(text)
	for _, a := range q.Answers {
		if strings.Contains(text, a) {
			return true
		}
	}
	return false
}

// ChooseImage picks one of the candidate screenshots uniformly at random.
func (q Question) ChooseImage(rng *rand.Rand) Choice {
	return Choice{Question: q, Image: q.Images[rng.IntN(len(q.Images))]}
}

// Normalize lowercases and trims s.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
