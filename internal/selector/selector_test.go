package selector

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usobak/mastodon-image-quiz-bot/internal/quiz"
)

type setHistory map[string]bool

func (h setHistory) Contains(ref string) bool { return h[ref] }

func pool(n int) []quiz.Question {
	qs := make([]quiz.Question, n)
	for i := range qs {
		qs[i] = quiz.NewQuestion(fmt.Sprintf("Q%d", i), []string{fmt.Sprintf("q%d.png", i)}, nil)
	}
	return qs
}

func TestPick_Empty(t *testing.T) {
	s := &Selector{History: setHistory{}, HistorySize: 50, Rand: rand.New(rand.NewPCG(1, 1))}
	_, err := s.Pick(nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestPick_AvoidsHistoryWhenPoolIsLarger(t *testing.T) {
	const size = 5
	qs := pool(size + 1)
	hist := setHistory{}
	for i := 0; i < size; i++ {
		hist[fmt.Sprintf("q%d.png", i)] = true
	}

	s := &Selector{History: hist, HistorySize: size, Rand: rand.New(rand.NewPCG(9, 9))}
	for i := 0; i < 200; i++ {
		c, err := s.Pick(qs)
		require.NoError(t, err)
		assert.Equal(t, "q5.png", c.Image)
	}
}

func TestPick_AllowsRepeatsWhenPoolIsSmall(t *testing.T) {
	const size = 5
	qs := pool(size)
	hist := setHistory{}
	for i := 0; i < size; i++ {
		hist[fmt.Sprintf("q%d.png", i)] = true
	}

	s := &Selector{History: hist, HistorySize: size, Rand: rand.New(rand.NewPCG(2, 3))}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		c, err := s.Pick(qs)
		require.NoError(t, err)
		assert.True(t, hist.Contains(c.Image))
		seen[c.Image] = true
	}
	assert.Len(t, seen, size, "plain uniform draw covers the whole pool")
}

func TestPick_DeterministicWithSeed(t *testing.T) {
	qs := pool(20)
	a := &Selector{History: setHistory{}, HistorySize: 5, Rand: rand.New(rand.NewPCG(4, 2))}
	b := &Selector{History: setHistory{}, HistorySize: 5, Rand: rand.New(rand.NewPCG(4, 2))}
	for i := 0; i < 20; i++ {
		ca, err := a.Pick(qs)
		require.NoError(t, err)
		cb, err := b.Pick(qs)
		require.NoError(t, err)
		assert.Equal(t, ca, cb)
	}
}

func TestPick_SharedImagesExhaust(t *testing.T) {
	qs := make([]quiz.Question, 3)
	for i := range qs {
		qs[i] = quiz.NewQuestion(fmt.Sprintf("Q%d", i), []string{"same.png"}, nil)
	}
	s := &Selector{History: setHistory{"same.png": true}, HistorySize: 1, Rand: rand.New(rand.NewPCG(1, 1))}
	_, err := s.Pick(qs)
	assert.ErrorIs(t, err, ErrSelectionExhausted)
}
