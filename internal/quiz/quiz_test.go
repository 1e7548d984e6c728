package quiz

import (
	"image"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_Check(t *testing.T) {
	q := NewQuestion("Metroid Prime", []string{"mp.png"}, []string{"Metroid Prime", " MP "})

	tests := []struct {
		input string
		want  bool
	}{
		{"Metroid Prime!", true},
		{" mp ", true},
		{"I think it's MP", true},
		{"METROID PRIME", true},
		{"metroid", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, q.Check(tt.input))
		})
	}
}

func TestQuestion_NoAnswersNeverMatches(t *testing.T) {
	q := NewQuestion("Nothing", []string{"x.png"}, nil)
	assert.False(t, q.Check("anything"))
	assert.False(t, q.Check(""))

	blank := NewQuestion("Blank", []string{"x.png"}, []string{"   "})
	assert.Empty(t, blank.Answers)
	assert.False(t, blank.Check("anything"))
}

func TestQuestion_ChooseImage(t *testing.T) {
	q := NewQuestion("T", []string{"a.png", "b.png", "c.png"}, []string{"t"})
	rng := rand.New(rand.NewPCG(3, 4))

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		c := q.ChooseImage(rng)
		assert.Contains(t, q.Images, c.Image)
		seen[c.Image] = true
	}
	assert.Len(t, seen, 3)
}

func TestRound_NextClueSequence(t *testing.T) {
	choice := Choice{Question: NewQuestion("T", []string{"orig.png"}, nil), Image: "orig.png"}
	r := NewRound(choice, []string{"c1.png", "c2.png", "c3.png"})

	var got []string
	for {
		c, ok := r.NextClue()
		if !ok {
			break
		}
		got = append(got, c)
		assert.Equal(t, len(got), r.Published())
	}
	assert.Equal(t, []string{"c1.png", "c2.png", "c3.png", "orig.png"}, got)
	assert.Equal(t, 4, r.Total())

	for i := 0; i < 3; i++ {
		c, ok := r.NextClue()
		assert.False(t, ok)
		assert.Empty(t, c)
	}
	assert.Equal(t, 4, r.Published())
}

func TestRound_NoCluesOnlyTerminal(t *testing.T) {
	choice := Choice{Question: NewQuestion("T", []string{"orig.png"}, nil), Image: "orig.png"}
	r := NewRound(choice, nil)

	c, ok := r.NextClue()
	require.True(t, ok)
	assert.Equal(t, "orig.png", c)
	_, ok = r.NextClue()
	assert.False(t, ok)
}

func TestRound_DisposeKeepsTerminal(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "orig.png")
	clue := filepath.Join(dir, "clue.png")
	require.NoError(t, os.WriteFile(orig, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(clue, []byte("x"), 0o644))

	r := NewRound(Choice{Image: orig}, []string{clue})
	require.NoError(t, r.Dispose())
	require.NoError(t, r.Dispose())

	assert.NoFileExists(t, clue)
	assert.FileExists(t, orig)
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func TestLoadQuestions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mp.json"), []byte(`{
		"title": "Metroid Prime",
		"filepaths": ["img/mp1.png", "img/mp2.png"],
		"valid_responses": ["Metroid Prime", "mp"]
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	qs, err := LoadQuestions(dir)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Metroid Prime", qs[0].Title)
	assert.Equal(t, []string{filepath.Join(dir, "img/mp1.png"), filepath.Join(dir, "img/mp2.png")}, qs[0].Images)
	assert.Equal(t, []string{"metroid prime", "mp"}, qs[0].Answers)
}

func TestLoadQuestions_Malformed(t *testing.T) {
	tests := map[string]string{
		"bad json":        `{"title": `,
		"missing title":   `{"filepaths": ["a.png"], "valid_responses": []}`,
		"missing files":   `{"title": "x", "valid_responses": []}`,
		"missing answers": `{"title": "x", "filepaths": ["a.png"]}`,
		"no images":       `{"title": "x", "filepaths": [], "valid_responses": []}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "good.json"),
				[]byte(`{"title": "ok", "filepaths": ["a.png"], "valid_responses": ["ok"]}`), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "q.json"), []byte(body), 0o644))

			_, err := LoadQuestions(dir)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestCheckImages(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	writeTestPNG(t, good, 8, 6)

	assert.NoError(t, CheckImages([]Question{NewQuestion("ok", []string{good}, nil)}))

	err := CheckImages([]Question{NewQuestion("missing", []string{filepath.Join(dir, "nope.png")}, nil)})
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestBuilder_Build(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "shot.png")
	writeTestPNG(t, src, 40, 30)

	out := filepath.Join(dir, "output")
	b := &Builder{OutputDir: out, Rows: 3, Cols: 4, Rand: rand.New(rand.NewPCG(1, 1))}
	choice := Choice{Question: NewQuestion("Shot", []string{src}, []string{"shot"}), Image: src}

	r, err := b.Build(choice)
	require.NoError(t, err)
	require.Len(t, r.Clues(), 11)
	for _, c := range r.Clues() {
		assert.FileExists(t, c)
		assert.Equal(t, out, filepath.Dir(c))
	}
	assert.Equal(t, 12, r.Total())
	assert.Equal(t, src, r.TerminalImage())
	assert.Equal(t, "Shot", r.Solution())

	require.NoError(t, r.Dispose())
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.FileExists(t, src)
}

func TestBuilder_BuildUndecodable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	b := &Builder{OutputDir: filepath.Join(dir, "out"), Rows: 3, Cols: 4, Rand: rand.New(rand.NewPCG(1, 1))}
	_, err := b.Build(Choice{Image: src})
	assert.Error(t, err)
}
