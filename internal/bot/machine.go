// internal/bot/machine.go
//
// The quiz state machine.
// Responsibilities:
//   - START:            load the round history.
//   - NEW_ROUND:        load the dataset, pick a question, render its clues.
//   - NEW_CLUE:         publish the next clue, or finish the round when none is left.
//   - WAIT:             sleep for the check interval.
//   - CHECK_RESPONSES:  owner commands, then answers, then the clue delay.
//   - SOLUTION_FOUND /
//     FINISH_ROUND:     publish the solution, record history, delete the clues.
//   - FINISH_EXECUTION: stop.
//
// Notes:
//   - One state runs at a time; WAIT is the only place the loop blocks on a timer.
//   - Errors from any state are fatal: Run disposes the active round and returns them.

package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/usobak/mastodon-image-quiz-bot/internal/archive"
	"github.com/usobak/mastodon-image-quiz-bot/internal/messages"
	"github.com/usobak/mastodon-image-quiz-bot/internal/metrics"
	"github.com/usobak/mastodon-image-quiz-bot/internal/quiz"
	"github.com/usobak/mastodon-image-quiz-bot/internal/social"
)

const (
	DefaultClueDelay     = 2 * time.Hour
	DefaultCheckInterval = 5 * time.Minute

	commandQueueSize = 8
)

// Config holds the pacing and the owner identity.
type Config struct {
	Owner         string
	ClueDelay     time.Duration
	CheckInterval time.Duration
}

// Dataset returns the candidate questions for a new round.
type Dataset func() ([]quiz.Question, error)

// Picker chooses the question of the next round.
type Picker interface {
	Pick(candidates []quiz.Question) (quiz.Choice, error)
}

// RoundBuilder renders the clues of a round.
type RoundBuilder interface {
	Build(choice quiz.Choice) (*quiz.Round, error)
}

// History is the durable record of used screenshots.
type History interface {
	Load()
	Record(ref string) error
}

// Recorder archives finished rounds.
type Recorder interface {
	RecordRound(ctx context.Context, r archive.Round) error
}

// Deps are the collaborators of the machine. Archive and Metrics are optional.
type Deps struct {
	Client   social.Client
	Dataset  Dataset
	Selector Picker
	Builder  RoundBuilder
	History  History
	Messages *messages.Templates
	Archive  Recorder
	Metrics  *metrics.Metrics

	// Now and Wait default to the wall clock.
	Now  func() time.Time
	Wait func(ctx context.Context, d time.Duration) error
}

// Machine runs the quiz.
type Machine struct {
	cfg      Config
	deps     Deps
	commands chan Command

	mu             sync.RWMutex
	state          State
	round          *quiz.Round
	active         map[string]struct{}
	lastClueAt     time.Time
	roundStartedAt time.Time
	winner         string
}

// New returns a machine in START.
func New(cfg Config, deps Deps) *Machine {
	if cfg.ClueDelay <= 0 {
		cfg.ClueDelay = DefaultClueDelay
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Wait == nil {
		deps.Wait = social.SleepContext
	}
	return &Machine{
		cfg:      cfg,
		deps:     deps,
		commands: make(chan Command, commandQueueSize),
		state:    StateStart,
		active:   make(map[string]struct{}),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Enqueue queues an owner command received out of band. It is applied at the
// next CHECK_RESPONSES. Returns false if the queue is full.
func (m *Machine) Enqueue(cmd Command) bool {
	select {
	case m.commands <- cmd:
		return true
	default:
		return false
	}
}

// Run steps until FINISH_EXECUTION (nil) or the first error.
func (m *Machine) Run(ctx context.Context) error {
	defer m.abortRound()

	for {
		if m.State().Terminal() {
			log.Info().Msg("received the command to shut down")
			return nil
		}
		if _, err := m.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs the handler of the current state and moves to the next one.
func (m *Machine) Step(ctx context.Context) (State, error) {
	current := m.State()
	log.Debug().Str("state", current.String()).Msg("current state")

	var (
		next State
		err  error
	)
	switch current {
	case StateStart:
		next, err = m.onStart()
	case StateNewRound:
		next, err = m.onNewRound()
	case StateNewClue:
		next, err = m.onNewClue(ctx)
	case StateWait:
		next, err = m.onWait(ctx)
	case StateCheckResponses:
		next, err = m.onCheckResponses(ctx)
	case StateSolutionFound:
		next, err = m.onFinish(ctx, archive.OutcomeSolved)
	case StateFinishRound:
		next, err = m.onFinish(ctx, archive.OutcomeUnsolved)
	case StateFinishExecution:
		return current, nil
	default:
		return current, errors.New("bot: unknown state " + current.String())
	}
	if err != nil {
		log.Error().Err(err).Str("state", current.String()).Msg("state failed")
		return current, err
	}

	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
	if next != current {
		m.deps.Metrics.State(current.String(), next.String())
	}
	return next, nil
}

func (m *Machine) onStart() (State, error) {
	m.deps.History.Load()
	return StateNewRound, nil
}

func (m *Machine) onNewRound() (State, error) {
	m.abortRound()

	questions, err := m.deps.Dataset()
	if err != nil {
		return 0, err
	}
	choice, err := m.deps.Selector.Pick(questions)
	if err != nil {
		return 0, err
	}
	round, err := m.deps.Builder.Build(choice)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.round = round
	m.active = make(map[string]struct{})
	m.roundStartedAt = m.deps.Now()
	m.lastClueAt = time.Time{}
	m.winner = ""
	m.mu.Unlock()

	m.deps.Metrics.RoundStarted()
	log.Info().Str("image", choice.Image).Int("clues", round.Total()).Msg("new round")
	return StateNewClue, nil
}

func (m *Machine) onNewClue(ctx context.Context) (State, error) {
	m.mu.Lock()
	clue, ok := m.round.NextClue()
	m.mu.Unlock()
	if !ok {
		log.Info().Msg("no more clues for this round")
		return StateFinishRound, nil
	}

	msg, err := m.deps.Messages.Clue(m.round.Published(), m.round.Total())
	if err != nil {
		return 0, err
	}
	postID, err := m.deps.Client.Publish(ctx, msg, clue)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.active[postID] = struct{}{}
	m.lastClueAt = m.deps.Now()
	m.mu.Unlock()

	m.deps.Metrics.CluePublished()
	log.Info().
		Str("post_id", postID).
		Int("clue", m.round.Published()).
		Int("total", m.round.Total()).
		Msg("clue published")
	return StateWait, nil
}

func (m *Machine) onWait(ctx context.Context) (State, error) {
	log.Info().Dur("interval", m.cfg.CheckInterval).Msg("waiting")
	if err := m.deps.Wait(ctx, m.cfg.CheckInterval); err != nil {
		return 0, err
	}
	return StateCheckResponses, nil
}

func (m *Machine) onCheckResponses(ctx context.Context) (State, error) {
	admin := m.drainCommands()

	log.Info().Msg("checking for responses")
	replies, err := m.deps.Client.FetchReplies(ctx)
	if err != nil {
		return 0, err
	}
	log.Debug().Int("replies", len(replies)).Msg("received replies")
	m.deps.Metrics.RepliesChecked(len(replies))

	m.mu.RLock()
	in := checkInput{
		admin:      admin,
		replies:    replies,
		owner:      m.cfg.Owner,
		active:     m.active,
		round:      m.round,
		lastClueAt: m.lastClueAt,
		now:        m.deps.Now(),
		clueDelay:  m.cfg.ClueDelay,
	}
	m.mu.RUnlock()

	v := decide(in)
	if v.command != CommandNone {
		m.deps.Metrics.OwnerCommand(v.command.String())
	}
	if v.winner != nil {
		m.mu.Lock()
		m.winner = v.winner.AuthorID
		m.mu.Unlock()
	}
	return v.next, nil
}

// onFinish closes the round: publish the solution with the full screenshot,
// remember it, delete the clues.
func (m *Machine) onFinish(ctx context.Context, outcome archive.Outcome) (State, error) {
	round := m.round
	if round == nil {
		return StateNewRound, nil
	}

	var (
		msg string
		err error
	)
	if outcome == archive.OutcomeSolved {
		msg, err = m.deps.Messages.SolutionFound(round.Solution())
	} else {
		msg, err = m.deps.Messages.SolutionNotFound(round.Solution())
	}
	if err != nil {
		return 0, err
	}
	if _, err := m.deps.Client.Publish(ctx, msg, round.TerminalImage()); err != nil {
		return 0, err
	}
	if err := m.deps.History.Record(round.TerminalImage()); err != nil {
		return 0, err
	}

	m.mu.Lock()
	rec := archive.Round{
		Title:          round.Solution(),
		Image:          round.TerminalImage(),
		Outcome:        outcome,
		CluesPublished: round.Published(),
		CluesTotal:     round.Total(),
		Winner:         m.winner,
		StartedAt:      m.roundStartedAt,
		FinishedAt:     m.deps.Now(),
	}
	m.mu.Unlock()

	m.disposeRound()
	m.deps.Metrics.RoundFinished(string(outcome))
	if m.deps.Archive != nil {
		if err := m.deps.Archive.RecordRound(ctx, rec); err != nil {
			log.Warn().Err(err).Msg("archive round")
		}
	}
	log.Info().Str("outcome", string(outcome)).Str("title", rec.Title).Msg("round finished")
	return StateNewRound, nil
}

func (m *Machine) drainCommands() []Command {
	var cmds []Command
	for {
		select {
		case c := <-m.commands:
			cmds = append(cmds, c)
		default:
			return cmds
		}
	}
}

// disposeRound deletes the clue files of the active round and forgets it.
func (m *Machine) disposeRound() {
	m.mu.Lock()
	round := m.round
	m.round = nil
	m.active = make(map[string]struct{})
	m.mu.Unlock()

	if round == nil {
		return
	}
	if err := round.Dispose(); err != nil {
		log.Error().Err(err).Msg("delete clue images")
	}
}

// abortRound drops an unfinished round without touching the history.
func (m *Machine) abortRound() {
	m.mu.RLock()
	active := m.round != nil
	m.mu.RUnlock()
	if active {
		log.Info().Msg("aborting active round")
		m.disposeRound()
	}
}
