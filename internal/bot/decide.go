// internal/bot/decide.go
//
// The CHECK_RESPONSES decision.
// Responsibilities:
//   - Pick the next state from admin commands, a reply batch and the clock.
//   - Report the command applied and the first correct reply.
//
// Notes:
//   - No I/O besides logging.

package bot

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/usobak/mastodon-image-quiz-bot/internal/social"
)

// answerChecker is the part of a round needed to judge replies.
type answerChecker interface {
	IsCorrect(text string) bool
}

// checkInput is everything CHECK_RESPONSES looks at.
type checkInput struct {
	admin      []Command
	replies    []social.Reply
	owner      string
	active     map[string]struct{}
	round      answerChecker
	lastClueAt time.Time
	now        time.Time
	clueDelay  time.Duration
}

// verdict is the outcome of CHECK_RESPONSES.
type verdict struct {
	next    State
	command Command
	winner  *social.Reply
}

// decide picks the next state after a reply batch.
//
// Priority: owner commands, then a correct reply to an active clue post, then
// the clue delay. Owner commands come from the admin queue and from the batch
// (the scan stops at the first one); the strongest of them is applied, in
// \die, \solution_found, \finish, \next order. Replies to posts that are not
// active are ignored.
func decide(in checkInput) verdict {
	var (
		winner   *social.Reply
		replyCmd Command
	)
	for i := range in.replies {
		r := in.replies[i]
		if in.owner != "" && r.AuthorID == in.owner {
			if cmd, ok := ParseCommand(r.Text); ok {
				log.Info().Str("command", cmd.String()).Msg("found owner command")
				replyCmd = cmd
				break
			}
		}

		if _, ok := in.active[r.InReplyToID]; !ok {
			log.Debug().Str("post_id", r.PostID).Str("in_reply_to", r.InReplyToID).Msg("reply not in current round posts")
			continue
		}
		if in.round.IsCorrect(r.Text) {
			log.Info().Str("post_id", r.PostID).Str("author", r.AuthorID).Msg("correct reply")
			if winner == nil {
				winner = &r
			}
			continue
		}
		log.Debug().Str("post_id", r.PostID).Msg("wrong reply")
	}

	pending := append(append([]Command(nil), in.admin...), replyCmd)
	if cmd := strongest(pending); cmd != CommandNone {
		for _, c := range pending {
			if c != CommandNone && c != cmd {
				log.Warn().Str("command", c.String()).Str("applied", cmd.String()).Msg("owner command superseded")
			}
		}
		return verdict{next: cmd.Target(), command: cmd}
	}

	switch {
	case winner != nil:
		return verdict{next: StateSolutionFound, winner: winner}
	case in.now.Sub(in.lastClueAt) > in.clueDelay:
		return verdict{next: StateNewClue}
	default:
		return verdict{next: StateWait}
	}
}
