// internal/social/dryrun.go
//
// Offline client used unless --no-dry-run is given.
// Responsibilities:
//   - Publish: log the post, return increasing ids.
//   - FetchReplies: two replies to the last post that never match an answer.

package social

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// DryRun never talks to the network. Publish logs the post and hands out
// increasing ids; FetchReplies returns two replies to the last post that never
// match a real answer.
type DryRun struct {
	mu     sync.Mutex
	lastID int
}

func NewDryRun() *DryRun { return &DryRun{} }

func (d *DryRun) Publish(_ context.Context, message, imagePath string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastID++
	log.Info().Str("message", message).Str("image", imagePath).Int("post_id", d.lastID).Msg("dry run: publish")
	return strconv.Itoa(d.lastID), nil
}

func (d *DryRun) FetchReplies(_ context.Context) ([]Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastID == 0 {
		return nil, nil
	}
	last := strconv.Itoa(d.lastID)
	log.Info().Msg("dry run: returning fake replies")
	return []Reply{
		{PostID: "dry-1", InReplyToID: last, AuthorID: "dryrun", Text: "response 1"},
		{PostID: "dry-2", InReplyToID: last, AuthorID: "dryrun", Text: "stray"},
	}, nil
}
