// internal/social/client.go
//
// Social network collaborator of the quiz.
// The bot only needs two calls: publish a post with one image and fetch the
// replies received since the last fetch.
//
// Implementations:
//   - Mastodon: live client (media upload + status post, mention notifications).
//   - DryRun:   logs instead of publishing; used unless --no-dry-run is given.
//   - Retrying: wraps any Client with an explicit RetryPolicy.

package social

import (
	"context"
	"fmt"
)

// Reply is one mention received by the bot.
type Reply struct {
	PostID      string
	InReplyToID string
	AuthorID    string
	Text        string
}

func (r Reply) String() string {
	return fmt.Sprintf("Reply(%s, %s, %s, %q)", r.PostID, r.AuthorID, r.InReplyToID, r.Text)
}

// Client publishes clues and collects replies.
type Client interface {
	// Publish posts message with the image at imagePath and returns the post id.
	Publish(ctx context.Context, message, imagePath string) (string, error)

	// FetchReplies returns pending replies, oldest first, and marks them as
	// consumed so they are never returned twice.
	FetchReplies(ctx context.Context) ([]Reply, error)
}
