// internal/social/mastodon.go
//
// Live Mastodon client.
//   - Publish: upload the image, then post a status referencing the media id.
//   - FetchReplies: page through the notifications, keep the mentions, then
//     dismiss exactly the notifications that were read.
//
// Every API call waits on a rate limiter first; retries are not handled here
// (wrap the client with Retrying).

package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-mastodon"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultVisibility = "public"

	mentionType = "mention"

	notificationPageSize = 40
	maxNotificationPages = 10
)

// api is the subset of *mastodon.Client we use.
type api interface {
	UploadMedia(ctx context.Context, file string) (*mastodon.Attachment, error)
	PostStatus(ctx context.Context, toot *mastodon.Toot) (*mastodon.Status, error)
	GetNotifications(ctx context.Context, pg *mastodon.Pagination) ([]*mastodon.Notification, error)
	DismissNotification(ctx context.Context, id mastodon.ID) error
}

// MastodonConfig holds the connection settings.
type MastodonConfig struct {
	Endpoint   string
	Token      string
	Visibility string
	// Limit paces API calls. Zero means one call per second, burst of 5.
	Limit rate.Limit
	Burst int
}

// Mastodon talks to a Mastodon instance.
type Mastodon struct {
	api        api
	visibility string
	limiter    *rate.Limiter
}

// NewMastodon builds a client from cfg.
func NewMastodon(cfg MastodonConfig) (*Mastodon, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mastodon endpoint required")
	}
	if cfg.Token == "" {
		return nil, errors.New("mastodon token required")
	}
	c := mastodon.NewClient(&mastodon.Config{
		Server:      cfg.Endpoint,
		AccessToken: cfg.Token,
	})
	return newMastodon(c, cfg), nil
}

func newMastodon(c api, cfg MastodonConfig) *Mastodon {
	if cfg.Visibility == "" {
		cfg.Visibility = DefaultVisibility
	}
	if cfg.Limit == 0 {
		cfg.Limit = rate.Every(time.Second)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Mastodon{
		api:        c,
		visibility: cfg.Visibility,
		limiter:    rate.NewLimiter(cfg.Limit, cfg.Burst),
	}
}

func (m *Mastodon) Publish(ctx context.Context, message, imagePath string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", err
	}
	media, err := m.api.UploadMedia(ctx, imagePath)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", imagePath, err)
	}
	log.Info().Str("media_id", string(media.ID)).Msg("uploaded media")

	if err := m.limiter.Wait(ctx); err != nil {
		return "", err
	}
	status, err := m.api.PostStatus(ctx, &mastodon.Toot{
		Status:     message,
		MediaIDs:   []mastodon.ID{media.ID},
		Visibility: m.visibility,
	})
	if err != nil {
		return "", fmt.Errorf("post status: %w", err)
	}
	log.Info().Str("post_id", string(status.ID)).Msg("published post")
	return string(status.ID), nil
}

// FetchReplies returns the pending mentions, oldest first. Notifications that
// arrive while it runs, or beyond maxNotificationPages, stay on the server for
// the next call.
func (m *Mastodon) FetchReplies(ctx context.Context) ([]Reply, error) {
	var (
		read  []*mastodon.Notification
		maxID mastodon.ID
	)
	for page := 0; page < maxNotificationPages; page++ {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		batch, err := m.api.GetNotifications(ctx, &mastodon.Pagination{MaxID: maxID, Limit: notificationPageSize})
		if err != nil {
			return nil, fmt.Errorf("get notifications: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		read = append(read, batch...)
		maxID = batch[len(batch)-1].ID
	}

	// pages are newest first
	replies := make([]Reply, 0, len(read))
	for i := len(read) - 1; i >= 0; i-- {
		n := read[i]
		if n.Type != mentionType || n.Status == nil {
			continue
		}
		replies = append(replies, toReply(n.Status))
	}
	log.Info().Int("notifications", len(read)).Int("replies", len(replies)).Msg("found new mentions")

	m.dismiss(ctx, read)
	return replies, nil
}

// dismiss removes the given notifications. A failure leaves the rest on the
// server; they are read again by the next FetchReplies.
func (m *Mastodon) dismiss(ctx context.Context, notifications []*mastodon.Notification) {
	for _, n := range notifications {
		if err := m.limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("dismiss notifications interrupted")
			return
		}
		if err := m.api.DismissNotification(ctx, n.ID); err != nil {
			log.Warn().Err(err).Str("notification_id", string(n.ID)).Msg("dismiss notification")
			return
		}
	}
	log.Debug().Int("notifications", len(notifications)).Msg("notifications dismissed")
}

func toReply(s *mastodon.Status) Reply {
	r := Reply{
		PostID:   string(s.ID),
		AuthorID: s.Account.Acct,
		Text:     PlainText(s.Content),
	}
	switch v := s.InReplyToID.(type) {
	case nil:
	case string:
		r.InReplyToID = v
	case mastodon.ID:
		r.InReplyToID = string(v)
	default:
		r.InReplyToID = fmt.Sprint(v)
	}
	return r
}
