package forum

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Actions dispatches outbound intents. Every intent is idempotent: posting
// the same content where it already exists is a no-op. In dry-run mode
// nothing is sent; the would-be content is still computed and logged.
type Actions struct {
	client Client
	dryRun bool
}

func NewActions(client Client, dryRun bool) *Actions {
	return &Actions{client: client, dryRun: dryRun}
}

// Reply posts an acknowledgement under parent and returns the new comment
// id. In dry-run mode the id is empty.
func (a *Actions) Reply(ctx context.Context, parentID, body string) (string, error) {
	log.Info().Str("parent", parentID).Msgf("reply: %s", body)
	if a.dryRun {
		return "", nil
	}
	return a.client.Reply(ctx, parentID, body)
}

// UpsertStatus creates or updates the bot's status comment for a post.
// When the existing body already matches the new content nothing is sent.
func (a *Actions) UpsertStatus(ctx context.Context, url string, existing *Comment, body string) error {
	if existing == nil {
		log.Info().Str("url", url).Msgf("new status comment: %s", body)
		if a.dryRun {
			return nil
		}
		_, err := a.client.PostComment(ctx, url, body)
		return err
	}
	if strings.TrimSpace(existing.Body) == strings.TrimSpace(body) {
		return nil
	}
	log.Info().Str("comment", existing.ID).Msgf("updating status comment: %s", body)
	if a.dryRun {
		return nil
	}
	return a.client.EditComment(ctx, existing.ID, body)
}

// Notify sends a direct message to a user.
func (a *Actions) Notify(ctx context.Context, user, subject, body string) error {
	log.Info().Str("user", user).Str("subject", subject).Msgf("notify: %s", body)
	if a.dryRun {
		return nil
	}
	return a.client.SendMessage(ctx, user, subject, body)
}
