// Package forum is the boundary to the discussion platform. The engine
// consumes it through two inbound capabilities (inbox listing and recursive
// comment-tree expansion) and a small set of idempotent outbound intents.
package forum

import "context"

// Message is one private message in the bot's inbox.
type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"created_at"`
}

// Comment is one node of a threaded discussion. Deferred children arrive as
// stub nodes carrying only their identifier until expanded. A deleted
// comment has an empty Author.
type Comment struct {
	ID        string     `json:"id"`
	Author    string     `json:"author,omitempty"`
	Body      string     `json:"body,omitempty"`
	BodyHTML  string     `json:"body_html,omitempty"`
	CreatedAt int64      `json:"created_at"`
	EditedAt  int64      `json:"edited_at,omitempty"`
	Stub      bool       `json:"stub,omitempty"`
	Replies   []*Comment `json:"replies,omitempty"`
}

// EffectiveTime is when the comment last changed: the edit time, or the
// creation time if it was never edited.
func (c *Comment) EffectiveTime() int64 {
	if c.EditedAt != 0 {
		return c.EditedAt
	}
	return c.CreatedAt
}

// Client is the platform API surface the bot depends on.
type Client interface {
	// Inbox lists the bot's private messages, newest first.
	Inbox(ctx context.Context) ([]Message, error)
	// Submission returns the top-level comments of the post at url.
	Submission(ctx context.Context, url string) ([]*Comment, error)
	// Expand resolves a stub node into its comment subtree.
	Expand(ctx context.Context, id string) ([]*Comment, error)
	// Reply posts a reply under a comment and returns the new comment id.
	Reply(ctx context.Context, parentID, body string) (string, error)
	// EditComment replaces the body of one of the bot's own comments.
	EditComment(ctx context.Context, id, body string) error
	// PostComment adds a new top-level comment to the post at url and
	// returns its id.
	PostComment(ctx context.Context, url, body string) (string, error)
	// SendMessage delivers a private message to a user.
	SendMessage(ctx context.Context, to, subject, body string) error
	// UserDisplayName resolves the canonical display form of a user name.
	UserDisplayName(ctx context.Context, name string) (string, error)
}
