package forum

import (
	"context"

	"github.com/rs/zerolog/log"
)

// expandAttempts bounds how often a stub subtree is fetched before the
// loader gives up on it for the rest of the run.
const expandAttempts = 3

// Loader walks comment trees, expanding stub nodes on the way. Stubs whose
// expansion keeps failing are memoized per run and treated as empty, which
// keeps a permanently inaccessible subtree from triggering a retry storm.
// The memo is scoped to the Loader, not the process, so a restart retries.
type Loader struct {
	client Client
	dead   map[string]bool
}

func NewLoader(client Client) *Loader {
	return &Loader{client: client, dead: map[string]bool{}}
}

// Walk returns every real comment under roots in depth-first order,
// expanding stubs as it goes. Fetch failures degrade the affected subtree
// to empty; they never fail the walk.
func (l *Loader) Walk(ctx context.Context, roots []*Comment) []*Comment {
	var out []*Comment
	stack := make([]*Comment, len(roots))
	copy(stack, roots)
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c == nil {
			continue
		}
		if c.Stub {
			stack = append(stack, l.expand(ctx, c.ID)...)
			continue
		}
		out = append(out, c)
		stack = append(stack, c.Replies...)
	}
	return out
}

func (l *Loader) expand(ctx context.Context, id string) []*Comment {
	if l.dead[id] {
		return nil
	}
	var lastErr error
	for attempt := 0; attempt < expandAttempts; attempt++ {
		children, err := l.client.Expand(ctx, id)
		if err == nil {
			return children
		}
		lastErr = err
	}
	l.dead[id] = true
	log.Error().Err(lastErr).Str("comment", id).
		Msgf("could not expand comment after %d attempts, treating subtree as empty", expandAttempts)
	return nil
}
