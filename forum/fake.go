package forum

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Client for tests. Inbox messages and comment trees
// are scripted; outbound intents are recorded.
type Fake struct {
	mu sync.Mutex

	Messages    []Message
	Posts       map[string][]*Comment // url -> top-level comments
	Children    map[string][]*Comment // stub id -> expansion
	DeadStubs   map[string]bool       // stub id -> always fail expansion
	Names       map[string]string     // lower name -> display name
	ExpandCalls map[string]int

	// BotName is stamped as the author of posted replies and comments so
	// a later walk of the tree attributes them to the bot.
	BotName string

	Replies  []FakeReply
	Edits    []FakeEdit
	Sent     []FakeMessage
	nextID   int
	idPrefix string
}

type FakeReply struct {
	Parent string
	Body   string
	ID     string
}

type FakeEdit struct {
	ID   string
	Body string
}

type FakeMessage struct {
	To      string
	Subject string
	Body    string
}

func NewFake() *Fake {
	return &Fake{
		Posts:       map[string][]*Comment{},
		Children:    map[string][]*Comment{},
		DeadStubs:   map[string]bool{},
		Names:       map[string]string{},
		ExpandCalls: map[string]int{},
		idPrefix:    "fake",
	}
}

func (f *Fake) Inbox(ctx context.Context) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.Messages))
	copy(out, f.Messages)
	return out, nil
}

func (f *Fake) Submission(ctx context.Context, url string) ([]*Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comments, ok := f.Posts[url]
	if !ok {
		return nil, fmt.Errorf("no such post: %s", url)
	}
	return comments, nil
}

func (f *Fake) Expand(ctx context.Context, id string) ([]*Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ExpandCalls[id]++
	if f.DeadStubs[id] {
		return nil, fmt.Errorf("comment %s not available", id)
	}
	return f.Children[id], nil
}

func (f *Fake) Reply(ctx context.Context, parentID, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("%s-reply-%d", f.idPrefix, f.nextID)
	f.Replies = append(f.Replies, FakeReply{Parent: parentID, Body: body, ID: id})
	// Attach the reply so a later walk of the same tree finds it.
	if parent := findComment(f.Posts, parentID); parent != nil {
		parent.Replies = append(parent.Replies, &Comment{ID: id, Author: f.BotName, Body: body})
	}
	return id, nil
}

func (f *Fake) EditComment(ctx context.Context, id, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Edits = append(f.Edits, FakeEdit{ID: id, Body: body})
	return nil
}

func (f *Fake) PostComment(ctx context.Context, url, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("%s-post-%d", f.idPrefix, f.nextID)
	f.Posts[url] = append(f.Posts[url], &Comment{ID: id, Author: f.BotName, Body: body})
	return id, nil
}

func (f *Fake) SendMessage(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, FakeMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (f *Fake) UserDisplayName(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if display, ok := f.Names[name]; ok {
		return display, nil
	}
	return "", fmt.Errorf("no such user: %s", name)
}

func findComment(posts map[string][]*Comment, id string) *Comment {
	for _, roots := range posts {
		var stack []*Comment
		stack = append(stack, roots...)
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if c == nil {
				continue
			}
			if c.ID == id {
				return c
			}
			stack = append(stack, c.Replies...)
		}
	}
	return nil
}
