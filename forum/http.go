package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient talks to a forum platform over its JSON API. Authentication is
// a bearer token; session management beyond that is the platform's problem.
type HTTPClient struct {
	base  string
	token string
	http  *http.Client
}

func NewHTTPClient(base, token string) *HTTPClient {
	return &HTTPClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) Inbox(ctx context.Context) ([]Message, error) {
	var out []Message
	if err := c.get(ctx, "/api/inbox", &out); err != nil {
		return nil, fmt.Errorf("listing inbox: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) Submission(ctx context.Context, postURL string) ([]*Comment, error) {
	var out []*Comment
	path := "/api/comments?post=" + url.QueryEscape(postURL)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("fetching comments for %s: %w", postURL, err)
	}
	return out, nil
}

func (c *HTTPClient) Expand(ctx context.Context, id string) ([]*Comment, error) {
	var out []*Comment
	if err := c.get(ctx, "/api/morechildren?id="+url.QueryEscape(id), &out); err != nil {
		return nil, fmt.Errorf("expanding comment %s: %w", id, err)
	}
	return out, nil
}

func (c *HTTPClient) Reply(ctx context.Context, parentID, body string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	req := map[string]string{"parent": parentID, "body": body}
	if err := c.post(ctx, "/api/reply", req, &out); err != nil {
		return "", fmt.Errorf("replying to %s: %w", parentID, err)
	}
	return out.ID, nil
}

func (c *HTTPClient) EditComment(ctx context.Context, id, body string) error {
	req := map[string]string{"id": id, "body": body}
	if err := c.post(ctx, "/api/edit", req, nil); err != nil {
		return fmt.Errorf("editing comment %s: %w", id, err)
	}
	return nil
}

func (c *HTTPClient) PostComment(ctx context.Context, postURL, body string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	req := map[string]string{"post": postURL, "body": body}
	if err := c.post(ctx, "/api/comment", req, &out); err != nil {
		return "", fmt.Errorf("commenting on %s: %w", postURL, err)
	}
	return out.ID, nil
}

func (c *HTTPClient) SendMessage(ctx context.Context, to, subject, body string) error {
	req := map[string]string{"to": to, "subject": subject, "body": body}
	if err := c.post(ctx, "/api/message", req, nil); err != nil {
		return fmt.Errorf("messaging %s: %w", to, err)
	}
	return nil
}

func (c *HTTPClient) UserDisplayName(ctx context.Context, name string) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/api/user?name="+url.QueryEscape(name), &out); err != nil {
		return "", fmt.Errorf("resolving user %s: %w", name, err)
	}
	return out.Name, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
