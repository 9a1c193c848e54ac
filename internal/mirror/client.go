package mirror

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/oauth2"

	"operation-list/internal/config"
	"operation-list/internal/logger"
)

// ErrRemoteMissing is returned by Pull when the file does not exist upstream.
var ErrRemoteMissing = errors.New("remote archive not found")

var defaultRetryDelays = []time.Duration{500 * time.Millisecond, 2 * time.Second, 8 * time.Second}

// APIError is a non-success answer from the contents API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %d %s", e.Status, e.Message)
}

// retryable reports whether a failed call may succeed when repeated: server
// errors, and sha conflicts from a concurrent commit.
func retryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusConflict || apiErr.Status == http.StatusTooManyRequests
	}
	return !errors.Is(err, ErrRemoteMissing) && !errors.Is(err, context.Canceled)
}

// Client talks to the GitHub contents API of one repository branch.
type Client struct {
	http        *http.Client
	apiURL      string
	rawURL      string
	owner       string
	repo        string
	branch      string
	retryDelays []time.Duration
	lggr        logger.Logger
}

type ClientOption func(*Client)

// WithRetryDelays replaces the delays between attempts; the number of delays
// bounds the number of retries.
func WithRetryDelays(delays ...time.Duration) ClientOption {
	return func(c *Client) { c.retryDelays = delays }
}

// WithHTTPClient replaces the token-authenticated default client. The caller
// is then responsible for authentication.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func NewClient(cfg config.MirrorConfig, lggr logger.Logger, opts ...ClientOption) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	c := &Client{
		http:        oauth2.NewClient(context.Background(), src),
		apiURL:      strings.TrimRight(cfg.APIURL, "/"),
		rawURL:      strings.TrimRight(cfg.RawURL, "/"),
		owner:       cfg.Owner,
		repo:        cfg.Repo,
		branch:      cfg.Branch,
		retryDelays: defaultRetryDelays,
		lggr:        lggr.Named("mirror"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func (c *Client) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.apiURL, url.PathEscape(c.owner), url.PathEscape(c.repo), escapePath(path))
}

func (c *Client) do(ctx context.Context, call func(ctx context.Context) error) error {
	return retry.Do(
		func() error { return call(ctx) },
		retry.Context(ctx),
		retry.Attempts(uint(len(c.retryDelays)+1)),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			if len(c.retryDelays) == 0 {
				return 0
			}
			return c.retryDelays[min(int(n), len(c.retryDelays)-1)]
		}),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.lggr.Warnw("retrying github call", "attempt", n+1, "err", err)
		}),
	)
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: body.Message}
}

// sha returns the blob sha of path on the branch, or "" when the file is new.
func (c *Client) sha(ctx context.Context, path string) (string, error) {
	target := c.contentsURL(path) + "?ref=" + url.QueryEscape(c.branch)
	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			SHA string `json:"sha"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("decode contents: %w", err)
		}
		return body.SHA, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", decodeAPIError(resp)
	}
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// Push commits content to path on the branch, creating or updating the file.
func (c *Client) Push(ctx context.Context, path string, content []byte, message string) error {
	err := c.do(ctx, func(ctx context.Context) error {
		sha, err := c.sha(ctx, path)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(putRequest{
			Message: message,
			Content: base64.StdEncoding.EncodeToString(content),
			Branch:  c.branch,
			SHA:     sha,
		})
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req, err := c.newRequest(ctx, http.MethodPut, c.contentsURL(path), bytes.NewReader(payload))
		if err != nil {
			return retry.Unrecoverable(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return decodeAPIError(resp)
		}
		io.Copy(io.Discard, resp.Body)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push %s: %w", path, err)
	}
	c.lggr.Infow("archive pushed", "path", path, "branch", c.branch, "bytes", len(content))
	return nil
}

// Pull downloads the raw file at path on the branch.
func (c *Client) Pull(ctx context.Context, path string) ([]byte, error) {
	target := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawURL, url.PathEscape(c.owner), url.PathEscape(c.repo), url.PathEscape(c.branch), escapePath(path))
	var data []byte
	err := c.do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			data, err = io.ReadAll(resp.Body)
			return err
		case http.StatusNotFound:
			return ErrRemoteMissing
		default:
			return decodeAPIError(resp)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("pull %s: %w", path, err)
	}
	c.lggr.Infow("archive pulled", "path", path, "branch", c.branch, "bytes", len(data))
	return data, nil
}
