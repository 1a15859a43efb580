package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/rentalchat-backend/internal/platform/httpx"
)

type Options struct {
	BaseURL string
	Token   string

	Timeout    time.Duration
	MaxRetries int

	HTTPClient *http.Client
}

// Client talks to the chat API as one authenticated user.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("token required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		timeout:    timeout,
		maxRetries: maxRetries,
		httpClient: hc,
	}, nil
}

func (c *Client) OpenThread(ctx context.Context, counterpartyID uuid.UUID) (uuid.UUID, bool, error) {
	var out struct {
		Status   string    `json:"status"`
		ThreadID uuid.UUID `json:"thread_id"`
	}
	body := map[string]any{"counterparty_id": counterpartyID}
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat/threads", body, &out); err != nil {
		return uuid.Nil, false, err
	}
	return out.ThreadID, out.Status == "created", nil
}

func (c *Client) ListThreads(ctx context.Context) ([]ThreadSummary, error) {
	var out struct {
		Threads []ThreadSummary `json:"threads"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/chat/threads", nil, &out); err != nil {
		return nil, err
	}
	return out.Threads, nil
}

// FetchPage returns up to one page older than beforeID, oldest first. A nil
// beforeID asks for the newest page.
func (c *Client) FetchPage(ctx context.Context, threadID uuid.UUID, beforeID *int64) (*Page, error) {
	path := "/api/chat/threads/" + threadID.String() + "/messages"
	if beforeID != nil {
		path += "?before_id=" + strconv.FormatInt(*beforeID, 10)
	}
	var out Page
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchHistory walks backwards until the thread is exhausted or maxPages
// pages were read. maxPages <= 0 reads everything.
func (c *Client) FetchHistory(ctx context.Context, threadID uuid.UUID, maxPages int) ([]Message, error) {
	var (
		all    []Message
		before *int64
	)
	for pages := 0; maxPages <= 0 || pages < maxPages; pages++ {
		page, err := c.FetchPage(ctx, threadID, before)
		if err != nil {
			return nil, err
		}
		if len(page.Messages) == 0 || page.NextBeforeID == nil {
			break
		}
		all = append(page.Messages, all...)
		before = page.NextBeforeID
	}
	return all, nil
}

func (c *Client) PostMessage(ctx context.Context, threadID uuid.UUID, body string) (*PostResult, error) {
	var out struct {
		OK        bool            `json:"ok"`
		Message   Message         `json:"message"`
		AutoReply json.RawMessage `json:"auto_reply"`
	}
	path := "/api/chat/threads/" + threadID.String() + "/messages"
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"body": body}, &out); err != nil {
		return nil, err
	}
	res := &PostResult{Message: out.Message}
	// auto_reply is either a message object or false.
	if raw := bytes.TrimSpace(out.AutoReply); len(raw) > 0 && raw[0] == '{' {
		var reply Message
		if err := json.Unmarshal(raw, &reply); err != nil {
			return nil, fmt.Errorf("decode auto_reply: %w", err)
		}
		res.AutoReply = &reply
	}
	return res, nil
}

func (c *Client) TouchPresence(ctx context.Context, role string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/chat/presence", map[string]string{"role": role}, nil)
}

// Stream blocks delivering the thread's new-message events until ctx is done
// or the server closes the stream.
func (c *Client) Stream(ctx context.Context, threadID uuid.UUID, onMessage func(Message) error) error {
	q := url.Values{}
	q.Set("token", c.token)
	u := c.baseURL + "/api/chat/threads/" + threadID.String() + "/stream?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return parseHTTPError(resp.StatusCode, raw)
	}
	err = streamSSE(resp.Body, func(event, data string) error {
		if event != "new-message" {
			return nil
		}
		var env struct {
			Channel string  `json:"channel"`
			Event   string  `json:"event"`
			Data    Message `json:"data"`
		}
		if err := json.Unmarshal([]byte(data), &env); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if onMessage == nil {
			return nil
		}
		return onMessage(env.Data)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Posting a message is not idempotent, so only reads are retried.
	retries := 0
	if method == http.MethodGet {
		retries = c.maxRetries
	}
	backoff := 250 * time.Millisecond
	for attempt := 0; ; attempt++ {
		err := c.doOnce(ctx2, method, path, buf.Bytes(), out)
		if err == nil {
			return nil
		}
		if attempt >= retries || !httpx.IsRetryableError(err) {
			return err
		}
		if serr := httpx.SleepContext(ctx2, httpx.JitterSleep(backoff)); serr != nil {
			return errors.Join(err, serr)
		}
		backoff *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
