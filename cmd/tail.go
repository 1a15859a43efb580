package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/yungbote/rentalchat-backend/internal/chatclient"
)

func tailCommand() *cli.Command {
	return &cli.Command{
		Name:  "tail",
		Usage: "Print a thread's history and follow new messages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "API base URL", Value: "http://localhost:8080", EnvVars: []string{"CHAT_API_URL"}},
			&cli.StringFlag{Name: "token", Usage: "Bearer token", EnvVars: []string{"CHAT_TOKEN"}},
			&cli.StringFlag{Name: "thread", Usage: "Thread `UUID`", Required: true},
			&cli.IntFlag{Name: "pages", Usage: "History pages to load (0 = all)", Value: 1},
			&cli.StringFlag{Name: "send", Usage: "Post this message before following"},
			&cli.BoolFlag{Name: "no-follow", Usage: "Exit after printing history"},
		},
		Action: func(c *cli.Context) error {
			threadID, err := uuid.Parse(c.String("thread"))
			if err != nil {
				return fmt.Errorf("invalid --thread: %w", err)
			}
			token := strings.TrimSpace(c.String("token"))
			me, err := subjectOf(token)
			if err != nil {
				return err
			}
			client, err := chatclient.New(chatclient.Options{BaseURL: c.String("url"), Token: token, MaxRetries: 2})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			t := &tailer{
				client:   client,
				threadID: threadID,
				timeline: chatclient.NewTimeline(),
				out:      c.App.Writer,
			}
			opts := chatclient.RenderOptions{Me: me, CounterpartyName: t.counterpartyName(ctx)}
			t.renderer = chatclient.NewRenderer(opts)

			history, err := client.FetchHistory(ctx, threadID, c.Int("pages"))
			if err != nil {
				return err
			}
			t.merge(history...)

			if body := strings.TrimSpace(c.String("send")); body != "" {
				if err := t.send(ctx, me, body); err != nil {
					return err
				}
			}
			if c.Bool("no-follow") {
				return nil
			}
			err = client.Stream(ctx, threadID, func(m chatclient.Message) error {
				t.merge(m)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// tailer prints each server message once, in id order as it arrives.
type tailer struct {
	client   *chatclient.Client
	threadID uuid.UUID
	timeline *chatclient.Timeline
	renderer *chatclient.Renderer
	out      io.Writer

	mu      sync.Mutex
	printed map[int64]bool
}

func (t *tailer) merge(msgs ...chatclient.Message) {
	if t.timeline.Merge(msgs...) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.printed == nil {
		t.printed = make(map[int64]bool)
	}
	var fresh []chatclient.Entry
	for _, e := range t.timeline.Entries() {
		if e.Pending || t.printed[e.ID] {
			continue
		}
		t.printed[e.ID] = true
		fresh = append(fresh, e)
	}
	_ = t.renderer.Write(t.out, fresh...)
}

func (t *tailer) send(ctx context.Context, me uuid.UUID, body string) error {
	localID := t.timeline.AddPending(me, body, time.Now())
	for _, e := range t.timeline.Entries() {
		if e.LocalID == localID {
			_ = t.renderer.Write(t.out, e)
		}
	}
	res, err := t.client.PostMessage(ctx, t.threadID, body)
	if err != nil {
		t.timeline.Discard(localID)
		return fmt.Errorf("send failed: %w", err)
	}
	t.timeline.Confirm(localID, res.Message)
	t.mu.Lock()
	if t.printed == nil {
		t.printed = make(map[int64]bool)
	}
	t.printed[res.Message.ID] = true
	t.mu.Unlock()
	if res.AutoReply != nil {
		t.merge(*res.AutoReply)
	}
	return nil
}

func (t *tailer) counterpartyName(ctx context.Context) string {
	threads, err := t.client.ListThreads(ctx)
	if err != nil {
		return ""
	}
	for _, th := range threads {
		if th.ThreadID == t.threadID {
			return th.Counterparty.DisplayName
		}
	}
	return ""
}

// subjectOf reads the user id from the token without verifying it; the server
// does the verification.
func subjectOf(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, fmt.Errorf("--token or CHAT_TOKEN required")
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return uuid.Nil, fmt.Errorf("parse token: %w", err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token subject is not a user id: %w", err)
	}
	return id, nil
}

func envOr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}
