package chatclient

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
)

type RenderOptions struct {
	Me               uuid.UUID
	CounterpartyName string
	Location         *time.Location
}

// Label names a sender from the viewer's side.
func Label(senderID uuid.UUID, opts RenderOptions) string {
	switch {
	case senderID == types.SystemSenderID:
		return "Auto-reply"
	case senderID == opts.Me:
		return "You"
	case strings.TrimSpace(opts.CounterpartyName) != "":
		return opts.CounterpartyName
	default:
		return "Them"
	}
}

// Render writes the timeline as plain text with a separator line whenever the
// calendar day changes.
func Render(w io.Writer, entries []Entry, opts RenderOptions) error {
	return NewRenderer(opts).Write(w, entries...)
}

// Renderer prints entries incrementally, remembering the last day it printed
// so a live tail only emits a separator when the day actually changes.
type Renderer struct {
	opts    RenderOptions
	lastDay string
}

func NewRenderer(opts RenderOptions) *Renderer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Renderer{opts: opts}
}

func (r *Renderer) Write(w io.Writer, entries ...Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		at := e.CreatedAt.In(r.opts.Location)
		if day := at.Format("2006-01-02"); day != r.lastDay {
			if _, err := fmt.Fprintf(bw, "--- %s ---\n", at.Format("Mon, 02 Jan 2006")); err != nil {
				return err
			}
			r.lastDay = day
		}
		marker := ""
		if e.Pending {
			marker = " (sending...)"
		}
		if _, err := fmt.Fprintf(bw, "[%s] %s: %s%s\n", at.Format("15:04"), Label(e.SenderID, r.opts), e.Body, marker); err != nil {
			return err
		}
	}
	return bw.Flush()
}
