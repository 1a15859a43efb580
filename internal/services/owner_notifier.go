package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/rentalchat-backend/internal/data/repos"
	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
	"github.com/yungbote/rentalchat-backend/internal/platform/sendgrid"
)

// OwnerNotifier tells the contacted owner about a new inquiry. It never
// returns an error; failures are logged.
type OwnerNotifier interface {
	ThreadCreated(ctx context.Context, thread *types.ChatThread, initiatorID, ownerID uuid.UUID)
}

type emailOwnerNotifier struct {
	log      *logger.Logger
	accounts repos.AccountRepo
	mail     sendgrid.Client
	appURL   string
	timeout  time.Duration
}

func NewEmailOwnerNotifier(log *logger.Logger, accounts repos.AccountRepo, mail sendgrid.Client, appURL string, timeout time.Duration) OwnerNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &emailOwnerNotifier{
		log:      log.With("service", "OwnerNotifier"),
		accounts: accounts,
		mail:     mail,
		appURL:   strings.TrimRight(strings.TrimSpace(appURL), "/"),
		timeout:  timeout,
	}
}

func (n *emailOwnerNotifier) ThreadCreated(ctx context.Context, thread *types.ChatThread, initiatorID, ownerID uuid.UUID) {
	if n == nil || n.mail == nil || thread == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	dbc := dbctx.Context{Ctx: ctx}

	owner, err := n.accounts.GetByID(dbc, ownerID)
	if err != nil || owner == nil || strings.TrimSpace(owner.Email) == "" {
		n.log.Debug("owner notification skipped; no owner email", "thread_id", thread.ID, "owner_id", ownerID, "error", err)
		return
	}
	tenantName := "A tenant"
	if tenant, err := n.accounts.GetByID(dbc, initiatorID); err == nil && tenant != nil && tenant.DisplayName != "" {
		tenantName = tenant.DisplayName
	}

	text := fmt.Sprintf("%s started a conversation with you about your listing.", tenantName)
	if n.appURL != "" {
		text += fmt.Sprintf("\n\nReply here: %s/chat/%s", n.appURL, thread.ID)
	}
	_, err = n.mail.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: owner.Email, Name: owner.DisplayName}},
		Subject:    "New inquiry from " + tenantName,
		Text:       text,
		Categories: []string{"chat_new_inquiry"},
	})
	if err != nil {
		n.log.Warn("owner notification failed", "thread_id", thread.ID, "error", err)
		return
	}
	n.log.Info("owner notified of new inquiry", "thread_id", thread.ID)
}
