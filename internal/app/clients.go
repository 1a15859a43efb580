package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
	"github.com/yungbote/rentalchat-backend/internal/platform/sendgrid"
	"github.com/yungbote/rentalchat-backend/internal/realtime/bus"
)

// Clients are the optional outbound integrations. A nil field means the
// integration is not configured.
type Clients struct {
	SSEBus   bus.Bus
	SendGrid sendgrid.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var sseBus bus.Bus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
	}

	// SendGrid
	var mail sendgrid.Client
	sgCfg := sendgrid.ConfigFromEnv()
	if strings.TrimSpace(sgCfg.APIKey) != "" {
		c, err := sendgrid.New(log, sgCfg)
		if err != nil {
			if sseBus != nil {
				_ = sseBus.Close()
			}
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
		mail = c
	}

	return Clients{SSEBus: sseBus, SendGrid: mail}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
}
