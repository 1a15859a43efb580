package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yungbote/rentalchat-backend/internal/app"
	"github.com/yungbote/rentalchat-backend/internal/observability"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

func newLogger() (*logger.Logger, error) {
	log, err := logger.New(envOr("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the chat HTTP API and SSE streams",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides PORT)",
			},
		},
		Action: func(c *cli.Context) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := app.LoadConfig(log)
			if p := c.String("port"); p != "" {
				cfg.Port = p
			}

			shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
				ServiceName: "rentalchat",
				Environment: cfg.Environment,
				Version:     version,
			})
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownOTel(sctx)
			}()

			a, err := app.New(ctx, log, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.Run(ctx)
			log.Info("Server stopped")
			return err
		},
	}
}
