package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
	"github.com/yungbote/rentalchat-backend/internal/services"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Sign a bearer token for local testing",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "User `UUID`", Required: true},
			&cli.StringFlag{Name: "role", Usage: "tenant or owner", Value: "tenant"},
			&cli.DurationFlag{Name: "ttl", Usage: "Token lifetime", Value: services.DefaultAccessTTL},
		},
		Action: func(c *cli.Context) error {
			userID, err := uuid.Parse(c.String("user"))
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			secret := envOr("JWT_SECRET_KEY", "")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET_KEY is not set")
			}
			auth := services.NewAuthService(logger.Nop(), secret, nil)
			tok, err := auth.IssueToken(userID, c.String("role"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, tok)
			return nil
		},
	}
}
