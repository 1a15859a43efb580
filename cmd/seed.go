package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yungbote/rentalchat-backend/internal/data/db"
	"github.com/yungbote/rentalchat-backend/internal/data/repos"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/services"
)

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Replace auto-reply rules and quick-reply templates from a YAML file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Validate the file without writing",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = envOr("CHAT_SEED_FILE", "")
			}
			if path == "" {
				return fmt.Errorf("seed file required")
			}
			f, err := services.LoadSeedFile(path)
			if err != nil {
				return err
			}
			if c.Bool("dry-run") {
				fmt.Fprintf(c.App.Writer, "ok: %d rules, %d quick replies\n", len(f.AutoReplyRules), len(f.QuickReplies))
				return nil
			}

			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()
			store, err := db.NewService(log, db.ConfigFromEnv())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := db.AutoMigrateAll(store.DB()); err != nil {
				return err
			}
			theDB := store.DB()
			seed := services.NewSeedService(theDB, log, repos.NewAutoReplyRuleRepo(theDB, log), repos.NewQuickReplyRepo(theDB, log))
			if err := seed.Apply(dbctx.Context{Ctx: c.Context}, f); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "seeded %d rules, %d quick replies\n", len(f.AutoReplyRules), len(f.QuickReplies))
			return nil
		},
	}
}
