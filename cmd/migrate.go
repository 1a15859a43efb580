package main

import (
	"github.com/urfave/cli/v2"

	"github.com/yungbote/rentalchat-backend/internal/data/db"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the chat tables and indexes",
		Action: func(c *cli.Context) error {
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
			log.Info("Migration complete")
			return nil
		},
	}
}
