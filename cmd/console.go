package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Drill in the terminal without Telegram",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = localName()
		}

		dbPath, err := resolveDBPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		events, err := openEventLog()
		if err != nil {
			return err
		}
		defer events.Close()

		// The terminal belongs to the UI; logs go next to the event log.
		logPath := filepath.Join(filepath.Dir(dbPath), "console.log")
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open console log: %w", err)
		}
		defer logFile.Close()
		if err := setupLogging(cfg, logFile); err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		out := console.NewTransport(chat.ChatInfo{ID: 1, DisplayName: name})
		c := newCore(ctx, events, out)
		c.start(ctx)

		return console.Run(ctx, out, c.bot)
	},
}

func localName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "Joueur"
}

func init() {
	consoleCmd.Flags().String("name", "", "Display name of the local player (default: OS user)")
}
