package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shirooni/typebot/internal/health"
	"github.com/shirooni/typebot/internal/metrics"
	"github.com/shirooni/typebot/internal/telegram"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Telegram bot and its health server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateBot(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := openEventLog()
		if err != nil {
			return err
		}
		defer events.Close()

		api, err := telegram.Dial(cfg.TelegramToken)
		if err != nil {
			return err
		}
		log.Info().Str("bot", api.Self.UserName).Msg("connected to telegram")

		out := telegram.NewTransport(api)
		c := newCore(ctx, events, out)
		c.start(ctx)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv := health.New(metrics.NewRegistry())
			if err := srv.Serve(ctx, cfg.HealthAddr); err != nil {
				log.Error().Err(err).Msg("health server stopped")
			}
		}()

		err = telegram.Poll(ctx, api, c.bot, telegram.DefaultPollConfig())
		stop()
		wg.Wait()

		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("poll updates: %w", err)
		}
		log.Info().Msg("bot stopped")
		return nil
	},
}

func init() {
	registerBotFlags(runCmd)
}

func registerBotFlags(cmd *cobra.Command) {
	cmd.Flags().String("health-addr", "", "Listen address of the health server (default :3000)")
	cmd.Flags().String("admin-ids", "", "Comma separated chat ids allowed to use /user")
	cmd.Flags().String("menu-photo", "", "Image sent with the main menu")
}
