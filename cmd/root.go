package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shirooni/typebot/internal/config"
	"github.com/shirooni/typebot/internal/store"
)

// cfg is loaded before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "typebot",
	Short:         "Shiro Oni, a typing drill bot",
	Long:          "typebot runs Shiro Oni, a Telegram bot that drills typing precision and speed in French.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded
		return setupLogging(cfg, os.Stderr)
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	registerConfigFlags(rootCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(phraseCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func registerConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", config.DefaultPath(), "Path to the TOML config file")
	flags.String("env-file", ".env", "Path to a .env file (missing is fine)")
	flags.String("db", "", "Path to the SQLite event log (overrides TYPEBOT_DB)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn or error")
	flags.Bool("log-pretty", false, "Human readable logs instead of JSON")
}

// loadConfig layers the config file, the environment and then the flags
// the user explicitly set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	envFile, _ := flags.GetString("env-file")

	c, err := config.Load(path, envFile)
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("db") {
		c.DBPath, _ = flags.GetString("db")
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-pretty") {
		c.LogPretty, _ = flags.GetBool("log-pretty")
	}
	for _, name := range []string{"health-addr", "admin-ids", "menu-photo"} {
		if f := flags.Lookup(name); f == nil || !f.Changed {
			continue
		}
		v, _ := flags.GetString(name)
		switch name {
		case "health-addr":
			c.HealthAddr = v
		case "menu-photo":
			c.MenuPhoto = v
		case "admin-ids":
			if c.AdminIDs, err = config.ParseIDs(v); err != nil {
				return config.Config{}, fmt.Errorf("--admin-ids: %w", err)
			}
		}
	}

	if err := c.Validate(); err != nil {
		return config.Config{}, err
	}
	return c, nil
}

func setupLogging(c config.Config, w io.Writer) error {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	if c.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// resolveDBPath returns the event log path from config (--db, TYPEBOT_DB
// or db_path), then the default XDG path.
func resolveDBPath() (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

func openEventLog() (*store.EventLog, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	l, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return l, nil
}
