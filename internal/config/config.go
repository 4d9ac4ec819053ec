// Package config loads the bot settings from defaults, a TOML file, a .env
// file and the environment, in increasing priority. Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting of the bot process.
type Config struct {
	TelegramToken string  `toml:"telegram_token"`
	AdminIDs      []int64 `toml:"admin_ids"`
	HealthAddr    string  `toml:"health_addr" validate:"required"`
	DBPath        string  `toml:"db_path"`
	MenuPhoto     string  `toml:"menu_photo" validate:"omitempty,file"`

	LogLevel  string `toml:"log_level" validate:"oneof=trace debug info warn error"`
	LogPretty bool   `toml:"log_pretty"`

	PrecisionPrompts int `toml:"precision_prompts" validate:"min=1,max=50"`
	SpeedPrompts     int `toml:"speed_prompts" validate:"min=1,max=50"`

	LLMProbability float64       `toml:"llm_probability" validate:"gte=0,lte=1"`
	PhraseTimeout  time.Duration `toml:"phrase_timeout" validate:"min=100ms"`
	SessionTTL     time.Duration `toml:"session_ttl" validate:"min=1m"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		HealthAddr:       ":3000",
		LogLevel:         "info",
		PrecisionPrompts: 10,
		SpeedPrompts:     10,
		LLMProbability:   0.3,
		PhraseTimeout:    5 * time.Second,
		SessionTTL:       30 * time.Minute,
	}
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultPath returns the default TOML config path.
func DefaultPath() string {
	return filepath.Join(XDGConfigHome(), "typebot", "config.toml")
}

// Load layers the TOML file at path and then the environment over the
// defaults. A missing file is not an error. dotenv, when non-empty, names a
// .env file whose variables fill the environment without replacing values
// already set.
func Load(path, dotenv string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config: %w", err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("decode config: unknown key %q", undecoded[0].String())
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("TELEGRAM_BOT_TOKEN", &cfg.TelegramToken)
	str("TYPEBOT_HEALTH_ADDR", &cfg.HealthAddr)
	str("TYPEBOT_DB", &cfg.DBPath)
	str("TYPEBOT_MENU_PHOTO", &cfg.MenuPhoto)
	str("TYPEBOT_LOG_LEVEL", &cfg.LogLevel)

	// PORT is what most hosting platforms inject.
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, isSet := lookup("TYPEBOT_HEALTH_ADDR"); !isSet {
			cfg.HealthAddr = ":" + v
		}
	}

	var errs []error
	parse := func(name string, fn func(string) error) {
		if v, ok := lookup(name); ok && v != "" {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	parse("TYPEBOT_ADMIN_IDS", func(v string) (err error) {
		cfg.AdminIDs, err = ParseIDs(v)
		return err
	})
	parse("TYPEBOT_LOG_PRETTY", func(v string) (err error) {
		cfg.LogPretty, err = strconv.ParseBool(v)
		return err
	})
	parse("TYPEBOT_PRECISION_PROMPTS", func(v string) (err error) {
		cfg.PrecisionPrompts, err = strconv.Atoi(v)
		return err
	})
	parse("TYPEBOT_SPEED_PROMPTS", func(v string) (err error) {
		cfg.SpeedPrompts, err = strconv.Atoi(v)
		return err
	})
	parse("TYPEBOT_LLM_PROBABILITY", func(v string) (err error) {
		cfg.LLMProbability, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("TYPEBOT_PHRASE_TIMEOUT", func(v string) (err error) {
		cfg.PhraseTimeout, err = time.ParseDuration(v)
		return err
	})
	parse("TYPEBOT_SESSION_TTL", func(v string) (err error) {
		cfg.SessionTTL, err = time.ParseDuration(v)
		return err
	})
	return errors.Join(errs...)
}

// ParseIDs parses a comma separated list of chat ids.
func ParseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the ranges of every setting.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}
	return nil
}

// ValidateBot additionally requires the Telegram token.
func (c Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := validate.Var(c.TelegramToken, "required"); err != nil {
		return errors.New("telegram_token is required (set TELEGRAM_BOT_TOKEN)")
	}
	return nil
}

var fieldKeys = map[string]string{
	"HealthAddr":       "health_addr",
	"MenuPhoto":        "menu_photo",
	"LogLevel":         "log_level",
	"PrecisionPrompts": "precision_prompts",
	"SpeedPrompts":     "speed_prompts",
	"LLMProbability":   "llm_probability",
	"PhraseTimeout":    "phrase_timeout",
	"SessionTTL":       "session_ttl",
}

// describe turns validator errors into messages naming the config keys.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fieldKeys[fe.Field()]
		if key == "" {
			key = fe.Field()
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s)", key, fe.Value(), rule))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
