package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal"
	"github.com/scythe504/pp-backend/internal/game"
	"github.com/scythe504/pp-backend/internal/utils"
)

// Config is the server configuration. Every value can come from the
// environment (or a .env file) and be overridden by a command line flag.
type Config struct {
	Port        int
	DatabaseURL string
	DeckFile    string
	Deck        []string

	PingInterval      time.Duration
	PingDelay         time.Duration
	DeadlineInterval  time.Duration
	DeadlineDelay     time.Duration
	ConnectionTimeout time.Duration
}

func Default() Config {
	liveness := game.DefaultLivenessConfig()
	return Config{
		Port:              8080,
		PingInterval:      liveness.PingInterval,
		PingDelay:         liveness.PingDelay,
		DeadlineInterval:  liveness.DeadlineInterval,
		DeadlineDelay:     liveness.DeadlineDelay,
		ConnectionTimeout: internal.ConnectionTimeout,
	}
}

// Load reads .env, the environment and then args, which are parsed with
// flagSet. Callers may register their own flags on flagSet beforehand.
func Load(flagSet *pflag.FlagSet, args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.AddFlags(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.loadDeck(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.IntVar(&c.Port, "port", c.Port, "HTTP listen port (PORT)")
	flagSet.StringVar(&c.DatabaseURL, "database-url", c.DatabaseURL, "postgres URL of the event journal, empty disables it (DATABASE_URL)")
	flagSet.StringVar(&c.DeckFile, "deck-file", c.DeckFile, "CSV file with the cards of new rooms (DECK_FILE)")
	flagSet.DurationVar(&c.PingInterval, "ping-interval", c.PingInterval, "time between pings (PING_INTERVAL)")
	flagSet.DurationVar(&c.PingDelay, "ping-delay", c.PingDelay, "time before the first ping (PING_DELAY)")
	flagSet.DurationVar(&c.DeadlineInterval, "deadline-interval", c.DeadlineInterval, "time between unresponsive user sweeps (DEADLINE_INTERVAL)")
	flagSet.DurationVar(&c.DeadlineDelay, "deadline-delay", c.DeadlineDelay, "time before the first unresponsive user sweep (DEADLINE_DELAY)")
	flagSet.DurationVar(&c.ConnectionTimeout, "connection-timeout", c.ConnectionTimeout, "how long a connection may go without answering a ping (CONNECTION_TIMEOUT)")
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := lookup("DATABASE_URL"); ok {
		c.DatabaseURL = v
	}
	if v, ok := lookup("DECK_FILE"); ok {
		c.DeckFile = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"PING_INTERVAL", &c.PingInterval},
		{"PING_DELAY", &c.PingDelay},
		{"DEADLINE_INTERVAL", &c.DeadlineInterval},
		{"DEADLINE_DELAY", &c.DeadlineDelay},
		{"CONNECTION_TIMEOUT", &c.ConnectionTimeout},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.PingInterval <= 0 || c.DeadlineInterval <= 0 {
		return errors.New("ping and deadline intervals must be positive")
	}
	if c.PingDelay < 0 || c.DeadlineDelay < 0 {
		return errors.New("ping and deadline delays must not be negative")
	}
	if c.ConnectionTimeout <= 0 {
		return errors.New("connection timeout must be positive")
	}
	return nil
}

func (c *Config) loadDeck() error {
	if c.DeckFile == "" {
		c.Deck = append([]string(nil), internal.DefaultDeck...)
		return nil
	}
	deck, err := utils.ReadDeckFile(c.DeckFile)
	if err != nil {
		return err
	}
	c.Deck = deck
	return nil
}

func (c *Config) Liveness() game.LivenessConfig {
	return game.LivenessConfig{
		PingInterval:     c.PingInterval,
		PingDelay:        c.PingDelay,
		DeadlineInterval: c.DeadlineInterval,
		DeadlineDelay:    c.DeadlineDelay,
	}
}

func (c *Config) Log() {
	journal := "disabled"
	if c.DatabaseURL != "" {
		journal = "enabled"
	}
	klog.Infof("[config] port=%d journal=%s deck=%v ping=%v/%v deadline=%v/%v timeout=%v",
		c.Port, journal, c.Deck, c.PingDelay, c.PingInterval, c.DeadlineDelay, c.DeadlineInterval, c.ConnectionTimeout)
}
