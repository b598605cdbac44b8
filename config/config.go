package config

import (
	"errors"
	"fmt"
	"os"
	"sketchroom/game"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingOrigins   = errors.New("missing-allowed-origins")
	ErrMissingInviteKey = errors.New("missing-invite-key")
	ErrInvalidValue     = errors.New("invalid-config-value")
)

type Config struct {
	Port           string
	AllowedOrigins []string
	PublicURL      string

	PostgresURL string
	WordsFile   string

	InviteKey string
	InviteTTL time.Duration

	LogLevel  string
	LogPretty bool

	HousekeepingSchedule string
	WordsRefreshSchedule string

	Room game.RoomConfigs
}

// Load reads the configuration from the environment. Variables from a .env
// file in the working directory fill in whatever is not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from lookup. Only ALLOWED_ORIGINS and
// INVITE_KEY are required.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	p := parser{lookup: lookup}
	defaults := game.DefaultRoomConfigs()

	cfg := &Config{
		Port:                 p.str("PORT", "5000"),
		AllowedOrigins:       splitList(p.str("ALLOWED_ORIGINS", "")),
		PostgresURL:          p.str("POSTGRES_URL", ""),
		WordsFile:            p.str("WORDS_FILE", ""),
		InviteKey:            p.str("INVITE_KEY", ""),
		InviteTTL:            p.duration("INVITE_TTL", 24*time.Hour),
		LogLevel:             p.str("LOG_LEVEL", "info"),
		LogPretty:            p.boolean("LOG_PRETTY", false),
		HousekeepingSchedule: p.str("HOUSEKEEPING_SCHEDULE", "@every 5m"),
		WordsRefreshSchedule: p.str("WORDS_REFRESH_SCHEDULE", "@every 10m"),
		Room: game.RoomConfigs{
			MaxPlayers:       p.integer("MAX_PLAYERS", defaults.MaxPlayers, 2),
			CandidateCount:   p.integer("CANDIDATE_COUNT", defaults.CandidateCount, 1),
			SelectingSeconds: p.integer("SELECTING_SECONDS", defaults.SelectingSeconds, 1),
			DrawingSeconds:   p.integer("DRAWING_SECONDS", defaults.DrawingSeconds, 1),
			GuessThreshold:   p.integer("GUESS_THRESHOLD", defaults.GuessThreshold, 1),
			PointsPerTier:    p.integer("POINTS_PER_TIER", defaults.PointsPerTier, 1),
			ChatHistorySize:  p.integer("CHAT_HISTORY_SIZE", defaults.ChatHistorySize, 1),
		},
	}
	cfg.PublicURL = p.str("PUBLIC_URL", firstOrEmpty(cfg.AllowedOrigins))

	if p.err != nil {
		return nil, p.err
	}
	if len(cfg.AllowedOrigins) == 0 {
		return nil, ErrMissingOrigins
	}
	if cfg.InviteKey == "" {
		return nil, ErrMissingInviteKey
	}
	if cfg.Room.GuessThreshold > 100 {
		return nil, fmt.Errorf("%w: GUESS_THRESHOLD must be at most 100", ErrInvalidValue)
	}
	return cfg, nil
}

// parser keeps the first error so Load can report it after reading everything.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) str(key, fallback string) string {
	value, ok := p.lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func (p *parser) integer(key string, fallback, minimum int) int {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minimum {
		p.fail(fmt.Errorf("%w: %s=%q must be an integer >= %d", ErrInvalidValue, key, raw, minimum))
		return fallback
	}
	return n
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		p.fail(fmt.Errorf("%w: %s=%q must be a positive duration", ErrInvalidValue, key, raw))
		return fallback
	}
	return d
}

func (p *parser) boolean(key string, fallback bool) bool {
	raw := p.str(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(fmt.Errorf("%w: %s=%q must be a boolean", ErrInvalidValue, key, raw))
		return fallback
	}
	return b
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func splitList(raw string) []string {
	var out []string
	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func firstOrEmpty(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
