package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken   string   `env:"DISCORD_TOKEN"`
	BotToken       string   `env:"DISCORD_BOT_TOKEN"` // older deployments; used when DISCORD_TOKEN is empty
	CommandPrefix  string   `env:"COMMAND_PREFIX" envDefault:"!"`
	GuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`

	StoragePath    string        `env:"STORAGE_PATH" envDefault:"jukebox.db"`
	RedisURL       string        `env:"REDIS_URL"`
	SearchCacheTTL time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"1h"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	FFmpegPath    string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	YTDLPPath     string `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	YouTubeProxy  string `env:"YOUTUBE_PROXY"`
	StreamQuality int    `env:"STREAM_QUALITY" envDefault:"2"`

	LeaveOnEmptyCooldown time.Duration `env:"LEAVE_ON_EMPTY_COOLDOWN" envDefault:"5m"`
	BufferingTimeout     time.Duration `env:"BUFFERING_TIMEOUT" envDefault:"5s"`
	ConnectionTimeout    time.Duration `env:"CONNECTION_TIMEOUT" envDefault:"30s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg.normalize()
}

// LoadFrom parses cfg from the given variables only.
func LoadFrom(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (*Config, error) {
	c.DiscordToken = strings.TrimSpace(c.DiscordToken)
	if c.DiscordToken == "" {
		c.DiscordToken = strings.TrimSpace(c.BotToken)
	}
	if c.DiscordToken == "" {
		return nil, errors.New("DISCORD_TOKEN (or DISCORD_BOT_TOKEN) must be set")
	}
	c.CommandPrefix = strings.TrimSpace(c.CommandPrefix)
	if c.CommandPrefix == "" {
		return nil, errors.New("COMMAND_PREFIX must not be blank")
	}
	if c.StreamQuality < 0 || c.StreamQuality > 2 {
		return nil, fmt.Errorf("STREAM_QUALITY must be 0, 1 or 2, got %d", c.StreamQuality)
	}

	blacklist := c.GuildBlacklist[:0]
	for _, id := range c.GuildBlacklist {
		if id = strings.TrimSpace(id); id != "" {
			blacklist = append(blacklist, id)
		}
	}
	c.GuildBlacklist = blacklist
	return &c, nil
}

// Blacklisted reports whether the bot should leave guildID.
func (c *Config) Blacklisted(guildID string) bool {
	for _, id := range c.GuildBlacklist {
		if id == guildID {
			return true
		}
	}
	return false
}
