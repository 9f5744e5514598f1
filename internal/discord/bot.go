// Package discord connects the command router and the playback engine to a
// Discord gateway session.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/music/player"
)

// Handler runs chat commands.
type Handler interface {
	Handle(ctx context.Context, msg command.Message, replier command.Replier) bool
}

// Engine is the part of the playback engine driven by gateway events.
type Engine interface {
	Get(guildID string) (*player.Queue, bool)
	Delete(guildID string) bool
	SetChannelEmpty(guildID string, empty bool)
}

// Bot is a Discord bot
type Bot struct {
	dg  *discordgo.Session
	cfg *config.Config
	log zerolog.Logger

	mu      sync.RWMutex
	ctx     context.Context
	handler Handler
	engine  Engine
}

// New creates the gateway session without connecting it. The bot can serve
// as the engine's VoiceJoiner and the router's VoiceLocator before Run.
func New(cfg *config.Config, logger zerolog.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	b := &Bot{
		dg:  dg,
		cfg: cfg,
		log: logger.With().Str("component", "discord").Logger(),
		ctx: context.Background(),
	}
	b.configureIntents()
	return b, nil
}

// Session exposes the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session { return b.dg }

// Run opens the gateway and serves events until ctx is done.
func (b *Bot) Run(ctx context.Context, handler Handler, engine Engine) error {
	b.mu.Lock()
	b.ctx, b.handler, b.engine = ctx, handler, engine
	b.mu.Unlock()

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onVoiceStateUpdate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, cleaning up")
	return nil
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent
}

func (b *Bot) deps() (context.Context, Handler, Engine) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx, b.handler, b.engine
}
