// Package command maps prefixed chat messages onto the music commands.
package command

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/pkg/cmd"
)

// Router parses chat messages and dispatches them to registered commands.
type Router struct {
	prefix   string
	registry *cmd.Registry
	voice    VoiceLocator
	log      zerolog.Logger
}

func NewRouter(prefix string, registry *cmd.Registry, voice VoiceLocator, logger zerolog.Logger) *Router {
	return &Router{
		prefix:   prefix,
		registry: registry,
		voice:    voice,
		log:      logger.With().Str("component", "router").Logger(),
	}
}

// Handle runs the command in msg, if any, and reports whether one ran.
// Bot authors, messages outside a guild and unknown commands are ignored.
func (r *Router) Handle(ctx context.Context, msg Message, replier Replier) bool {
	if msg.AuthorBot || msg.GuildID == "" {
		return false
	}

	name, args, raw, ok := cmd.Parse(r.prefix, msg.Content)
	if !ok {
		return false
	}
	c, ok := r.registry.Get(name)
	if !ok {
		return false
	}

	s := NewSession(msg, replier, r.voice)
	s.Args, s.Raw = args, raw

	if err := c.Run(ctx, &cmd.Invocation{Name: name, Args: args, Raw: raw, Data: s}); err != nil {
		r.log.Error().Err(err).
			Str("command", name).
			Str("guild", msg.GuildID).
			Str("user", msg.AuthorID).
			Msg("command failed")
	}
	if n := s.Replies(); n != 1 {
		r.log.Warn().
			Str("command", name).
			Str("guild", msg.GuildID).
			Int("replies", n).
			Msg("command did not reply exactly once")
	}
	return true
}
