// Package middleware holds the cmd.Middleware applied to every chat command.
package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/storage"
	"github.com/keshon/jukebox/pkg/cmd"
)

// WithGuildOnly drops invocations that did not come from a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if s, ok := inv.Data.(*command.Session); ok && s.GuildID == "" {
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithRecover turns a panicking command into an error.
func WithRecover(logger zerolog.Logger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().
						Str("command", c.Name()).
						Interface("panic", r).
						Bytes("stack", debug.Stack()).
						Msg("command panicked")
					err = fmt.Errorf("command %s panicked: %v", c.Name(), r)
				}
			}()
			return c.Run(ctx, inv)
		})
	}
}

// CommandLog persists invoked commands.
type CommandLog interface {
	SetCommand(ctx context.Context, guildID string, rec storage.CommandRecord) error
}

// WithCommandLogger tags each invocation with an ID, logs it and, when store
// is not nil, records it in the guild's command log.
func WithCommandLogger(store CommandLog, logger zerolog.Logger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			s, ok := inv.Data.(*command.Session)
			if !ok {
				return c.Run(ctx, inv)
			}
			if s.InvocationID == "" {
				s.InvocationID = uuid.NewString()
			}

			start := time.Now()
			err := c.Run(ctx, inv)

			ev := logger.Info()
			if err != nil {
				ev = logger.Warn().Err(err)
			}
			ev.Str("command", c.Name()).
				Str("invocation", s.InvocationID).
				Str("guild", s.GuildID).
				Str("user", s.AuthorName).
				Str("param", s.Raw).
				Dur("took", time.Since(start)).
				Msg("command handled")

			if store != nil {
				rec := storage.CommandRecord{
					ChannelID:    s.ChannelID,
					UserID:       s.AuthorID,
					Username:     s.AuthorName,
					Command:      c.Name(),
					Param:        s.Raw,
					InvocationID: s.InvocationID,
					Datetime:     start,
				}
				if e := store.SetCommand(ctx, s.GuildID, rec); e != nil {
					logger.Warn().Err(e).Str("command", c.Name()).Msg("failed to log command")
				}
			}
			return err
		})
	}
}
