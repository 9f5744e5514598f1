package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/pkg/retrylimit"
)

var ErrSendTimeout = errors.New("voice connection did not accept frame")

const sendTimeout = 5 * time.Second

// JoinVoice joins channelID deafened, retrying a few times. It implements
// player.VoiceJoiner.
func (b *Bot) JoinVoice(ctx context.Context, guildID, channelID string) (player.VoiceConnection, error) {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.MaxAttempts = 3
	cfg.InitialDelay = 2 * time.Second
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		b.log.Warn().Err(err).Int("attempt", attempt).Str("guild", guildID).Msg("voice join failed, retrying")
	}

	var vc *discordgo.VoiceConnection
	err := retrylimit.WithRetryConfig(ctx, func() error {
		var err error
		vc, err = b.dg.ChannelVoiceJoin(guildID, channelID, false, true)
		return err
	}, nil, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	b.log.Info().Str("guild", guildID).Str("channel", channelID).Msg("joined voice channel")
	return &voiceConn{vc: vc, channelID: channelID}, nil
}

// VoiceChannel returns the voice channel userID is in, or "". It implements
// command.VoiceLocator.
func (b *Bot) VoiceChannel(guildID, userID string) string {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return ""
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID
		}
	}
	return ""
}

type voiceConn struct {
	vc *discordgo.VoiceConnection

	mu        sync.RWMutex
	channelID string
}

func (c *voiceConn) ChannelID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channelID
}

func (c *voiceConn) setChannel(channelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channelID == channelID {
		return false
	}
	c.channelID = channelID
	return true
}

// followMove records that the bot was moved to channelID. It reports whether
// the connection's channel changed.
func followMove(conn player.VoiceConnection, channelID string) bool {
	vc, ok := conn.(*voiceConn)
	if !ok || channelID == "" {
		return false
	}
	return vc.setChannel(channelID)
}

func (c *voiceConn) SendOpus(ctx context.Context, frame []byte) error {
	t := time.NewTimer(sendTimeout)
	defer t.Stop()
	select {
	case c.vc.OpusSend <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return ErrSendTimeout
	}
}

func (c *voiceConn) Speaking(speaking bool) error { return c.vc.Speaking(speaking) }

func (c *voiceConn) Disconnect() error { return c.vc.Disconnect() }

// countHumans counts the users in channelID other than the bot itself and
// other bots.
func countHumans(states []*discordgo.VoiceState, channelID, selfID string, isBot func(userID string) bool) int {
	n := 0
	for _, vs := range states {
		if vs.ChannelID != channelID || vs.UserID == selfID {
			continue
		}
		if vs.Member != nil && vs.Member.User != nil {
			if vs.Member.User.Bot {
				continue
			}
		} else if isBot(vs.UserID) {
			continue
		}
		n++
	}
	return n
}
