package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/storage"
)

// Poster sends a plain message to a channel. *discordgo.Session implements it.
type Poster interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type TrackHistory interface {
	AddTrack(ctx context.Context, guildID string, rec storage.TrackRecord) error
}

// Notifier reacts to playback events: it records started tracks and tells
// the queue's text channel about tracks that failed to play.
type Notifier struct {
	poster  Poster
	history TrackHistory
	log     zerolog.Logger
}

// NewNotifier builds a notifier. poster and history may each be nil.
func NewNotifier(poster Poster, history TrackHistory, logger zerolog.Logger) *Notifier {
	return &Notifier{
		poster:  poster,
		history: history,
		log:     logger.With().Str("component", "notifier").Logger(),
	}
}

// Observe is a player.Observer. Slow work runs in its own goroutine.
func (n *Notifier) Observe(ev player.Event) {
	switch ev.Type {
	case player.EventTrackStart:
		if n.history != nil {
			go n.record(ev)
		}
	case player.EventError:
		if n.poster != nil && ev.Metadata.ChannelID != "" {
			go n.post(ev.Metadata.ChannelID, fmt.Sprintf("❌ Failed to play **%s**", ev.Track.Title))
		}
	case player.EventDeleted:
		n.log.Debug().Str("guild", ev.GuildID).Msg("queue gone")
	}
}

func (n *Notifier) record(ev player.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := storage.TrackRecord{
		Title:       ev.Track.Title,
		URL:         ev.Track.URL,
		Source:      ev.Track.Source,
		Duration:    ev.Track.Duration,
		RequestedBy: ev.Track.RequestedBy.Name,
	}
	if err := n.history.AddTrack(ctx, ev.GuildID, rec); err != nil {
		n.log.Warn().Err(err).Str("guild", ev.GuildID).Msg("failed to record track")
	}
}

func (n *Notifier) post(channelID, text string) {
	if _, err := n.poster.ChannelMessageSend(channelID, text); err != nil {
		n.log.Warn().Err(err).Str("channel", channelID).Msg("failed to post message")
	}
}
