package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/jukebox/internal/command"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.leaveIfBlacklisted(s, g.ID, g.Name)
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.leaveIfBlacklisted(s, g.ID, g.Name) {
		return
	}
	b.log.Debug().Str("guild", g.ID).Str("name", g.Name).Msg("guild available")
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID, name string) bool {
	if !b.cfg.Blacklisted(guildID) {
		return false
	}
	b.log.Info().Str("guild", guildID).Str("name", name).Msg("leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		b.log.Error().Err(err).Str("guild", guildID).Msg("failed to leave guild")
	}
	return true
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	ctx, handler, _ := b.deps()
	if handler == nil {
		return
	}
	handler.Handle(ctx, toMessage(m.Message), &replier{s: s, msg: m.Message})
}

// onVoiceStateUpdate keeps the leave-on-empty timer of the guild's queue in
// step with who is left in its voice channel.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	_, _, engine := b.deps()
	if engine == nil {
		return
	}
	selfID := ""
	if s.State.User != nil {
		selfID = s.State.User.ID
	}

	// disconnected or kicked from voice
	if v.UserID == selfID && v.ChannelID == "" {
		if engine.Delete(v.GuildID) {
			b.log.Info().Str("guild", v.GuildID).Msg("left voice, queue deleted")
		}
		return
	}

	q, ok := engine.Get(v.GuildID)
	if !ok {
		return
	}
	conn := q.Connection()
	if conn == nil {
		return
	}
	if v.UserID == selfID && followMove(conn, v.ChannelID) {
		b.log.Info().Str("guild", v.GuildID).Str("channel", v.ChannelID).Msg("moved to another voice channel")
	}

	guild, err := s.State.Guild(v.GuildID)
	if err != nil {
		b.log.Warn().Err(err).Str("guild", v.GuildID).Msg("guild not in state")
		return
	}
	humans := countHumans(guild.VoiceStates, conn.ChannelID(), selfID, func(userID string) bool {
		member, err := s.State.Member(v.GuildID, userID)
		return err == nil && member.User != nil && member.User.Bot
	})
	engine.SetChannelEmpty(v.GuildID, humans == 0)
}

func toMessage(m *discordgo.Message) command.Message {
	msg := command.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.AuthorBot = m.Author.Bot
	}
	return msg
}

type replier struct {
	s   *discordgo.Session
	msg *discordgo.Message
}

func (r *replier) Reply(ctx context.Context, text string) error {
	_, err := r.s.ChannelMessageSendReply(r.msg.ChannelID, text, r.msg.Reference(), discordgo.WithContext(ctx))
	return err
}
