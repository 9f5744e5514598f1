package command

import (
	"context"
	"sync"

	"github.com/keshon/jukebox/internal/music/sources"
)

// Message is an inbound chat message, independent of the transport.
type Message struct {
	ID         string
	GuildID    string // empty outside a guild
	ChannelID  string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Content    string
}

// Replier answers the message a command was invoked from.
type Replier interface {
	Reply(ctx context.Context, text string) error
}

// VoiceLocator finds the voice channel a user is in. It returns "" when the
// user is not in one.
type VoiceLocator interface {
	VoiceChannel(guildID, userID string) string
}

// Session is the context of one command invocation.
type Session struct {
	Message
	Args         []string
	Raw          string
	InvocationID string

	replier Replier
	voice   VoiceLocator

	voiceOnce sync.Once
	voiceID   string

	mu      sync.Mutex
	replies int
}

func NewSession(msg Message, replier Replier, voice VoiceLocator) *Session {
	return &Session{Message: msg, replier: replier, voice: voice}
}

// VoiceChannelID is the author's current voice channel, looked up once.
func (s *Session) VoiceChannelID() string {
	s.voiceOnce.Do(func() {
		if s.voice != nil {
			s.voiceID = s.voice.VoiceChannel(s.GuildID, s.AuthorID)
		}
	})
	return s.voiceID
}

func (s *Session) Requester() sources.Requester {
	return sources.Requester{ID: s.AuthorID, Name: s.AuthorName}
}

func (s *Session) Reply(ctx context.Context, text string) error {
	s.mu.Lock()
	s.replies++
	s.mu.Unlock()
	return s.replier.Reply(ctx, text)
}

// Replies counts the replies sent so far.
func (s *Session) Replies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replies
}
