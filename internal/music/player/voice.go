package player

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// VoiceConnection is a joined voice channel that accepts 20ms Opus frames.
type VoiceConnection interface {
	ChannelID() string
	// SendOpus blocks until the frame is accepted or ctx is done.
	SendOpus(ctx context.Context, frame []byte) error
	Speaking(speaking bool) error
	Disconnect() error
}

type VoiceJoiner interface {
	JoinVoice(ctx context.Context, guildID, channelID string) (VoiceConnection, error)
}

// NullVoice joins imaginary channels and drops frames at real-time pace.
// Used by the console adapter and tests.
type NullVoice struct {
	FrameDelay time.Duration

	mu    sync.Mutex
	conns []*NullConnection
}

func NewNullVoice() *NullVoice {
	return &NullVoice{FrameDelay: 20 * time.Millisecond}
}

func (n *NullVoice) JoinVoice(ctx context.Context, guildID, channelID string) (VoiceConnection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := &NullConnection{channelID: channelID, delay: n.FrameDelay}
	n.mu.Lock()
	n.conns = append(n.conns, c)
	n.mu.Unlock()
	return c, nil
}

// Connections returns every connection handed out so far.
func (n *NullVoice) Connections() []*NullConnection {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*NullConnection(nil), n.conns...)
}

type NullConnection struct {
	channelID    string
	delay        time.Duration
	frames       atomic.Int64
	speaking     atomic.Bool
	disconnected atomic.Bool
}

func (c *NullConnection) ChannelID() string { return c.channelID }

func (c *NullConnection) SendOpus(ctx context.Context, frame []byte) error {
	if c.delay > 0 {
		t := time.NewTimer(c.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	c.frames.Add(1)
	return nil
}

func (c *NullConnection) Speaking(speaking bool) error {
	c.speaking.Store(speaking)
	return nil
}

func (c *NullConnection) Disconnect() error {
	c.disconnected.Store(true)
	return nil
}

func (c *NullConnection) Frames() int64      { return c.frames.Load() }
func (c *NullConnection) Disconnected() bool { return c.disconnected.Load() }
