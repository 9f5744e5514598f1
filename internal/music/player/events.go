package player

import "github.com/keshon/jukebox/internal/music/sources"

type EventType int

const (
	EventTrackStart EventType = iota
	EventTrackEnd
	EventQueueEmpty
	EventError
	EventDeleted
)

func (t EventType) String() string {
	switch t {
	case EventTrackStart:
		return "track_start"
	case EventTrackEnd:
		return "track_end"
	case EventQueueEmpty:
		return "queue_empty"
	case EventError:
		return "error"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

type Event struct {
	Type     EventType
	GuildID  string
	Metadata Metadata
	Track    sources.Track // zero for queue-level events
	Err      error
}

// Observer is called synchronously from playback goroutines. It must not
// block for long.
type Observer func(Event)
