package stream

import (
	"errors"
	"fmt"
	"io"
)

type Format int

const (
	// FormatPCM is s16le, 48kHz, stereo.
	FormatPCM Format = iota
	// FormatOggOpus is an Ogg container carrying 20ms Opus packets.
	FormatOggOpus
)

func (f Format) String() string {
	switch f {
	case FormatPCM:
		return "pcm"
	case FormatOggOpus:
		return "ogg/opus"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Stream is an audio byte stream of a known format.
type Stream struct {
	io.ReadCloser
	Format Format
}

// FrameReader yields Opus packets of 20ms each. ReadFrame returns io.EOF at
// the end of the stream.
type FrameReader interface {
	ReadFrame() ([]byte, error)
	Close() error
}

var ErrUnknownFormat = errors.New("unknown stream format")

// NewFrameReader wraps s in a reader matching its format. Closing the
// returned reader closes s.
func NewFrameReader(s *Stream) (FrameReader, error) {
	switch s.Format {
	case FormatPCM:
		return newPCMFrames(s)
	case FormatOggOpus:
		return newOggFrames(s)
	default:
		s.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, s.Format)
	}
}
