package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"layeh.com/gopus"

	"github.com/keshon/jukebox/internal/music/parsers"
)

// maxOpusPacket bounds a single encoded frame.
const maxOpusPacket = 4000

type pcmFrames struct {
	src     io.ReadCloser
	encoder *gopus.Encoder
	pcmBuf  []byte
	intBuf  []int16
}

func newPCMFrames(src io.ReadCloser) (*pcmFrames, error) {
	encoder, err := gopus.NewEncoder(parsers.SampleRate, parsers.Channels, gopus.Audio)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("opus encoder: %w", err)
	}
	return &pcmFrames{
		src:     src,
		encoder: encoder,
		pcmBuf:  make([]byte, parsers.FrameSize*parsers.Channels*2),
		intBuf:  make([]int16, parsers.FrameSize*parsers.Channels),
	}, nil
}

func (p *pcmFrames) ReadFrame() ([]byte, error) {
	n, err := io.ReadFull(p.src, p.pcmBuf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		// a trailing partial frame is padded with silence
		clear(p.pcmBuf[n:])
		err = nil
	}
	if err != nil {
		return nil, err
	}

	for i := range p.intBuf {
		p.intBuf[i] = int16(binary.LittleEndian.Uint16(p.pcmBuf[i*2 : i*2+2]))
	}

	frame, err := p.encoder.Encode(p.intBuf, parsers.FrameSize, maxOpusPacket)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return frame, nil
}

func (p *pcmFrames) Close() error { return p.src.Close() }
