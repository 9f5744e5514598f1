package stream

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pion/webrtc/v3/pkg/media/oggreader"
)

var opusTags = []byte("OpusTags")

// oggFrames demuxes an Ogg/Opus stream written with one packet per page.
type oggFrames struct {
	src    io.ReadCloser
	reader *oggreader.OggReader
}

func newOggFrames(src io.ReadCloser) (*oggFrames, error) {
	reader, _, err := oggreader.NewWith(src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("ogg header: %w", err)
	}
	return &oggFrames{src: src, reader: reader}, nil
}

func (o *oggFrames) ReadFrame() ([]byte, error) {
	for {
		payload, _, err := o.reader.ParseNextPage()
		if err != nil {
			return nil, err
		}
		if len(payload) == 0 || bytes.HasPrefix(payload, opusTags) {
			continue
		}
		return payload, nil
	}
}

func (o *oggFrames) Close() error { return o.src.Close() }
