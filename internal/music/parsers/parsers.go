// Package parsers holds the types shared by the media resolvers and the
// transcoder.
package parsers

import (
	"io"
	"time"
)

const (
	Channels   = 2
	SampleRate = 48000
	FrameSize  = 960 // 20ms at 48kHz
)

// Quality tiers accepted by the resolvers.
const (
	QualityLow = iota
	QualityMedium
	QualityHigh
)

// Media is a raw media stream together with its container name ("webm", "mp4").
type Media struct {
	io.ReadCloser
	Container string
}

type Metadata struct {
	Title    string
	Duration time.Duration
}
