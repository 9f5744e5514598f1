package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/keshon/jukebox/internal/music/sources"
	"github.com/keshon/jukebox/internal/storage"
	"github.com/keshon/jukebox/pkg/cmd"
)

const queueListLimit = 20

// FormatClock renders d as HH:MM:SS. Hours wrap at 24.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600%24, total/60%60, total%60)
}

// FormatQueue lists tracks as "n. **title** (duration)", one per line.
func FormatQueue(tracks []sources.Track) string {
	var b strings.Builder
	for i, t := range tracks {
		if i == queueListLimit {
			fmt.Fprintf(&b, "\n…and %d more", len(tracks)-queueListLimit)
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. **%s** (%s)", i+1, t.Title, t.DurationString())
	}
	return b.String()
}

func FormatHistory(recs []storage.TrackRecord) string {
	lines := make([]string, 0, len(recs))
	for i, r := range recs {
		t := sources.Track{Duration: r.Duration}
		line := fmt.Sprintf("%d. **%s** (%s)", i+1, r.Title, t.DurationString())
		if r.RequestedBy != "" {
			line += " requested by " + r.RequestedBy
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderHelp(prefix string, cmds []cmd.Command) string {
	var b strings.Builder
	b.WriteString("🎵 **Music Commands:**")
	for _, c := range cmds {
		root := cmd.Root(c)
		b.WriteString("\n`")
		b.WriteString(prefix)
		b.WriteString(c.Name())
		if u, ok := root.(cmd.Usager); ok && u.Usage() != "" {
			b.WriteString(" " + u.Usage())
		}
		b.WriteString("` ")
		b.WriteString(c.Description())
		if a, ok := root.(cmd.Aliaser); ok && len(a.Aliases()) > 0 {
			fmt.Fprintf(&b, " (alias: `%s%s`)", prefix, strings.Join(a.Aliases(), "`, `"+prefix))
		}
	}
	return b.String()
}
