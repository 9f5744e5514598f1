package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/keshon/jukebox/internal/app"
	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/music/player"
)

const (
	consoleGuild   = "console"
	consoleChannel = "console-text"
	consoleVoice   = "console-voice"
	consoleUser    = "console-user"
)

var consoleUserName string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run chat commands from stdin",
	Long: `Reads one chat message per line from stdin and prints the replies.
The user is always considered to be in a voice channel; audio frames are
paced and discarded.`,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVar(&consoleUserName, "user", "console", "display name used for requests")
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cfg)
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := &printer{w: cmd.OutOrStdout()}
	jukebox, err := app.New(ctx, cfg, app.Options{
		Joiner:  player.NewNullVoice(),
		Locator: fixedVoice(consoleVoice),
		Poster:  out,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer jukebox.Close()

	fmt.Fprintf(out.w, "Type %shelp for commands, Ctrl-D to quit.\n", cfg.CommandPrefix)
	return serveLines(ctx, cmd.InOrStdin(), jukebox.Router, out)
}

type handler interface {
	Handle(ctx context.Context, msg command.Message, replier command.Replier) bool
}

func serveLines(ctx context.Context, in io.Reader, h handler, out *printer) error {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- sc.Err()
	}()

	n := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			n++
			msg := command.Message{
				ID:         fmt.Sprintf("line-%d", n),
				GuildID:    consoleGuild,
				ChannelID:  consoleChannel,
				AuthorID:   consoleUser,
				AuthorName: consoleUserName,
				Content:    line,
			}
			if !h.Handle(ctx, msg, out) {
				fmt.Fprintln(out.w, "(not a command)")
			}
		}
	}
}

type fixedVoice string

func (v fixedVoice) VoiceChannel(guildID, userID string) string { return string(v) }

// printer writes replies and channel posts to the terminal.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) Reply(_ context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintln(p.w, text)
	return err
}

func (p *printer) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintf(p.w, "[%s] %s\n", channelID, content); err != nil {
		return nil, err
	}
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}
