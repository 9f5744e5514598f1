// Package app wires configuration, storage, the playback engine and the
// command router into one unit shared by the Discord and console binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/cache"
	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/discord"
	"github.com/keshon/jukebox/internal/middleware"
	"github.com/keshon/jukebox/internal/music/parsers/ffmpeg"
	"github.com/keshon/jukebox/internal/music/parsers/kkdai"
	"github.com/keshon/jukebox/internal/music/parsers/ytdlp"
	"github.com/keshon/jukebox/internal/music/player"
	"github.com/keshon/jukebox/internal/music/source_resolver"
	"github.com/keshon/jukebox/internal/music/sources/radio"
	"github.com/keshon/jukebox/internal/music/sources/youtube"
	"github.com/keshon/jukebox/internal/music/stream"
	"github.com/keshon/jukebox/internal/playback"
	"github.com/keshon/jukebox/internal/storage"
	"github.com/keshon/jukebox/pkg/cmd"
)

const cachePrefix = "jukebox:"

// Options are the transport-specific pieces.
type Options struct {
	Joiner  player.VoiceJoiner
	Locator command.VoiceLocator
	Poster  discord.Poster // nil disables failure notices
	Logger  zerolog.Logger
}

type App struct {
	Config   *config.Config
	Store    *storage.Storage // nil when history is disabled
	Cache    cache.Cache
	Engine   *player.Manager
	Playback *playback.Facade
	Router   *command.Router
	Registry *cmd.Registry

	logger zerolog.Logger
}

// New builds the application. Close releases everything it opened.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	a := &App{Config: cfg, logger: logger.With().Str("component", "app").Logger()}

	if cfg.StoragePath != "" {
		store, err := storage.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		a.Store = store
	}

	c, err := cache.New(ctx, cfg.RedisURL, cachePrefix, cfg.SearchCacheTTL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	a.Cache = c

	kk, err := kkdai.NewResolver(cfg.YouTubeProxy, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}
	ff := ffmpeg.New(cfg.FFmpegPath)

	yt := youtube.New(youtube.NewSearcher(nil), kk, logger)
	resolver := source_resolver.NewCached(
		source_resolver.New(yt, radio.New(radio.NewProber())),
		a.Cache, cfg.SearchCacheTTL, logger,
	)
	opener := &stream.Opener{
		Primary:  kk,
		Fallback: ytdlp.New(cfg.YTDLPPath),
		Decoder:  stream.FFmpegDecoder{Transcoder: ff, Log: logger},
		Quality:  cfg.StreamQuality,
		Log:      logger,
	}

	var (
		trackHistory discord.TrackHistory
		history      command.History
		commandLog   middleware.CommandLog
	)
	if a.Store != nil {
		trackHistory, history, commandLog = a.Store, a.Store, a.Store
	}
	notifier := discord.NewNotifier(opts.Poster, trackHistory, logger)

	a.Engine = player.NewManager(resolver, opener, opts.Joiner, player.Options{
		BufferingTimeout: cfg.BufferingTimeout,
		Observer:         notifier.Observe,
		Logger:           logger,
	})
	a.Playback = playback.New(a.Engine,
		playback.BufferedStream(kk, playback.FFmpeg{Transcoder: ff}, cfg.StreamQuality, logger),
		playback.Options{
			LeaveOnEmptyCooldown: cfg.LeaveOnEmptyCooldown,
			ConnectionTimeout:    cfg.ConnectionTimeout,
			Logger:               logger,
		},
	)

	a.Registry = cmd.NewRegistry()
	command.Register(a.Registry,
		command.Deps{Playback: a.Playback, History: history, Prefix: cfg.CommandPrefix, Logger: logger},
		middleware.WithRecover(logger),
		middleware.WithCommandLogger(commandLog, logger),
		middleware.WithGuildOnly(),
	)
	a.Router = command.NewRouter(cfg.CommandPrefix, a.Registry, opts.Locator, logger)

	return a, nil
}

// Close deletes every queue and closes the cache and storage.
func (a *App) Close() error {
	if a.Engine != nil {
		a.Engine.Close()
	}
	var errs []error
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		a.logger.Warn().Err(err).Msg("shutdown incomplete")
	}
	return err
}
