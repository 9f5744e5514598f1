// cmd/discord/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/keshon/jukebox/internal/app"
	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/discord"
	"github.com/keshon/jukebox/internal/logging"
	v "github.com/keshon/jukebox/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: os.Stderr})
	err = run(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("discord bot stopped")
	}
	closer.Close()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until a signal or a gateway error. Everything it opens is
// closed before it returns.
func run(cfg *config.Config, logger zerolog.Logger) error {
	bi := v.Info()
	logger.Info().
		Str("version", bi.Version).
		Str("commit", bi.Commit).
		Str("go", bi.GoVersion).
		Str("platform", bi.Platform).
		Msgf("Starting %v bot...", bi.Project)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bot, err := discord.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	jukebox, err := app.New(ctx, cfg, app.Options{
		Joiner:  bot,
		Locator: bot,
		Poster:  bot.Session(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	defer jukebox.Close()

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx, jukebox.Router, jukebox.Engine); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	var runErr error
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case runErr = <-errCh:
	}
	cancel()
	for range errCh {
	}
	if runErr != nil {
		return fmt.Errorf("discord bot: %w", runErr)
	}

	logger.Info().Msg("discord bot exited cleanly")
	return nil
}
