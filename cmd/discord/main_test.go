package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/jukebox/internal/config"
)

func TestRunReturnsInitErrors(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"DISCORD_TOKEN": "token"})
	require.NoError(t, err)
	cfg.StoragePath = ":memory:"
	cfg.RedisURL = "::not a url::"

	err = run(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialise")
}
