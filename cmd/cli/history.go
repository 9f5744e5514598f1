package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/keshon/jukebox/internal/command"
	"github.com/keshon/jukebox/internal/storage"
)

var showCommands bool

var historyCmd = &cobra.Command{
	Use:   "history <guild-id>",
	Short: "Print a guild's played tracks",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&showCommands, "commands", false, "print the command log instead of tracks")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StoragePath == "" {
		return errors.New("STORAGE_PATH is empty, history is disabled")
	}
	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	guildID := args[0]
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if showCommands {
		recs, err := store.Commands(ctx, guildID)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "TIME\tUSER\tCOMMAND\tPARAM")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Datetime.Format("2006-01-02 15:04:05"), r.Username, r.Command, r.Param)
		}
		return nil
	}

	recs, err := store.Tracks(ctx, guildID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "No playback history yet.")
		return nil
	}
	fmt.Fprintln(w, command.FormatHistory(recs))
	return nil
}
