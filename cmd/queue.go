package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/llehouerou/streamwave/internal/persist"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the persisted playback queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := persist.NewStore("")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		snap, ok := store.Load()
		if !ok {
			fmt.Fprintln(out, "no saved queue")
			return nil
		}
		if snap.Title != "" {
			fmt.Fprintln(out, snap.Title)
		}
		for i, t := range snap.Tracks {
			marker := "  "
			if i == snap.Index {
				marker = "> "
			}
			length := "live"
			if t.HasDuration() {
				length = (time.Duration(t.Duration) * time.Second).String()
			}
			fmt.Fprintf(out, "%s%3d. %s - %s (%s)\n", marker, i+1, t.ArtistNames(), t.Title, length)
		}
		fmt.Fprintf(out, "resume at %s\n", snap.Position.Truncate(time.Second))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
