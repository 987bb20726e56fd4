package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/llehouerou/streamwave/internal/errmsg"
)

var downloadCmd = &cobra.Command{
	Use:   "download <media-id>...",
	Short: "Store tracks in the download cache for offline playback",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		var failed int
		for _, id := range args {
			if err := a.resolver.Download(ctx, id, a.downloads); err != nil {
				failed++
				fmt.Fprintf(out, "%s: %s\n", id, errmsg.FormatWith(errmsg.OpDownload, id, err))
				a.logger.Debug("download failed", "id", id, "err", err)
				continue
			}
			fmt.Fprintf(out, "%s: stored\n", id)
		}
		a.reconciler.Wait()
		if failed > 0 {
			return fmt.Errorf("%d of %d downloads failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
